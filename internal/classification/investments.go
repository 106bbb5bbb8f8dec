package classification

import (
	"fmt"
	"regexp"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// investmentDetector applies an exclusion gate before any positive evidence is considered.
// Plain brokerage account matches are not enough: they also need a purchase-context keyword.
type investmentDetector struct {
	keywords   *keywordSet
	purchase   *keywordSet
	fees       *keywordSet
	withdrawal *keywordSet
	tax        *keywordSet
	savings    *keywordSet
	excluded   *keywordSet
	whitelist  map[string]bool
	accounts   []*regexp.Regexp
	minAmount  int64
	confidence float64
}

func compileInvestmentDetector(def Detector, savings *keywordSet, opts Options) (*investmentDetector, error) {
	ex := def.Exclusions
	if ex == nil {
		ex = &Exclusions{}
	}

	d := &investmentDetector{
		savings:    savings,
		whitelist:  lowerSet(def.SubcategoryWhitelist),
		minAmount:  ex.MinAmount,
		confidence: def.Confidence,
	}
	if opts.MinInvestmentAmount > 0 {
		d.minAmount = opts.MinInvestmentAmount
	}

	sets := []struct {
		dst   **keywordSet
		words []string
	}{
		{&d.keywords, def.Keywords},
		{&d.purchase, def.PurchaseKeywords},
		{&d.fees, ex.FeeKeywords},
		{&d.withdrawal, ex.WithdrawalKeywords},
		{&d.tax, ex.TaxKeywords},
		{&d.excluded, ex.ExcludedAccounts},
	}
	for _, s := range sets {
		ks, err := newKeywordSet(s.words)
		if err != nil {
			return nil, fmt.Errorf("investments detector: %w", err)
		}
		*s.dst = ks
	}

	for _, p := range def.AccountPatterns {
		re, err := common.CompileInsensitive(p)
		if err != nil {
			return nil, fmt.Errorf("investments detector: %w", err)
		}
		d.accounts = append(d.accounts, re)
	}
	return d, nil
}

// excludedBy returns the first disqualifying reason, or "" when the gate passes.
func (d *investmentDetector) excludedBy(txn model.Transaction) string {
	if !txn.IsOutflow() {
		return "not a purchase"
	}
	if txn.AbsAmount() <= d.minAmount {
		return "below minimum amount"
	}
	if kw, ok := d.fees.find(txn.Description); ok {
		return "fee keyword " + kw
	}
	if kw, ok := d.withdrawal.find(txn.Description); ok {
		return "withdrawal keyword " + kw
	}
	if kw, ok := d.tax.find(txn.Description); ok {
		return "tax keyword " + kw
	}
	if kw, ok := d.savings.find(txn.Description); ok {
		return "savings keyword " + kw
	}
	if kw, ok := d.excluded.find(txn.Description); ok {
		return "excluded account " + kw
	}
	return ""
}

func (d *investmentDetector) detect(txn model.Transaction) (Detection, bool) {
	if d.excludedBy(txn) != "" {
		return Detection{}, false
	}

	hit := func(reason string) (Detection, bool) {
		return Detection{Tag: model.TagInvestments, Confidence: d.confidence, Reason: reason}, true
	}

	if kw, ok := d.keywords.find(txn.Description); ok {
		return hit(fmt.Sprintf("investment keyword %q in purchase", kw))
	}
	for _, re := range d.accounts {
		if !re.MatchString(txn.Description) {
			continue
		}
		if kw, ok := d.purchase.find(txn.Description); ok {
			return hit(fmt.Sprintf("brokerage account with purchase keyword %q", kw))
		}
	}
	if sub := normalize(txn.Subcategory); sub != "" && d.whitelist[sub] {
		return hit(fmt.Sprintf("purchase subcategory %q", txn.Subcategory))
	}
	return Detection{}, false
}

// ExclusionReason explains why a transaction can never be an investment, or returns "".
func (c *Catalog) ExclusionReason(txn model.Transaction) string {
	return c.investments.excludedBy(txn)
}
