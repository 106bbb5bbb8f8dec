package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// detector is a compiled keyword/account/subcategory predicate for one tag.
type detector struct {
	keywords   *keywordSet
	literals   map[string]bool
	whitelist  map[string]bool
	tag        string
	accounts   []*regexp.Regexp
	confidence float64
	inflowOnly bool
}

func compileDetector(def Detector) (*detector, error) {
	keywords, err := newKeywordSet(def.Keywords)
	if err != nil {
		return nil, fmt.Errorf("%s detector: %w", def.Tag, err)
	}
	d := &detector{
		tag:        def.Tag,
		keywords:   keywords,
		confidence: def.Confidence,
		whitelist:  lowerSet(def.SubcategoryWhitelist),
		literals:   lowerSet(def.LiteralCategories),
		inflowOnly: def.Tag == model.TagIncome,
	}
	for _, p := range def.AccountPatterns {
		re, err := common.CompileInsensitive(p)
		if err != nil {
			return nil, fmt.Errorf("%s detector: %w", def.Tag, err)
		}
		d.accounts = append(d.accounts, re)
	}
	return d, nil
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[normalize(v)] = true
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// detect runs the keyword, account and subcategory checks.
func (d *detector) detect(txn model.Transaction) (Detection, bool) {
	if d.inflowOnly {
		if !txn.IsInflow() {
			return Detection{}, false
		}
		if kw, ok := d.keywords.find(txn.Description); ok {
			return d.hit(fmt.Sprintf("positive amount with income keyword %q", kw)), true
		}
		return Detection{}, false
	}

	if kw, ok := d.keywords.find(txn.Description); ok {
		return d.hit(fmt.Sprintf("%s keyword %q in description", strings.ToLower(d.tag), kw)), true
	}
	for _, re := range d.accounts {
		if re.MatchString(txn.Description) {
			return d.hit(fmt.Sprintf("%s account pattern %s", strings.ToLower(d.tag), re.String())), true
		}
	}
	sub := normalize(txn.Subcategory)
	if sub != "" && d.whitelist[sub] {
		return d.hit(fmt.Sprintf("subcategory %q", txn.Subcategory)), true
	}
	cat := normalize(txn.Category)
	if (cat != "" && d.literals[cat]) || (sub != "" && d.literals[sub]) {
		return d.hit(fmt.Sprintf("category %q/%q", txn.Category, txn.Subcategory)), true
	}
	return Detection{}, false
}

func (d *detector) hit(reason string) Detection {
	return Detection{Tag: d.tag, Confidence: d.confidence, Reason: reason}
}

// DetectTag evaluates the detectors in fixed order: savings, transfers, investments, income.
// The second return value is false when no detector fires.
func (c *Catalog) DetectTag(txn model.Transaction) (Detection, bool) {
	if d, ok := c.savings.detect(txn); ok {
		return d, true
	}
	if d, ok := c.transfers.detect(txn); ok {
		return d, true
	}
	if d, ok := c.investments.detect(txn); ok {
		return d, true
	}
	if d, ok := c.income.detect(txn); ok {
		return d, true
	}
	return Detection{}, false
}

// ValidateTag reports whether tag is consistent with the detector for that tag.
// The catch-all Other tag always validates; unknown tags never do.
func (c *Catalog) ValidateTag(tag string, txn model.Transaction) bool {
	canonical, known := model.NormalizeTag(tag)
	if !known {
		return false
	}

	var ok bool
	switch canonical {
	case model.TagSavings:
		_, ok = c.savings.detect(txn)
	case model.TagTransfers:
		_, ok = c.transfers.detect(txn)
	case model.TagInvestments:
		_, ok = c.investments.detect(txn)
	case model.TagIncome:
		_, ok = c.income.detect(txn)
	case model.TagOther:
		ok = true
	}
	return ok
}

// IsInvestment exposes the two-gate investments predicate.
func (c *Catalog) IsInvestment(txn model.Transaction) bool {
	_, ok := c.investments.detect(txn)
	return ok
}
