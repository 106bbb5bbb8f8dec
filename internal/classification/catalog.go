// Package classification holds the static rule catalog: ordered category rules,
// deterministic special rules and the per-tag detectors.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// DefaultMinInvestmentAmount is the smallest purchase, in minor units, that can count as an investment.
const DefaultMinInvestmentAmount int64 = 1000

// CategoryRule assigns a category/subcategory when Pattern matches the description.
// Catalog order matters: the first match wins.
type CategoryRule struct {
	Pattern     string
	Category    string
	Subcategory string
	Confidence  float64
}

// SpecialRule is a deterministic description match that bypasses the rest of the cascade.
type SpecialRule struct {
	Name        string
	Pattern     string
	Tag         string
	Category    string
	Subcategory string
}

// Exclusions disqualify a transaction from the investments tag before any evidence is considered.
type Exclusions struct {
	FeeKeywords        []string
	WithdrawalKeywords []string
	TaxKeywords        []string
	ExcludedAccounts   []string
	MinAmount          int64
}

// Detector describes how one tag is recognized.
type Detector struct {
	Exclusions           *Exclusions
	Tag                  string
	Keywords             []string
	AccountPatterns      []string
	SubcategoryWhitelist []string
	LiteralCategories    []string
	PurchaseKeywords     []string
	Confidence           float64
}

// Definition is the raw, uncompiled catalog.
type Definition struct {
	CategoryRules   []CategoryRule
	SpecialRules    []SpecialRule
	SpecialPatterns []string
	Savings         Detector
	Transfers       Detector
	Investments     Detector
	Income          Detector
}

// Options tune the compiled catalog.
type Options struct {
	// MinInvestmentAmount overrides the investments exclusion threshold when positive.
	MinInvestmentAmount int64
}

// CategoryMatch is the result of static category assignment.
type CategoryMatch struct {
	Category    string
	Subcategory string
	Rule        string
	Confidence  float64
	Matched     bool
}

// Detection is the result of a successful tag detector.
type Detection struct {
	Tag        string
	Reason     string
	Confidence float64
}

type compiledCategoryRule struct {
	re *regexp.Regexp
	CategoryRule
}

type compiledSpecialRule struct {
	re *regexp.Regexp
	SpecialRule
}

// Catalog is the compiled, read-only rule catalog. It is safe for concurrent use.
type Catalog struct {
	savings         *detector
	transfers       *detector
	investments     *investmentDetector
	income          *detector
	categoryRules   []compiledCategoryRule
	specialRules    []compiledSpecialRule
	specialPatterns []*regexp.Regexp
}

// NewCatalog compiles a catalog definition.
func NewCatalog(def Definition, opts Options) (*Catalog, error) {
	c := &Catalog{
		categoryRules: make([]compiledCategoryRule, 0, len(def.CategoryRules)),
		specialRules:  make([]compiledSpecialRule, 0, len(def.SpecialRules)),
	}

	for _, rule := range def.CategoryRules {
		if rule.Confidence <= 0 || rule.Confidence > 1 {
			return nil, fmt.Errorf("category rule %q: confidence %v outside (0,1]", rule.Pattern, rule.Confidence)
		}
		re, err := common.CompileInsensitive(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("category rule %s/%s: %w", rule.Category, rule.Subcategory, err)
		}
		c.categoryRules = append(c.categoryRules, compiledCategoryRule{CategoryRule: rule, re: re})
	}

	for _, rule := range def.SpecialRules {
		re, err := common.CompileInsensitive(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("special rule %s: %w", rule.Name, err)
		}
		c.specialRules = append(c.specialRules, compiledSpecialRule{SpecialRule: rule, re: re})
	}

	for _, p := range def.SpecialPatterns {
		re, err := common.CompileInsensitive(p)
		if err != nil {
			return nil, fmt.Errorf("special pattern: %w", err)
		}
		c.specialPatterns = append(c.specialPatterns, re)
	}

	var err error
	if c.savings, err = compileDetector(def.Savings); err != nil {
		return nil, err
	}
	if c.transfers, err = compileDetector(def.Transfers); err != nil {
		return nil, err
	}
	if c.income, err = compileDetector(def.Income); err != nil {
		return nil, err
	}
	if c.investments, err = compileInvestmentDetector(def.Investments, c.savings.keywords, opts); err != nil {
		return nil, err
	}

	return c, nil
}

// MustDefault compiles the built-in catalog and panics if it is broken.
func MustDefault(opts Options) *Catalog {
	c, err := NewCatalog(DefaultDefinition(), opts)
	if err != nil {
		panic(fmt.Sprintf("default catalog does not compile: %v", err))
	}
	return c
}

// AssignCategory returns the first category rule matching the description, or Other/other at 0.5.
func (c *Catalog) AssignCategory(txn model.Transaction) CategoryMatch {
	for _, rule := range c.categoryRules {
		if rule.re.MatchString(txn.Description) {
			return CategoryMatch{
				Category:    rule.Category,
				Subcategory: rule.Subcategory,
				Confidence:  rule.Confidence,
				Rule:        rule.Pattern,
				Matched:     true,
			}
		}
	}
	return CategoryMatch{Category: "Other", Subcategory: "other", Confidence: 0.5}
}

// MatchSpecial returns the first special rule matching the description.
func (c *Catalog) MatchSpecial(txn model.Transaction) (SpecialRule, bool) {
	for _, rule := range c.specialRules {
		if rule.re.MatchString(txn.Description) {
			return rule.SpecialRule, true
		}
	}
	return SpecialRule{}, false
}

// SpecialPatterns returns the regex sources that matched the description.
func (c *Catalog) SpecialPatterns(description string) []string {
	var out []string
	for _, re := range c.specialPatterns {
		if re.MatchString(description) {
			out = append(out, re.String())
		}
	}
	return out
}

// keywordSet matches whole words or phrases, case-insensitively.
type keywordSet struct {
	re    *regexp.Regexp
	words []string
}

func newKeywordSet(words []string) (*keywordSet, error) {
	ks := &keywordSet{words: words}
	if len(words) == 0 {
		return ks, nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile keywords: %w", err)
	}
	ks.re = re
	return ks, nil
}

// find returns the first keyword present in text.
func (ks *keywordSet) find(text string) (string, bool) {
	if ks == nil || ks.re == nil {
		return "", false
	}
	m := ks.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
