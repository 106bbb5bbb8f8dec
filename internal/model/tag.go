package model

import "strings"

// Tag constants. Tags are the top-level reporting buckets.
const (
	TagIncome      = "Income"
	TagSavings     = "Savings"
	TagInvestments = "Investments"
	TagTransfers   = "Transfers"
	TagOther       = "Other"
)

// Tags lists every known tag in display order.
func Tags() []string {
	return []string{TagIncome, TagSavings, TagInvestments, TagTransfers, TagOther}
}

// NormalizeTag maps any casing of a known tag to its canonical spelling.
// The second return value is false for unknown tags.
func NormalizeTag(tag string) (string, bool) {
	trimmed := strings.TrimSpace(tag)
	for _, known := range Tags() {
		if strings.EqualFold(known, trimmed) {
			return known, true
		}
	}
	return trimmed, false
}

// IsOtherTag reports whether the tag is empty or the catch-all bucket.
func IsOtherTag(tag string) bool {
	t := strings.TrimSpace(tag)
	return t == "" || strings.EqualFold(t, TagOther)
}
