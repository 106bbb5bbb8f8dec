package model

// Source identifies which stage of the cascade produced a result.
type Source string

// Source constants, in cascade order.
const (
	SourceSpecialRule Source = "special_rule"
	SourceLearnedRule Source = "learned_rule"
	SourceTagMapping  Source = "tag_mapping"
	SourceExistingTag Source = "existing_tag"
	SourceStatic      Source = "static"
	SourceManual      Source = "manual"
)

// Result is the outcome of classifying one transaction.
type Result struct {
	Tag         string  `json:"tag"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Reason      string  `json:"reason"`
	Source      Source  `json:"source"`
	RuleID      string  `json:"ruleId,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Apply writes the result into the transaction's output fields.
func (r Result) Apply(txn *Transaction) {
	hint := txn.SourceView()
	txn.CategoryAssigned = r.Category != hint.Category || r.Subcategory != hint.Subcategory
	txn.Tag = r.Tag
	txn.Category = r.Category
	txn.Subcategory = r.Subcategory
	txn.ClassificationConfidence = r.Confidence
	txn.ClassificationReason = r.Reason
}
