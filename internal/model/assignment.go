package model

import "time"

// PatternType is the kind of textual pattern extracted from a description.
type PatternType string

// Pattern type constants.
const (
	PatternExactWord      PatternType = "exact_word"
	PatternExactPhrase    PatternType = "exact_phrase"
	PatternSpecialPattern PatternType = "special_pattern"
)

// Pattern is a piece of text evidence pulled out of a transaction.
type Pattern struct {
	Type       PatternType `json:"type"`
	Pattern    string      `json:"pattern"`
	Confidence float64     `json:"confidence"`
}

// ManualAssignment records a user overriding a transaction's tag. Immutable once written.
type ManualAssignment struct {
	Timestamp     time.Time `json:"timestamp"`
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	Description   string    `json:"description"`
	Category      string    `json:"category,omitempty"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Counterparty  string    `json:"counterparty,omitempty"`
	AssignedTag   string    `json:"assignedTag"`
	Patterns      []Pattern `json:"patterns"`
	Amount        int64     `json:"amount"`
}
