package model

import "time"

// ConditionType is the kind of evidence a learned condition tests.
type ConditionType string

// Condition type constants.
const (
	ConditionPattern      ConditionType = "pattern"
	ConditionCategory     ConditionType = "category"
	ConditionSubcategory  ConditionType = "subcategory"
	ConditionCounterparty ConditionType = "counterparty"
)

// Condition is one piece of evidence inside a learned rule.
// PatternType is only set for pattern conditions.
type Condition struct {
	Type        ConditionType `json:"type"`
	PatternType PatternType   `json:"patternType,omitempty"`
	Value       string        `json:"value"`
	Confidence  float64       `json:"confidence"`
	Frequency   float64       `json:"frequency"`
}

// LearnedRule is synthesized from repeated manual corrections. There is at most one per tag.
type LearnedRule struct {
	CreatedAt        time.Time   `json:"createdAt"`
	LastUsed         *time.Time  `json:"lastUsed,omitempty"`
	ID               string      `json:"id"`
	Tag              string      `json:"tag"`
	Conditions       []Condition `json:"conditions"`
	Confidence       float64     `json:"confidence"`
	AssignmentsCount int         `json:"assignmentsCount"`
	UsageCount       int         `json:"usageCount"`
}

// LearnedMatch is the best learned rule for a transaction.
type LearnedMatch struct {
	RuleID     string
	Tag        string
	Confidence float64
}
