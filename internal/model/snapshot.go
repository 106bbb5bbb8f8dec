package model

import "time"

// Statistics summarizes the learning state.
type Statistics struct {
	LastSynthesisAt  *time.Time     `json:"lastSynthesisAt,omitempty"`
	AssignmentsByTag map[string]int `json:"assignmentsByTag"`
	TotalAssignments int            `json:"totalAssignments"`
	RulesGenerated   int            `json:"rulesGenerated"`
	LearnedRuleHits  int            `json:"learnedRuleHits"`
}

// Snapshot is a versioned, immutable view of the learned rules handed to the classifier.
type Snapshot struct {
	Rules   []LearnedRule
	Version int
}

// Export is the full-state document produced by export and consumed by import.
type Export struct {
	ExportedAt  time.Time          `json:"exportedAt"`
	Statistics  Statistics         `json:"statistics"`
	Rules       []LearnedRule      `json:"rules"`
	Assignments []ManualAssignment `json:"assignments"`
}
