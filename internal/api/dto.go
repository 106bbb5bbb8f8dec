package api

import "github.com/Veraticus/tally/internal/model"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// TransactionsResponse lists transactions.
type TransactionsResponse struct {
	Transactions []model.Transaction `json:"transactions"`
	Total        int                 `json:"total"`
}

// AddTransactionsResponse reports how many transactions were new.
type AddTransactionsResponse struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
}

// UpdateTagRequest is a manual override.
type UpdateTagRequest struct {
	Tag    string `json:"tag" binding:"required"`
	Reason string `json:"reason"`
}

// BatchResponse reports how many transactions a batch operation changed.
type BatchResponse struct {
	Changed int `json:"changed"`
}

// RulesResponse lists the current learned rules.
type RulesResponse struct {
	Rules      []model.LearnedRule `json:"rules"`
	Statistics model.Statistics    `json:"statistics"`
	Version    int                 `json:"version"`
}

// MappingRequest sets one tag mapping.
type MappingRequest struct {
	Category    string `json:"category" binding:"required"`
	Subcategory string `json:"subcategory" binding:"required"`
	Tag         string `json:"tag" binding:"required"`
}
