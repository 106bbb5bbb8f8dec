package engine

import (
	"context"

	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/pattern"
)

// LearnedRuleSource finds the best learned rule for a transaction. It does not validate the tag.
type LearnedRuleSource interface {
	ApplyLearnedRules(txn model.Transaction) (model.LearnedMatch, bool)
}

// RulePinner hands out a learned-rule source fixed to one snapshot of the rules.
type RulePinner interface {
	Pin() *pattern.SnapshotSource
}

// TagMapper resolves a category/subcategory pair to a user-configured tag.
type TagMapper interface {
	Lookup(category, subcategory string) (string, bool)
}

// Learner records manual corrections.
type Learner interface {
	LearnFromAssignment(ctx context.Context, txn model.Transaction, tag string) (model.ManualAssignment, error)
	Flush(ctx context.Context)
}

// Strategy is one step of the classification cascade.
type Strategy interface {
	Name() model.Source
	TryClassify(txn model.Transaction) (model.Result, bool)
}
