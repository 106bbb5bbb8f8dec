package engine

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/classification"
	"github.com/Veraticus/tally/internal/model"
)

// Classifier runs the cascade: special rules, learned rules, tag mappings, existing tag,
// then the static catalog. The first strategy that returns a result wins.
type Classifier struct {
	catalog    *classification.Catalog
	strategies []Strategy
}

// NewClassifier builds the standard cascade. learned and mappings may be nil, in which case
// their steps are left out.
func NewClassifier(catalog *classification.Catalog, learned LearnedRuleSource, mappings TagMapper) *Classifier {
	strategies := []Strategy{NewSpecialRuleStrategy(catalog)}
	if learned != nil {
		strategies = append(strategies, NewLearnedRuleStrategy(catalog, learned))
	}
	if mappings != nil {
		strategies = append(strategies, NewMappingStrategy(mappings))
	}
	strategies = append(strategies,
		NewExistingTagStrategy(catalog),
		NewStaticStrategy(catalog),
	)
	return NewClassifierWithStrategies(catalog, strategies...)
}

// NewClassifierWithStrategies builds a cascade from an explicit strategy list.
func NewClassifierWithStrategies(catalog *classification.Catalog, strategies ...Strategy) *Classifier {
	return &Classifier{catalog: catalog, strategies: strategies}
}

// Strategies returns the cascade in evaluation order.
func (c *Classifier) Strategies() []Strategy {
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// Pinned returns a classifier whose learned-rule step reads one fixed snapshot. When the
// learned source cannot be pinned the receiver is returned unchanged.
func (c *Classifier) Pinned() *Classifier {
	for i, s := range c.strategies {
		learned, ok := s.(*LearnedRuleStrategy)
		if !ok {
			continue
		}
		pinner, ok := learned.source.(RulePinner)
		if !ok {
			return c
		}
		src := pinner.Pin()
		slog.Debug("Pinned learned rules", "version", src.Version())
		strategies := c.Strategies()
		strategies[i] = NewLearnedRuleStrategy(learned.catalog, src)
		return NewClassifierWithStrategies(c.catalog, strategies...)
	}
	return c
}

// Classify returns a result for txn. It never fails: when no strategy applies the
// transaction is tagged Other.
func (c *Classifier) Classify(txn model.Transaction) (result model.Result) {
	txn = txn.SourceView()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Classification strategy panicked",
				"transaction_id", txn.ID,
				"panic", fmt.Sprint(r))
			result = fallback(txn, "classification failed")
		}
	}()

	for _, s := range c.strategies {
		res, ok := s.TryClassify(txn)
		if !ok {
			continue
		}
		if res.Tag == "" {
			res.Tag = model.TagOther
		}
		// The investments exclusion gate is absolute, whichever step proposed the tag.
		if res.Tag == model.TagInvestments && c.catalog != nil {
			if reason := c.catalog.ExclusionReason(txn); reason != "" {
				slog.Debug("Investments tag excluded",
					"source", s.Name(),
					"transaction_id", txn.ID,
					"reason", reason)
				continue
			}
		}
		if res.Source == "" {
			res.Source = s.Name()
		}
		return res
	}

	return fallback(txn, NoIndicatorsReason)
}

func fallback(txn model.Transaction, reason string) model.Result {
	category, subcategory := txn.Category, txn.Subcategory
	if category == "" {
		category, subcategory = "Other", "other"
	}
	return model.Result{
		Tag:         model.TagOther,
		Category:    category,
		Subcategory: subcategory,
		Confidence:  DefaultConfidence,
		Reason:      reason,
		Source:      model.SourceStatic,
	}
}
