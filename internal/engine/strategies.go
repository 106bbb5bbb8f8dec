package engine

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/tally/internal/classification"
	"github.com/Veraticus/tally/internal/model"
)

// Cascade confidences.
const (
	SpecialRuleConfidence = 1.0
	MappingConfidence     = 0.9
	ExistingTagConfidence = 0.8
	DefaultConfidence     = 0.5
)

// NoIndicatorsReason explains a fallback to Other.
const NoIndicatorsReason = "no specific indicators detected"

// categoryFor keeps a category already on the transaction and otherwise assigns one statically.
func categoryFor(catalog *classification.Catalog, txn model.Transaction) (string, string) {
	if txn.Category != "" {
		return txn.Category, txn.Subcategory
	}
	match := catalog.AssignCategory(txn)
	return match.Category, match.Subcategory
}

// SpecialRuleStrategy applies deterministic reference-format rules.
type SpecialRuleStrategy struct {
	catalog *classification.Catalog
}

// NewSpecialRuleStrategy creates the first cascade step.
func NewSpecialRuleStrategy(catalog *classification.Catalog) *SpecialRuleStrategy {
	return &SpecialRuleStrategy{catalog: catalog}
}

// Name implements Strategy.
func (s *SpecialRuleStrategy) Name() model.Source { return model.SourceSpecialRule }

// TryClassify implements Strategy.
func (s *SpecialRuleStrategy) TryClassify(txn model.Transaction) (model.Result, bool) {
	rule, ok := s.catalog.MatchSpecial(txn)
	if !ok {
		return model.Result{}, false
	}
	return model.Result{
		Tag:         rule.Tag,
		Category:    rule.Category,
		Subcategory: rule.Subcategory,
		Confidence:  SpecialRuleConfidence,
		Reason:      fmt.Sprintf("special rule %q", rule.Name),
		Source:      model.SourceSpecialRule,
	}, true
}

// LearnedRuleStrategy applies learned rules whose tag still validates against the detectors.
type LearnedRuleStrategy struct {
	catalog *classification.Catalog
	source  LearnedRuleSource
}

// NewLearnedRuleStrategy creates the learned-rule step.
func NewLearnedRuleStrategy(catalog *classification.Catalog, source LearnedRuleSource) *LearnedRuleStrategy {
	return &LearnedRuleStrategy{catalog: catalog, source: source}
}

// Name implements Strategy.
func (s *LearnedRuleStrategy) Name() model.Source { return model.SourceLearnedRule }

// TryClassify implements Strategy.
func (s *LearnedRuleStrategy) TryClassify(txn model.Transaction) (model.Result, bool) {
	// Rules learn from categorized transactions, so raw imports are matched with their
	// static category filled in.
	view := txn
	category, subcategory := categoryFor(s.catalog, txn)
	if view.Category == "" {
		view.Category, view.Subcategory = category, subcategory
	}

	match, ok := s.source.ApplyLearnedRules(view)
	if !ok {
		return model.Result{}, false
	}
	if !s.catalog.ValidateTag(match.Tag, txn) {
		slog.Debug("Learned rule rejected by tag validation",
			"rule_id", match.RuleID,
			"tag", match.Tag,
			"transaction_id", txn.ID)
		return model.Result{}, false
	}

	return model.Result{
		Tag:         match.Tag,
		Category:    category,
		Subcategory: subcategory,
		Confidence:  match.Confidence,
		Reason:      fmt.Sprintf("learned rule %s (score %.2f)", match.RuleID, match.Confidence),
		Source:      model.SourceLearnedRule,
		RuleID:      match.RuleID,
	}, true
}

// MappingStrategy applies the user's category/subcategory to tag table.
type MappingStrategy struct {
	mappings TagMapper
}

// NewMappingStrategy creates the tag-mapping step.
func NewMappingStrategy(mappings TagMapper) *MappingStrategy {
	return &MappingStrategy{mappings: mappings}
}

// Name implements Strategy.
func (s *MappingStrategy) Name() model.Source { return model.SourceTagMapping }

// TryClassify implements Strategy.
func (s *MappingStrategy) TryClassify(txn model.Transaction) (model.Result, bool) {
	if txn.Category == "" || txn.Subcategory == "" {
		return model.Result{}, false
	}
	tag, ok := s.mappings.Lookup(txn.Category, txn.Subcategory)
	if !ok {
		return model.Result{}, false
	}
	return model.Result{
		Tag:         tag,
		Category:    txn.Category,
		Subcategory: txn.Subcategory,
		Confidence:  MappingConfidence,
		Reason:      fmt.Sprintf("tag mapping %s/%s", txn.Category, txn.Subcategory),
		Source:      model.SourceTagMapping,
	}, true
}

// ExistingTagStrategy keeps a tag supplied with the transaction when it still validates.
type ExistingTagStrategy struct {
	catalog *classification.Catalog
}

// NewExistingTagStrategy creates the existing-tag step.
func NewExistingTagStrategy(catalog *classification.Catalog) *ExistingTagStrategy {
	return &ExistingTagStrategy{catalog: catalog}
}

// Name implements Strategy.
func (s *ExistingTagStrategy) Name() model.Source { return model.SourceExistingTag }

// TryClassify implements Strategy.
func (s *ExistingTagStrategy) TryClassify(txn model.Transaction) (model.Result, bool) {
	if model.IsOtherTag(txn.Tag) {
		return model.Result{}, false
	}
	if !s.catalog.ValidateTag(txn.Tag, txn) {
		slog.Debug("Discarding existing tag that fails validation",
			"tag", txn.Tag,
			"transaction_id", txn.ID)
		return model.Result{}, false
	}

	tag, _ := model.NormalizeTag(txn.Tag)
	category, subcategory := categoryFor(s.catalog, txn)
	return model.Result{
		Tag:         tag,
		Category:    category,
		Subcategory: subcategory,
		Confidence:  ExistingTagConfidence,
		Reason:      fmt.Sprintf("existing tag %s validated", tag),
		Source:      model.SourceExistingTag,
	}, true
}

// StaticStrategy assigns category and tag from the rule catalog. It always succeeds.
type StaticStrategy struct {
	catalog *classification.Catalog
}

// NewStaticStrategy creates the final cascade step.
func NewStaticStrategy(catalog *classification.Catalog) *StaticStrategy {
	return &StaticStrategy{catalog: catalog}
}

// Name implements Strategy.
func (s *StaticStrategy) Name() model.Source { return model.SourceStatic }

// TryClassify implements Strategy.
func (s *StaticStrategy) TryClassify(txn model.Transaction) (model.Result, bool) {
	match := s.catalog.AssignCategory(txn)
	category, subcategory := match.Category, match.Subcategory
	if !match.Matched && txn.Category != "" {
		category, subcategory = txn.Category, txn.Subcategory
	}

	tag, tagConfidence, reason := model.TagOther, DefaultConfidence, NoIndicatorsReason
	if d, ok := s.catalog.DetectTag(txn); ok {
		tag, tagConfidence, reason = d.Tag, d.Confidence, d.Reason
	}

	return model.Result{
		Tag:         tag,
		Category:    category,
		Subcategory: subcategory,
		Confidence:  min(tagConfidence, match.Confidence),
		Reason:      reason,
		Source:      model.SourceStatic,
	}, true
}
