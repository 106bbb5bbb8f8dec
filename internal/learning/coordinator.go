package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/pattern"
	"github.com/Veraticus/tally/internal/service"
	"github.com/google/uuid"
)

// Config holds the tuning knobs for learning.
type Config struct {
	Now            func() time.Time
	NewID          func() string
	Special        pattern.SpecialPatternSource
	MinAssignments int
	FrequencyFloor float64
	Threshold      float64
}

// Coordinator owns the ledger, the learned rules and their statistics.
type Coordinator struct {
	store       service.Store
	extractor   *pattern.Extractor
	synthesizer *pattern.Synthesizer
	matcher     *pattern.Matcher
	now         func() time.Time
	newID       func() string
	ledger      Ledger
	rules       []model.LearnedRule
	stats       model.Statistics
	version     int
	mu          sync.Mutex
}

// NewCoordinator creates a coordinator backed by store. store may be nil for purely
// in-memory learning.
func NewCoordinator(store service.Store, cfg Config) *Coordinator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Coordinator{
		store:     store,
		extractor: pattern.NewExtractor(cfg.Special),
		synthesizer: pattern.NewSynthesizer(pattern.SynthesizerConfig{
			Now:            cfg.Now,
			NewID:          cfg.NewID,
			MinAssignments: cfg.MinAssignments,
			FrequencyFloor: cfg.FrequencyFloor,
		}),
		matcher: pattern.NewMatcher(cfg.Threshold),
		now:     cfg.Now,
		newID:   cfg.NewID,
		stats:   emptyStatistics(),
	}
}

func emptyStatistics() model.Statistics {
	return model.Statistics{AssignmentsByTag: make(map[string]int)}
}

// Load restores persisted learning state. Missing or unreadable keys leave that part empty.
func (c *Coordinator) Load(ctx context.Context) {
	if c.store == nil {
		return
	}

	var assignments []model.ManualAssignment
	var rules []model.LearnedRule
	stats := emptyStatistics()

	c.load(ctx, service.KeyAssignments, &assignments)
	c.load(ctx, service.KeyLearnedRules, &rules)
	c.load(ctx, service.KeyStatistics, &stats)
	if stats.AssignmentsByTag == nil {
		stats.AssignmentsByTag = make(map[string]int)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger.reset(assignments)
	c.rules = rules
	c.stats = stats
	c.version++

	slog.Info("Loaded learning state",
		"assignments", len(assignments),
		"rules", len(rules),
		"version", c.version)
}

func (c *Coordinator) load(ctx context.Context, key string, dst any) {
	data, found, err := c.store.Load(ctx, key)
	if err != nil {
		common.LogWarn(err, "Failed to load learning state", common.Fields{"key": key})
		return
	}
	if !found {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		common.LogWarn(err, "Ignoring corrupt learning state", common.Fields{"key": key})
	}
}

// LearnFromAssignment records a manual correction and re-synthesizes every tag that has
// enough evidence.
func (c *Coordinator) LearnFromAssignment(ctx context.Context, txn model.Transaction, tag string) (model.ManualAssignment, error) {
	canonical, ok := model.NormalizeTag(tag)
	if !ok {
		return model.ManualAssignment{}, fmt.Errorf("%w: %q", common.ErrInvalidTag, tag)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	assignment := model.ManualAssignment{
		ID:            c.newID(),
		Timestamp:     c.now(),
		TransactionID: txn.ID,
		Description:   txn.Description,
		Category:      txn.Category,
		Subcategory:   txn.Subcategory,
		Counterparty:  txn.Counterparty,
		Amount:        txn.Amount,
		AssignedTag:   canonical,
		Patterns:      c.extractor.Extract(txn),
	}

	c.ledger.Append(assignment)
	c.stats.TotalAssignments = c.ledger.Len()
	c.stats.AssignmentsByTag = c.ledger.CountByTag()
	c.persist(ctx, service.KeyAssignments, c.ledger.entries)

	c.resynthesize()
	c.persist(ctx, service.KeyLearnedRules, c.rules)
	c.persist(ctx, service.KeyStatistics, c.stats)

	slog.Debug("Recorded manual assignment",
		"transaction_id", txn.ID,
		"tag", canonical,
		"patterns", len(assignment.Patterns))

	return assignment, nil
}

// resynthesize must be called with c.mu held.
func (c *Coordinator) resynthesize() {
	previous := make(map[string]string, len(c.rules))
	for _, r := range c.rules {
		previous[r.Tag] = r.ID
	}

	rules := c.synthesizer.SynthesizeAll(c.rules, c.ledger.entries)

	produced := 0
	for _, r := range rules {
		if previous[r.Tag] != r.ID {
			produced++
		}
	}
	c.rules = rules
	if produced == 0 {
		return
	}

	now := c.now()
	c.stats.RulesGenerated += produced
	c.stats.LastSynthesisAt = &now
	c.version++

	slog.Info("Synthesized learned rules", "produced", produced, "total", len(rules), "version", c.version)
}

// ApplyLearnedRules returns the best learned rule scoring above the threshold and records
// its usage. It does not validate the tag.
func (c *Coordinator) ApplyLearnedRules(txn model.Transaction) (model.LearnedMatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, score, ok := c.matcher.Best(c.rules, txn)
	if !ok {
		return model.LearnedMatch{}, false
	}

	now := c.now()
	rule := &c.rules[idx]
	rule.LastUsed = &now
	rule.UsageCount++
	c.stats.LearnedRuleHits++

	return model.LearnedMatch{RuleID: rule.ID, Tag: rule.Tag, Confidence: score}, true
}

// Pin returns a learned-rule source fixed to the current snapshot, so a batch sees one
// consistent rule set even if rules are re-synthesized or imported meanwhile. Matches still
// record usage on any pinned rule the coordinator still holds.
func (c *Coordinator) Pin() *pattern.SnapshotSource {
	src := pattern.NewSnapshotSource(c.Snapshot(), c.matcher)
	src.OnMatch = c.recordUsage
	return src
}

func (c *Coordinator) recordUsage(ruleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rules {
		if c.rules[i].ID != ruleID {
			continue
		}
		now := c.now()
		c.rules[i].LastUsed = &now
		c.rules[i].UsageCount++
		c.stats.LearnedRuleHits++
		return
	}
}

// Flush persists rule usage and statistics accumulated by ApplyLearnedRules.
func (c *Coordinator) Flush(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persist(ctx, service.KeyLearnedRules, c.rules)
	c.persist(ctx, service.KeyStatistics, c.stats)
}

// Snapshot returns a copy of the current rules with their version.
func (c *Coordinator) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Snapshot{Version: c.version, Rules: copyRules(c.rules)}
}

// Assignments returns a copy of the ledger.
func (c *Coordinator) Assignments() []model.ManualAssignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.All()
}

// Statistics returns a copy of the learning statistics.
func (c *Coordinator) Statistics() model.Statistics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyStatistics(c.stats)
}

// ExportLearnedRules produces the full-state JSON document.
func (c *Coordinator) ExportLearnedRules() ([]byte, error) {
	c.mu.Lock()
	export := model.Export{
		ExportedAt:  c.now().UTC(),
		Statistics:  copyStatistics(c.stats),
		Rules:       copyRules(c.rules),
		Assignments: c.ledger.All(),
	}
	c.mu.Unlock()

	if export.Rules == nil {
		export.Rules = []model.LearnedRule{}
	}
	if export.Assignments == nil {
		export.Assignments = []model.ManualAssignment{}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode learning export: %w", err)
	}
	return data, nil
}

// ImportLearnedRules replaces the whole learning state with an exported document.
// Nothing changes when the document is invalid.
func (c *Coordinator) ImportLearnedRules(ctx context.Context, data []byte) error {
	var export model.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidSnapshot, err)
	}
	if err := validateExport(&export); err != nil {
		return err
	}
	if export.Statistics.AssignmentsByTag == nil {
		export.Statistics.AssignmentsByTag = make(map[string]int)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.reset(export.Assignments)
	c.rules = export.Rules
	c.stats = export.Statistics
	c.version++

	c.persist(ctx, service.KeyAssignments, c.ledger.entries)
	c.persist(ctx, service.KeyLearnedRules, c.rules)
	c.persist(ctx, service.KeyStatistics, c.stats)

	slog.Info("Imported learning state",
		"assignments", c.ledger.Len(),
		"rules", len(c.rules),
		"version", c.version)
	return nil
}

func validateExport(export *model.Export) error {
	seen := make(map[string]bool, len(export.Rules))
	for i := range export.Rules {
		rule := &export.Rules[i]
		tag, ok := model.NormalizeTag(rule.Tag)
		if !ok {
			return fmt.Errorf("%w: rule %q has unknown tag %q", common.ErrInvalidSnapshot, rule.ID, rule.Tag)
		}
		if seen[tag] {
			return fmt.Errorf("%w: more than one rule for tag %s", common.ErrInvalidSnapshot, tag)
		}
		seen[tag] = true
		rule.Tag = tag

		for _, cond := range rule.Conditions {
			switch cond.Type {
			case model.ConditionPattern, model.ConditionCategory, model.ConditionSubcategory, model.ConditionCounterparty:
			default:
				return fmt.Errorf("%w: rule %q has condition type %q", common.ErrInvalidSnapshot, rule.ID, cond.Type)
			}
			if strings.TrimSpace(cond.Value) == "" {
				return fmt.Errorf("%w: rule %q has an empty condition", common.ErrInvalidSnapshot, rule.ID)
			}
		}
	}

	for i := range export.Assignments {
		a := &export.Assignments[i]
		tag, ok := model.NormalizeTag(a.AssignedTag)
		if !ok {
			return fmt.Errorf("%w: assignment %q has unknown tag %q", common.ErrInvalidSnapshot, a.ID, a.AssignedTag)
		}
		a.AssignedTag = tag
	}
	return nil
}

// ClearLearnedData wipes the ledger, the rules and the statistics.
func (c *Coordinator) ClearLearnedData(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger.reset(nil)
	c.rules = nil
	c.stats = emptyStatistics()
	c.version++

	if c.store == nil {
		return
	}
	for _, key := range []string{service.KeyAssignments, service.KeyLearnedRules, service.KeyStatistics} {
		if err := c.store.Delete(ctx, key); err != nil {
			common.LogWarn(err, "Failed to clear learning state", common.Fields{"key": key})
		}
	}
	slog.Info("Cleared learning state", "version", c.version)
}

// persist writes value under key. Failures are logged and the in-memory state stays authoritative.
func (c *Coordinator) persist(ctx context.Context, key string, value any) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		common.LogWarn(err, "Failed to encode learning state", common.Fields{"key": key})
		return
	}
	if err := c.store.Persist(ctx, key, data); err != nil {
		common.LogWarn(err, "Failed to persist learning state", common.Fields{"key": key})
	}
}

func copyRules(rules []model.LearnedRule) []model.LearnedRule {
	if rules == nil {
		return nil
	}
	out := make([]model.LearnedRule, len(rules))
	for i, r := range rules {
		r.Conditions = append([]model.Condition(nil), r.Conditions...)
		if r.LastUsed != nil {
			t := *r.LastUsed
			r.LastUsed = &t
		}
		out[i] = r
	}
	return out
}

func copyStatistics(s model.Statistics) model.Statistics {
	byTag := make(map[string]int, len(s.AssignmentsByTag))
	for k, v := range s.AssignmentsByTag {
		byTag[k] = v
	}
	s.AssignmentsByTag = byTag
	if s.LastSynthesisAt != nil {
		t := *s.LastSynthesisAt
		s.LastSynthesisAt = &t
	}
	return s
}
