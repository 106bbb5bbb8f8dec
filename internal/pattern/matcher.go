package pattern

import (
	"regexp"
	"strings"
	"sync"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
)

// DefaultThreshold is the score a learned rule must exceed to be applied.
const DefaultThreshold = 0.6

// Matcher scores learned rules against transactions. It never mutates the rules.
type Matcher struct {
	compiledRegex map[string]*regexp.Regexp
	threshold     float64
	mu            sync.Mutex
}

// NewMatcher creates a matcher. A non-positive threshold selects DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{
		compiledRegex: make(map[string]*regexp.Regexp),
		threshold:     threshold,
	}
}

// Threshold returns the score a rule must exceed.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// fields holds the lower-cased transaction fields conditions are tested against.
type fields struct {
	description  string
	category     string
	subcategory  string
	counterparty string
}

func lowerFields(txn model.Transaction) fields {
	return fields{
		description:  strings.ToLower(txn.Description),
		category:     strings.ToLower(strings.TrimSpace(txn.Category)),
		subcategory:  strings.ToLower(strings.TrimSpace(txn.Subcategory)),
		counterparty: strings.ToLower(txn.Counterparty),
	}
}

// Score sums the confidence of matching conditions and divides by the total condition count.
func (m *Matcher) Score(rule model.LearnedRule, txn model.Transaction) float64 {
	return m.score(rule, lowerFields(txn))
}

func (m *Matcher) score(rule model.LearnedRule, f fields) float64 {
	if len(rule.Conditions) == 0 {
		return 0
	}
	var total float64
	for _, c := range rule.Conditions {
		if m.conditionMatches(c, f) {
			total += c.Confidence
		}
	}
	return total / float64(len(rule.Conditions))
}

func (m *Matcher) conditionMatches(c model.Condition, f fields) bool {
	value := strings.ToLower(c.Value)
	if value == "" {
		return false
	}

	switch c.Type {
	case model.ConditionPattern:
		if c.PatternType == model.PatternSpecialPattern {
			re := m.regex(c.Value)
			return re != nil && re.MatchString(f.description)
		}
		return strings.Contains(f.description, value)
	case model.ConditionCategory:
		return f.category == value
	case model.ConditionSubcategory:
		return f.subcategory == value
	case model.ConditionCounterparty:
		return f.counterparty != "" && strings.Contains(f.counterparty, value)
	}
	return false
}

// regex compiles and caches special patterns. Invalid patterns never match.
func (m *Matcher) regex(pattern string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.compiledRegex[pattern]; ok {
		return re
	}
	re, err := common.CompileInsensitive(pattern)
	if err != nil {
		common.LogDebug("Ignoring invalid learned pattern", common.Fields{"pattern": pattern, "error": err.Error()})
		re = nil
	}
	m.compiledRegex[pattern] = re
	return re
}

// Best returns the index and score of the highest-scoring rule when that score exceeds
// the threshold. Earlier rules win ties.
func (m *Matcher) Best(rules []model.LearnedRule, txn model.Transaction) (int, float64, bool) {
	f := lowerFields(txn)
	bestIdx, bestScore := -1, 0.0
	for i, rule := range rules {
		s := m.score(rule, f)
		if s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestIdx < 0 || bestScore <= m.threshold {
		return -1, bestScore, false
	}
	return bestIdx, bestScore, true
}

// SnapshotSource applies a fixed snapshot. Without an OnMatch hook it has no side effects
// and serves as a deterministic learned-rule source.
type SnapshotSource struct {
	matcher  *Matcher
	snapshot model.Snapshot

	// OnMatch, when set, is called with the ID of every rule that matches.
	OnMatch func(ruleID string)
}

// NewSnapshotSource wraps snapshot.
func NewSnapshotSource(snapshot model.Snapshot, matcher *Matcher) *SnapshotSource {
	if matcher == nil {
		matcher = NewMatcher(DefaultThreshold)
	}
	return &SnapshotSource{snapshot: snapshot, matcher: matcher}
}

// Version returns the version of the wrapped snapshot.
func (s *SnapshotSource) Version() int { return s.snapshot.Version }

// ApplyLearnedRules returns the best rule above the threshold.
func (s *SnapshotSource) ApplyLearnedRules(txn model.Transaction) (model.LearnedMatch, bool) {
	idx, score, ok := s.matcher.Best(s.snapshot.Rules, txn)
	if !ok {
		return model.LearnedMatch{}, false
	}
	rule := s.snapshot.Rules[idx]
	if s.OnMatch != nil {
		s.OnMatch(rule.ID)
	}
	return model.LearnedMatch{RuleID: rule.ID, Tag: rule.Tag, Confidence: score}, true
}
