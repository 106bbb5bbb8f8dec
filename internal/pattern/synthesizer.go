package pattern

import (
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/model"
	"github.com/google/uuid"
)

// Synthesis defaults.
const (
	DefaultMinAssignments = 2
	DefaultFrequencyFloor = 0.5
)

// SynthesizerConfig tunes rule induction.
type SynthesizerConfig struct {
	Now            func() time.Time
	NewID          func() string
	MinAssignments int
	FrequencyFloor float64
}

// Synthesizer derives one learned rule per tag from manual assignments.
type Synthesizer struct {
	now            func() time.Time
	newID          func() string
	minAssignments int
	frequencyFloor float64
}

// NewSynthesizer creates a synthesizer, filling in defaults for zero values.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	s := &Synthesizer{
		now:            cfg.Now,
		newID:          cfg.NewID,
		minAssignments: cfg.MinAssignments,
		frequencyFloor: cfg.FrequencyFloor,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.minAssignments <= 0 {
		s.minAssignments = DefaultMinAssignments
	}
	if s.frequencyFloor <= 0 {
		s.frequencyFloor = DefaultFrequencyFloor
	}
	return s
}

// MinAssignments is the evidence floor below which no rule is produced.
func (s *Synthesizer) MinAssignments() int {
	return s.minAssignments
}

// counter tracks in how many assignments each value appears.
type counter struct {
	counts map[string]int
	meta   map[string]model.Condition
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int), meta: make(map[string]model.Condition)}
}

// add counts each distinct key once per assignment.
func (c *counter) add(seen map[string]bool, key string, cond model.Condition) {
	if seen[key] {
		return
	}
	seen[key] = true
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
		c.meta[key] = cond
	}
	c.counts[key]++
}

// Synthesize builds a learned rule for tag from the assignments carrying that tag.
// It returns false when there is too little evidence or no value is frequent enough.
func (s *Synthesizer) Synthesize(tag string, assignments []model.ManualAssignment) (model.LearnedRule, bool) {
	var matching []model.ManualAssignment
	for _, a := range assignments {
		if strings.EqualFold(a.AssignedTag, tag) {
			matching = append(matching, a)
		}
	}
	n := len(matching)
	if n < s.minAssignments {
		return model.LearnedRule{}, false
	}

	c := newCounter()
	for _, a := range matching {
		seen := make(map[string]bool)
		for _, p := range a.Patterns {
			value := strings.ToLower(p.Pattern)
			if p.Type == model.PatternSpecialPattern {
				value = p.Pattern
			}
			c.add(seen, "p:"+string(p.Type)+":"+value, model.Condition{
				Type:        model.ConditionPattern,
				PatternType: p.Type,
				Value:       value,
				Confidence:  BaseConfidence(p.Type),
			})
		}
		if v := normalizedValue(a.Category); v != "" {
			c.add(seen, "c:"+v, model.Condition{Type: model.ConditionCategory, Value: v, Confidence: CategoryConfidence})
		}
		if v := normalizedValue(a.Subcategory); v != "" {
			c.add(seen, "s:"+v, model.Condition{Type: model.ConditionSubcategory, Value: v, Confidence: SubcategoryConfidence})
		}
		if v := normalizedValue(a.Counterparty); v != "" {
			c.add(seen, "r:"+v, model.Condition{Type: model.ConditionCounterparty, Value: v, Confidence: CounterpartyConfidence})
		}
	}

	var conditions []model.Condition
	var sum float64
	for _, key := range c.order {
		frequency := float64(c.counts[key]) / float64(n)
		if frequency <= s.frequencyFloor {
			continue
		}
		cond := c.meta[key]
		cond.Frequency = frequency
		cond.Confidence *= frequency
		conditions = append(conditions, cond)
		sum += cond.Confidence
	}
	if len(conditions) == 0 {
		return model.LearnedRule{}, false
	}

	sort.SliceStable(conditions, func(i, j int) bool {
		return conditionRank(conditions[i].Type) < conditionRank(conditions[j].Type)
	})

	canonical, _ := model.NormalizeTag(tag)
	return model.LearnedRule{
		ID:               s.newID(),
		Tag:              canonical,
		Conditions:       conditions,
		Confidence:       sum / float64(len(conditions)),
		AssignmentsCount: n,
		CreatedAt:        s.now(),
	}, true
}

// SynthesizeAll re-derives rules for every tag with enough assignments. Tags whose
// synthesis yields nothing keep their previous rule.
func (s *Synthesizer) SynthesizeAll(previous []model.LearnedRule, assignments []model.ManualAssignment) []model.LearnedRule {
	byTag := make(map[string]model.LearnedRule, len(previous))
	for _, r := range previous {
		byTag[r.Tag] = r
	}

	counts := make(map[string]int)
	for _, a := range assignments {
		tag, _ := model.NormalizeTag(a.AssignedTag)
		counts[tag]++
	}

	tags := make([]string, 0, len(counts))
	for tag, count := range counts {
		if count >= s.minAssignments {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	for _, tag := range tags {
		if rule, ok := s.Synthesize(tag, assignments); ok {
			byTag[rule.Tag] = rule
		}
	}

	rules := make([]model.LearnedRule, 0, len(byTag))
	for _, r := range byTag {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Tag < rules[j].Tag })
	return rules
}

func normalizedValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func conditionRank(t model.ConditionType) int {
	switch t {
	case model.ConditionPattern:
		return 0
	case model.ConditionCategory:
		return 1
	case model.ConditionSubcategory:
		return 2
	default:
		return 3
	}
}
