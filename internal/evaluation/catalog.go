// Package evaluation holds the scoring core: the static question catalog and
// weight tables, the session state machine, and the pure scoring engine.
// Nothing in this package performs I/O.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

// weightTolerance is how far a category's weights may drift from 1.0.
const weightTolerance = 1e-6

// questionCatalog maps each relationship category to its fixed, ordered
// question list. Read-only after process start.
var questionCatalog = map[model.RelationshipCategory][]model.Question{
	model.CategoryRomantic: {
		{ID: "r1", Text: "We communicate openly about our needs and desires.", Metric: "communication", Weight: 1},
		{ID: "r2", Text: "I feel I can share my vulnerabilities without judgment.", Metric: "emotional_safety", Weight: 1},
		{ID: "r3", Text: "There is consistent honesty between us.", Metric: "trust", Weight: 1},
		{ID: "r4", Text: "Both of us put in equal effort to sustain the relationship.", Metric: "effort", Weight: 1},
		{ID: "r5", Text: "We resolve disagreements constructively rather than placing blame.", Metric: "conflict_handling", Weight: 1},
		{ID: "r6", Text: "Our long-term goals and values are largely compatible.", Metric: "future_alignment", Weight: 1},
		{ID: "r7", Text: "I feel safe being my true self around them.", Metric: "emotional_safety", Weight: 1},
		{ID: "r8", Text: "They respect my personal boundaries consistently.", Metric: "trust", Weight: 1},
	},
	model.CategoryFriend: {
		{ID: "f1", Text: "I can rely on them when I am in a difficult situation.", Metric: "trust", Weight: 1},
		{ID: "f2", Text: "Our conversations are meaningful and balanced.", Metric: "communication", Weight: 1},
		{ID: "f3", Text: "They show respect for my time and commitments.", Metric: "respect", Weight: 1},
		{ID: "f4", Text: "I feel emotionally secure and supported in this friendship.", Metric: "emotional_safety", Weight: 1},
		{ID: "f5", Text: "We handle disagreements with maturity and understanding.", Metric: "conflict_handling", Weight: 1},
		{ID: "f6", Text: "They celebrate my successes without envy.", Metric: "respect", Weight: 1},
		{ID: "f7", Text: "I trust them with my private thoughts.", Metric: "trust", Weight: 1},
	},
	model.CategoryFamily: {
		{ID: "fa1", Text: "There is a baseline of mutual respect in our interactions.", Metric: "respect", Weight: 1},
		{ID: "fa2", Text: "I can talk to them about family matters without fear of retaliation.", Metric: "communication", Weight: 1},
		{ID: "fa3", Text: "They provide emotional or practical support when needed.", Metric: "support", Weight: 1},
		{ID: "fa4", Text: "I feel emotionally safe within the family dynamic.", Metric: "emotional_safety", Weight: 1},
		{ID: "fa5", Text: "Conflicts are managed with a goal of resolution, not control.", Metric: "conflict_handling", Weight: 1},
		{ID: "fa6", Text: "My individual identity is respected by them.", Metric: "respect", Weight: 1},
		{ID: "fa7", Text: "We have clear and healthy boundaries.", Metric: "support", Weight: 1},
	},
}

// weightTable maps each relationship category to its ordered sub-metric
// weights. Slice order fixes the order of the result breakdown.
var weightTable = map[model.RelationshipCategory][]model.MetricWeight{
	model.CategoryRomantic: {
		{Key: "communication", Weight: 0.25},
		{Key: "trust", Weight: 0.25},
		{Key: "emotional_safety", Weight: 0.20},
		{Key: "effort", Weight: 0.15},
		{Key: "conflict_handling", Weight: 0.10},
		{Key: "future_alignment", Weight: 0.05},
	},
	model.CategoryFriend: {
		{Key: "communication", Weight: 0.25},
		{Key: "trust", Weight: 0.30},
		{Key: "emotional_safety", Weight: 0.20},
		{Key: "respect", Weight: 0.15},
		{Key: "conflict_handling", Weight: 0.10},
	},
	model.CategoryFamily: {
		{Key: "respect", Weight: 0.30},
		{Key: "communication", Weight: 0.20},
		{Key: "emotional_safety", Weight: 0.20},
		{Key: "support", Weight: 0.20},
		{Key: "conflict_handling", Weight: 0.10},
	},
}

// QuestionsFor returns the fixed question list for a category. Requesting an
// unknown category is a programming error and panics; client input must be
// validated with model.ParseRelationshipCategory before reaching here.
func QuestionsFor(category model.RelationshipCategory) []model.Question {
	qs, ok := questionCatalog[category]
	if !ok {
		panic(fmt.Sprintf("evaluation: no question catalog for category %q", category))
	}
	return qs
}

// WeightsFor returns the ordered sub-metric weights for a category. Panics on
// an unknown category, like QuestionsFor.
func WeightsFor(category model.RelationshipCategory) []model.MetricWeight {
	ws, ok := weightTable[category]
	if !ok {
		panic(fmt.Sprintf("evaluation: no weight table for category %q", category))
	}
	return ws
}

// ValidateCatalog cross-checks the catalog and weight table. Called once at
// startup; any violation is a build defect, so callers should treat an error
// as fatal.
func ValidateCatalog() error {
	for _, category := range model.Categories() {
		questions, ok := questionCatalog[category]
		if !ok || len(questions) == 0 {
			return fmt.Errorf("category %q has no questions", category)
		}
		weights, ok := weightTable[category]
		if !ok || len(weights) == 0 {
			return fmt.Errorf("category %q has no weight table", category)
		}

		sum := 0.0
		weighted := make(map[string]bool, len(weights))
		for _, w := range weights {
			if weighted[w.Key] {
				return fmt.Errorf("category %q repeats metric %q in its weight table", category, w.Key)
			}
			weighted[w.Key] = true
			sum += w.Weight
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return fmt.Errorf("category %q weights sum to %v, want 1.0", category, sum)
		}

		asked := make(map[string]bool)
		for _, q := range questions {
			if !weighted[q.Metric] {
				return fmt.Errorf("question %q uses metric %q missing from the %q weight table", q.ID, q.Metric, category)
			}
			asked[q.Metric] = true
		}
		for key := range weighted {
			if !asked[key] {
				return fmt.Errorf("metric %q in the %q weight table has no questions", key, category)
			}
		}
	}

	// Question IDs must be unique across all categories; persisted responses
	// reference them.
	seen := make(map[string]model.RelationshipCategory)
	for category, questions := range questionCatalog {
		for _, q := range questions {
			if prev, dup := seen[q.ID]; dup {
				return fmt.Errorf("question id %q appears in both %q and %q", q.ID, prev, category)
			}
			seen[q.ID] = category
		}
	}
	return nil
}

// MetricLabel derives the display label for a sub-metric key:
// "emotional_safety" -> "Emotional Safety".
func MetricLabel(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// ScoreBand classifies a total score into a qualitative band.
func ScoreBand(total int) string {
	switch {
	case total >= 80:
		return "Strong and Healthy"
	case total >= 60:
		return "Fair but Needs Work"
	case total >= 40:
		return "Strained"
	default:
		return "Unhealthy"
	}
}
