package evaluation

import (
	"math"
	"time"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

// Score turns a completed response set into a per-metric breakdown and a
// total. It is deterministic and side-effect-free: breakdown order follows
// the weight table, each answer is rescaled linearly from the 1-5 scale to
// 0-100, metric scores are unweighted means rounded half-up, and the total
// is the weighted sum of metric scores, rounded half-up and clamped to
// [0,100].
//
// A metric with no questions scores 0, and a question with no recorded
// response contributes 0. Neither case occurs once the catalog invariant and
// the Finish() gate hold, but the formula tolerates both.
func Score(category model.RelationshipCategory, responses map[string]model.AnswerScale) (breakdown []model.CategoryResult, total int) {
	questions := QuestionsFor(category)
	weights := WeightsFor(category)

	breakdown = make([]model.CategoryResult, 0, len(weights))
	weightedSum := 0.0
	for _, mw := range weights {
		sum, count := 0.0, 0
		for _, q := range questions {
			if q.Metric != mw.Key {
				continue
			}
			count++
			if v, ok := responses[q.ID]; ok {
				sum += float64(v-1) / 4 * 100
			}
		}

		score := 0
		if count > 0 {
			score = roundHalfUp(sum / float64(count))
		}
		breakdown = append(breakdown, model.CategoryResult{
			Name:   MetricLabel(mw.Key),
			Score:  score,
			Weight: mw.Weight,
		})
		weightedSum += float64(score) * mw.Weight
	}

	total = roundHalfUp(weightedSum)
	if total < 0 {
		total = 0
	} else if total > 100 {
		total = 100
	}
	return breakdown, total
}

// roundHalfUp rounds to the nearest integer with .5 going up. Inputs here
// are always non-negative.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// AssembleResult packages a finished session's scores into the immutable
// evaluation record handed to persistence and advice. Pure composition, no
// business logic.
func AssembleResult(id string, s *Session, breakdown []model.CategoryResult, total int, at time.Time) *model.EvaluationResult {
	return &model.EvaluationResult{
		ID:                   id,
		UserID:               s.UserID,
		RelationshipLabel:    s.Label,
		RelationshipCategory: s.Category,
		TotalScore:           total,
		CategoryBreakdown:    breakdown,
		Metadata:             s.Metadata,
		CreatedAt:            at,
	}
}
