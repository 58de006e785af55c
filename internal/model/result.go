package model

import "time"

// RelationshipMetadata is optional descriptive context captured at setup.
// It never influences scoring; it is passed through to persistence and to
// the advice prompt.
type RelationshipMetadata struct {
	Subtype         string `json:"subtype" bson:"subtype"`
	DurationMonths  int    `json:"durationMonths" bson:"durationMonths"`
	ClosenessLevel  int    `json:"closenessLevel" bson:"closenessLevel"` // 1-10
	LivingSituation string `json:"livingSituation" bson:"livingSituation"`
}

// CategoryResult is one sub-metric's slice of the breakdown.
type CategoryResult struct {
	Name   string  `json:"name" bson:"name"`     // display label, e.g. "Emotional Safety"
	Score  int     `json:"score" bson:"score"`   // 0-100
	Weight float64 `json:"weight" bson:"weight"` // fraction of the total, 0-1
}

// EvaluationResult is the terminal artifact of a completed session.
// It is immutable once assembled.
type EvaluationResult struct {
	ID                   string                `json:"id" bson:"_id,omitempty"`
	UserID               string                `json:"userId,omitempty" bson:"userId"`
	RelationshipLabel    string                `json:"relationshipLabel" bson:"relationshipLabel"`
	RelationshipCategory RelationshipCategory  `json:"relationshipCategory" bson:"relationshipCategory"`
	TotalScore           int                   `json:"totalScore" bson:"totalScore"`
	CategoryBreakdown    []CategoryResult      `json:"categoryBreakdown" bson:"categoryBreakdown"`
	Metadata             *RelationshipMetadata `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt            time.Time             `json:"createdAt" bson:"createdAt"`
}
