package model

import "fmt"

// RelationshipCategory selects which question set and weight table apply.
type RelationshipCategory string

const (
	CategoryRomantic RelationshipCategory = "romantic"
	CategoryFriend   RelationshipCategory = "friend"
	CategoryFamily   RelationshipCategory = "family"
)

// Categories lists every supported relationship category.
func Categories() []RelationshipCategory {
	return []RelationshipCategory{CategoryRomantic, CategoryFriend, CategoryFamily}
}

// ParseRelationshipCategory validates a client-supplied category string.
func ParseRelationshipCategory(s string) (RelationshipCategory, error) {
	switch RelationshipCategory(s) {
	case CategoryRomantic, CategoryFriend, CategoryFamily:
		return RelationshipCategory(s), nil
	}
	return "", fmt.Errorf("unknown relationship category %q", s)
}

// AnswerScale is the five-point Likert scale an evaluation answer is given on.
type AnswerScale int

const (
	StronglyDisagree AnswerScale = 1
	Disagree         AnswerScale = 2
	Neutral          AnswerScale = 3
	Agree            AnswerScale = 4
	StronglyAgree    AnswerScale = 5
)

// Valid reports whether the value lies on the scale.
func (a AnswerScale) Valid() bool {
	return a >= StronglyDisagree && a <= StronglyAgree
}
