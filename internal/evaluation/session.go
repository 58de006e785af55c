package evaluation

import (
	"errors"
	"fmt"
	"time"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

var (
	// ErrIncompleteAnswer rejects Next() while the current question has no
	// recorded answer. No state changes; the caller should re-prompt.
	ErrIncompleteAnswer = errors.New("current question has no recorded answer")

	// ErrIncompleteSession rejects Finish() while any question is unanswered.
	ErrIncompleteSession = errors.New("evaluation has unanswered questions")

	// ErrSessionComplete rejects any transition on a finished session; a new
	// evaluation needs a fresh session.
	ErrSessionComplete = errors.New("evaluation already completed")

	// ErrInvalidAnswer rejects answer values outside the 1-5 scale.
	ErrInvalidAnswer = errors.New("answer value outside the 1-5 scale")
)

// Session is one pass through a category's question set. It is owned by a
// single caller and holds no locks; the service layer serializes access.
// All fields are exported so a snapshot round-trips through JSON; the
// question list itself is re-derived from the static catalog.
type Session struct {
	ID        string                       `json:"id"`
	UserID    string                       `json:"userId"`
	Guest     bool                         `json:"guest"`
	Category  model.RelationshipCategory   `json:"category"`
	Label     string                       `json:"label"`
	Metadata  *model.RelationshipMetadata  `json:"metadata,omitempty"`
	Index     int                          `json:"index"`
	Responses map[string]model.AnswerScale `json:"responses"`
	Complete  bool                         `json:"complete"`
	Result    *model.EvaluationResult      `json:"result,omitempty"`
	StartedAt time.Time                    `json:"startedAt"`
}

// NewSession starts an evaluation at the first question with no responses.
// The category must already be validated.
func NewSession(id, userID string, category model.RelationshipCategory, label string, metadata *model.RelationshipMetadata, now time.Time) *Session {
	// Fail fast on an unknown category before any state exists.
	_ = QuestionsFor(category)
	return &Session{
		ID:        id,
		UserID:    userID,
		Category:  category,
		Label:     label,
		Metadata:  metadata,
		Responses: make(map[string]model.AnswerScale),
		StartedAt: now,
	}
}

// Questions returns the catalog slice driving this session.
func (s *Session) Questions() []model.Question {
	return QuestionsFor(s.Category)
}

// Current returns the question awaiting an answer.
func (s *Session) Current() model.Question {
	return s.Questions()[s.Index]
}

// CurrentAnswer returns the recorded answer for the current question, if any.
func (s *Session) CurrentAnswer() (model.AnswerScale, bool) {
	v, ok := s.Responses[s.Current().ID]
	return v, ok
}

// Answer records (or overwrites) the response for the current question.
// It does not move the pointer; advancing is a separate transition so a
// pending auto-advance can be offered and cancelled by the caller.
func (s *Session) Answer(value model.AnswerScale) error {
	if s.Complete {
		return ErrSessionComplete
	}
	if !value.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAnswer, value)
	}
	s.Responses[s.Current().ID] = value
	return nil
}

// Next moves to the following question. The current question must already be
// answered, and there must be a following question.
func (s *Session) Next() error {
	if s.Complete {
		return ErrSessionComplete
	}
	if _, ok := s.Responses[s.Current().ID]; !ok {
		return ErrIncompleteAnswer
	}
	if s.Index < len(s.Questions())-1 {
		s.Index++
	}
	return nil
}

// Previous moves back one question for review. Recorded responses are kept.
func (s *Session) Previous() error {
	if s.Complete {
		return ErrSessionComplete
	}
	if s.Index > 0 {
		s.Index--
	}
	return nil
}

// Recorded returns the responses given so far as question and answer pairs
// in catalog order, for clients re-rendering a session mid-flight.
func (s *Session) Recorded() []model.Response {
	var out []model.Response
	for _, q := range s.Questions() {
		if v, ok := s.Responses[q.ID]; ok {
			out = append(out, model.Response{QuestionID: q.ID, AnswerValue: v})
		}
	}
	return out
}

// Unanswered returns the IDs of questions that still lack a response, in
// catalog order.
func (s *Session) Unanswered() []string {
	var missing []string
	for _, q := range s.Questions() {
		if _, ok := s.Responses[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Finish gates completion: every question must have a recorded response.
// On success the session becomes terminal and the responses are scored.
func (s *Session) Finish() error {
	if s.Complete {
		return ErrSessionComplete
	}
	if len(s.Unanswered()) > 0 {
		return ErrIncompleteSession
	}
	s.Complete = true
	return nil
}

// Progress reports the answered count and the total question count.
func (s *Session) Progress() (answered, total int) {
	return len(s.Responses), len(s.Questions())
}
