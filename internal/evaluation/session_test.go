package evaluation

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession("sess-1", "user-1", model.CategoryFriend, "Sam", nil, time.Now())
}

func TestSessionStartsAtFirstQuestion(t *testing.T) {
	s := newTestSession(t)
	if s.Index != 0 {
		t.Errorf("Index = %d, want 0", s.Index)
	}
	if s.Current().ID != "f1" {
		t.Errorf("Current().ID = %q, want %q", s.Current().ID, "f1")
	}
	answered, total := s.Progress()
	if answered != 0 || total != 7 {
		t.Errorf("Progress() = (%d, %d), want (0, 7)", answered, total)
	}
}

func TestNextRequiresAnswer(t *testing.T) {
	s := newTestSession(t)

	if err := s.Next(); !errors.Is(err, ErrIncompleteAnswer) {
		t.Fatalf("Next() on unanswered question = %v, want ErrIncompleteAnswer", err)
	}
	if s.Index != 0 {
		t.Errorf("failed Next() moved the pointer to %d", s.Index)
	}

	if err := s.Answer(model.Agree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next() after answering = %v", err)
	}
	if s.Index != 1 {
		t.Errorf("Index = %d, want 1", s.Index)
	}
}

func TestAnswerLastWriteWins(t *testing.T) {
	s := newTestSession(t)
	if err := s.Answer(model.Disagree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}
	if err := s.Answer(model.StronglyAgree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}
	if got := s.Responses["f1"]; got != model.StronglyAgree {
		t.Errorf("response for f1 = %d, want %d", got, model.StronglyAgree)
	}
	if answered, _ := s.Progress(); answered != 1 {
		t.Errorf("answered = %d, want 1 (overwrite, not append)", answered)
	}
}

func TestAnswerRejectsOffScaleValues(t *testing.T) {
	s := newTestSession(t)
	for _, v := range []model.AnswerScale{0, 6, -1} {
		if err := s.Answer(v); !errors.Is(err, ErrInvalidAnswer) {
			t.Errorf("Answer(%d) = %v, want ErrInvalidAnswer", v, err)
		}
	}
	if len(s.Responses) != 0 {
		t.Errorf("rejected answers were recorded: %v", s.Responses)
	}
}

func TestPreviousPreservesResponses(t *testing.T) {
	s := newTestSession(t)
	s.Answer(model.Agree)
	s.Next()
	s.Answer(model.Neutral)

	if err := s.Previous(); err != nil {
		t.Fatalf("Previous() = %v", err)
	}
	if s.Index != 0 {
		t.Errorf("Index = %d, want 0", s.Index)
	}
	if v, ok := s.CurrentAnswer(); !ok || v != model.Agree {
		t.Errorf("CurrentAnswer() = (%d, %v), want (4, true)", v, ok)
	}
	if s.Responses["f2"] != model.Neutral {
		t.Error("Previous() discarded the answer for f2")
	}

	// Previous at the first question is a no-op.
	if err := s.Previous(); err != nil {
		t.Fatalf("Previous() at index 0 = %v", err)
	}
	if s.Index != 0 {
		t.Errorf("Index = %d, want 0", s.Index)
	}
}

func TestRecordedFollowsCatalogOrder(t *testing.T) {
	s := newTestSession(t)
	s.Answer(model.Agree)
	s.Next()
	s.Answer(model.Neutral)
	s.Previous()
	s.Answer(model.StronglyAgree) // overwrite f1

	want := []model.Response{
		{QuestionID: "f1", AnswerValue: model.StronglyAgree},
		{QuestionID: "f2", AnswerValue: model.Neutral},
	}
	if diff := cmp.Diff(want, s.Recorded()); diff != "" {
		t.Errorf("Recorded() mismatch (-want +got):\n%s", diff)
	}
}

func TestNextStopsAtLastQuestion(t *testing.T) {
	s := newTestSession(t)
	total := len(s.Questions())
	for i := 0; i < total; i++ {
		s.Answer(model.Agree)
		s.Next()
	}
	if s.Index != total-1 {
		t.Errorf("Index = %d, want %d (last question, awaiting Finish)", s.Index, total-1)
	}
	if s.Complete {
		t.Error("session completed without Finish()")
	}
}

func TestFinishGating(t *testing.T) {
	s := newTestSession(t)
	s.Answer(model.Agree)

	if err := s.Finish(); !errors.Is(err, ErrIncompleteSession) {
		t.Fatalf("Finish() with unanswered questions = %v, want ErrIncompleteSession", err)
	}
	if s.Complete {
		t.Fatal("failed Finish() marked the session complete")
	}
	if want := []string{"f2", "f3", "f4", "f5", "f6", "f7"}; !cmp.Equal(want, s.Unanswered()) {
		t.Errorf("Unanswered() = %v, want %v", s.Unanswered(), want)
	}

	for _, q := range s.Questions() {
		s.Responses[q.ID] = model.Neutral
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("Finish() with all answered = %v", err)
	}
	if !s.Complete {
		t.Fatal("Finish() did not mark the session complete")
	}
}

func TestCompleteIsTerminal(t *testing.T) {
	s := newTestSession(t)
	for _, q := range s.Questions() {
		s.Responses[q.ID] = model.Agree
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("Finish() = %v", err)
	}

	if err := s.Answer(model.Neutral); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Answer() after completion = %v, want ErrSessionComplete", err)
	}
	if err := s.Next(); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Next() after completion = %v, want ErrSessionComplete", err)
	}
	if err := s.Previous(); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Previous() after completion = %v, want ErrSessionComplete", err)
	}
	if err := s.Finish(); !errors.Is(err, ErrSessionComplete) {
		t.Errorf("Finish() after completion = %v, want ErrSessionComplete", err)
	}
}

// Sessions are cached between requests as JSON; a round-trip must preserve
// the machine's state exactly.
func TestSessionJSONRoundTrip(t *testing.T) {
	s := newTestSession(t)
	s.Answer(model.Disagree)
	s.Next()
	s.Answer(model.StronglyAgree)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	var restored Session
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}

	if diff := cmp.Diff(s, &restored); diff != "" {
		t.Errorf("round-trip mismatch (-orig +restored):\n%s", diff)
	}
	if restored.Current().ID != "f2" {
		t.Errorf("restored Current().ID = %q, want %q", restored.Current().ID, "f2")
	}
}
