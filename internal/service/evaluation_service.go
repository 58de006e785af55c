package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/cache"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/evaluation"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/repository"
)

var (
	// ErrNotSessionOwner rejects access to another user's session.
	ErrNotSessionOwner = errors.New("session belongs to a different user")

	// ErrResultNotReady is returned when advice or a result is requested
	// before the session has been finished.
	ErrResultNotReady = errors.New("evaluation is not finished yet")
)

// autoAdvanceDelay is how long after an answer the pending advance fires.
// Any later answer or navigation cancels it.
const autoAdvanceDelay = 300 * time.Millisecond

// WebSocket event types emitted per session.
const (
	MsgProgress    = "progress"
	MsgAutoAdvance = "auto_advance"
	MsgCompleted   = "completed"
)

// FinishOutcome is what Finish hands back to the transport layer.
type FinishOutcome struct {
	Result    *model.EvaluationResult `json:"result"`
	Band      string                  `json:"band"`
	Persisted bool                    `json:"persisted"`
}

// ProgressEvent is the payload for progress and auto-advance events.
type ProgressEvent struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
	Answered  int    `json:"answered"`
	Total     int    `json:"total"`
}

// EvaluationService drives evaluation sessions: it owns the session
// lifecycle around the state machine, the cancellable auto-advance timers,
// scoring on finish, and the hand-off to persistence. State-machine
// transitions themselves stay inside evaluation.Session. Writes to a session
// are serialized through a per-session lock held across the whole
// load-mutate-store round trip, so a fired auto-advance can never write back
// a snapshot that misses a concurrent answer.
type EvaluationService struct {
	sessions    cache.SessionCache
	evalRepo    repository.EvaluationRepo
	history     cache.HistoryCache
	broadcaster Broadcaster

	mu      sync.Mutex
	pending map[string]*time.Timer // sessionID -> scheduled auto-advance
	locks   map[string]*sync.Mutex // sessionID -> write lock
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(sessions cache.SessionCache, evalRepo repository.EvaluationRepo, history cache.HistoryCache) *EvaluationService {
	return &EvaluationService{
		sessions: sessions,
		evalRepo: evalRepo,
		history:  history,
		pending:  make(map[string]*time.Timer),
		locks:    make(map[string]*sync.Mutex),
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *EvaluationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start opens a new session at the first question.
func (s *EvaluationService) Start(ctx context.Context, claims *model.UserClaims, category model.RelationshipCategory, label string, metadata *model.RelationshipMetadata) (*evaluation.Session, error) {
	session := evaluation.NewSession(uuid.New().String(), claims.UserID, category, label, metadata, time.Now())
	session.Guest = claims.Guest

	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}
	log.Printf("evaluation %s started: user=%s category=%s", session.ID, session.UserID, category)
	return session, nil
}

// Get loads a session for its owner.
func (s *EvaluationService) Get(ctx context.Context, userID, id string) (*evaluation.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// Answer records a response for the current question. When the session is
// not yet on the last question, a cancellable auto-advance is scheduled and
// offered over the session's WebSocket; the recorded state never depends on
// it firing.
func (s *EvaluationService) Answer(ctx context.Context, userID, id string, value model.AnswerScale) (*evaluation.Session, error) {
	s.cancelPendingAdvance(id)

	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := session.Answer(value); err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}

	s.publishProgress(session, MsgProgress)
	if session.Index < len(session.Questions())-1 {
		s.scheduleAdvance(session.UserID, id)
	}
	return session, nil
}

// Next advances to the following question. Fails with
// evaluation.ErrIncompleteAnswer when the current question is unanswered.
func (s *EvaluationService) Next(ctx context.Context, userID, id string) (*evaluation.Session, error) {
	s.cancelPendingAdvance(id)
	return s.transition(ctx, userID, id, (*evaluation.Session).Next)
}

// Previous steps back one question for review.
func (s *EvaluationService) Previous(ctx context.Context, userID, id string) (*evaluation.Session, error) {
	s.cancelPendingAdvance(id)
	return s.transition(ctx, userID, id, (*evaluation.Session).Previous)
}

// Finish gates on a complete response set, scores it, assembles the result,
// and persists it for registered users. A persistence failure is logged and
// reported in the outcome but never withholds the computed result.
func (s *EvaluationService) Finish(ctx context.Context, userID, id string) (*FinishOutcome, error) {
	s.cancelPendingAdvance(id)

	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := session.Finish(); err != nil {
		return nil, err
	}

	breakdown, total := evaluation.Score(session.Category, session.Responses)
	result := evaluation.AssembleResult(uuid.New().String(), session, breakdown, total, time.Now())
	session.Result = result

	// Keep the finished session cached so advice can be generated later,
	// including for guests whose results are never stored.
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}

	outcome := &FinishOutcome{
		Result: result,
		Band:   evaluation.ScoreBand(total),
	}
	if !session.Guest {
		if err := s.evalRepo.Save(ctx, result); err != nil {
			log.Printf("evaluation %s: persistence failure (result still returned): %v", id, err)
		} else {
			outcome.Persisted = true
			if err := s.history.Invalidate(ctx, session.UserID); err != nil {
				log.Printf("evaluation %s: history invalidation failed: %v", id, err)
			}
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(id, MsgCompleted, outcome)
		// Complete is terminal; subscribers have nothing more to receive
		// once the final event is queued.
		s.broadcaster.DisconnectSession(id)
	}

	// Later mutations are rejected by the state machine, so the write lock
	// is no longer needed.
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	log.Printf("evaluation %s finished: total=%d persisted=%v", id, total, outcome.Persisted)
	return outcome, nil
}

// Result returns the finished session's result for the advice endpoint.
func (s *EvaluationService) Result(ctx context.Context, userID, id string) (*model.EvaluationResult, error) {
	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !session.Complete || session.Result == nil {
		return nil, ErrResultNotReady
	}
	return session.Result, nil
}

func (s *EvaluationService) transition(ctx context.Context, userID, id string, step func(*evaluation.Session) error) (*evaluation.Session, error) {
	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := step(session); err != nil {
		return nil, err
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, err
	}
	s.publishProgress(session, MsgProgress)
	return session, nil
}

// scheduleAdvance arms the auto-advance timer for a session, replacing any
// timer already armed.
func (s *EvaluationService) scheduleAdvance(userID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
	}
	s.pending[id] = time.AfterFunc(autoAdvanceDelay, func() {
		s.fireAdvance(userID, id)
	})
}

// sessionLock returns the write lock for a session, creating it on first
// use. The lock must be held across the full load-mutate-store round trip.
func (s *EvaluationService) sessionLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// cancelPendingAdvance discards a scheduled advance; a cancelled offer is
// dropped, not queued.
func (s *EvaluationService) cancelPendingAdvance(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
}

func (s *EvaluationService) fireAdvance(userID, id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()

	lock := s.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := s.Get(ctx, userID, id)
	if err != nil {
		return
	}
	if err := session.Next(); err != nil {
		return
	}
	if err := s.sessions.Set(ctx, session); err != nil {
		log.Printf("evaluation %s: auto-advance not stored: %v", id, err)
		return
	}
	s.publishProgress(session, MsgAutoAdvance)
}

func (s *EvaluationService) publishProgress(session *evaluation.Session, msgType string) {
	if s.broadcaster == nil {
		return
	}
	answered, total := session.Progress()
	s.broadcaster.BroadcastToSession(session.ID, msgType, &ProgressEvent{
		SessionID: session.ID,
		Index:     session.Index,
		Answered:  answered,
		Total:     total,
	})
}
