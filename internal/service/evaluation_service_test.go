package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/cache"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/evaluation"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

// fakeSessionCache round-trips sessions through JSON like the Redis cache
// does, so tests exercise the same serialization path as production.
type fakeSessionCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{data: make(map[string][]byte)}
}

func (c *fakeSessionCache) Set(_ context.Context, session *evaluation.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[session.ID] = data
	return nil
}

func (c *fakeSessionCache) Get(_ context.Context, id string) (*evaluation.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[id]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	var session evaluation.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *fakeSessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
	return nil
}

type fakeEvalRepo struct {
	mu     sync.Mutex
	saved  []*model.EvaluationResult
	failed bool
}

func (r *fakeEvalRepo) Save(_ context.Context, result *model.EvaluationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed {
		return errors.New("store rejected the write")
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeEvalRepo) ListByUser(_ context.Context, userID string) ([]*model.EvaluationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.EvaluationResult
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].UserID == userID {
			out = append(out, r.saved[i])
		}
	}
	return out, nil
}

func (r *fakeEvalRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, res := range r.saved {
		if res.ID == id && res.UserID == userID {
			r.saved = append(r.saved[:i], r.saved[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type fakeHistoryCache struct {
	mu          sync.Mutex
	invalidated int
	stored      map[string][]*model.EvaluationResult
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{stored: make(map[string][]*model.EvaluationResult)}
}

func (c *fakeHistoryCache) Get(_ context.Context, userID string) ([]*model.EvaluationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	results, ok := c.stored[userID]
	return results, ok, nil
}

func (c *fakeHistoryCache) Set(_ context.Context, userID string, results []*model.EvaluationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[userID] = results
	return nil
}

func (c *fakeHistoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	delete(c.stored, userID)
	return nil
}

type broadcastEvent struct {
	sessionID string
	msgType   string
}

type fakeBroadcaster struct {
	mu          sync.Mutex
	events      []broadcastEvent
	disconnects []string
}

func (b *fakeBroadcaster) BroadcastToSession(sessionID string, msgType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{sessionID, msgType})
}

func (b *fakeBroadcaster) DisconnectSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.disconnects = append(b.disconnects, sessionID)
}

func (b *fakeBroadcaster) disconnected(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.disconnects {
		if id == sessionID {
			return true
		}
	}
	return false
}

func (b *fakeBroadcaster) seen(msgType string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		if e.msgType == msgType {
			return true
		}
	}
	return false
}

func registeredClaims() *model.UserClaims {
	return &model.UserClaims{UserID: "user-1"}
}

func newTestService() (*EvaluationService, *fakeEvalRepo, *fakeHistoryCache, *fakeBroadcaster) {
	repo := &fakeEvalRepo{}
	history := newFakeHistoryCache()
	svc := NewEvaluationService(newFakeSessionCache(), repo, history)
	b := &fakeBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, repo, history, b
}

func answerAll(t *testing.T, svc *EvaluationService, userID, id string, value model.AnswerScale) {
	t.Helper()
	ctx := context.Background()
	session, err := svc.Get(ctx, userID, id)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	total := len(session.Questions())
	for i := 0; i < total; i++ {
		if _, err := svc.Answer(ctx, userID, id, value); err != nil {
			t.Fatalf("Answer() at question %d = %v", i, err)
		}
		if i < total-1 {
			if _, err := svc.Next(ctx, userID, id); err != nil {
				t.Fatalf("Next() at question %d = %v", i, err)
			}
		}
	}
}

func TestEvaluationFlowPersistsForRegisteredUser(t *testing.T) {
	svc, repo, history, broadcaster := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}

	answerAll(t, svc, "user-1", session.ID, model.StronglyAgree)

	outcome, err := svc.Finish(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("Finish() = %v", err)
	}
	if outcome.Result.TotalScore != 100 {
		t.Errorf("TotalScore = %d, want 100", outcome.Result.TotalScore)
	}
	if outcome.Band != "Strong and Healthy" {
		t.Errorf("Band = %q, want %q", outcome.Band, "Strong and Healthy")
	}
	if !outcome.Persisted {
		t.Error("outcome not marked persisted")
	}
	if len(repo.saved) != 1 {
		t.Fatalf("repo has %d records, want 1", len(repo.saved))
	}
	if repo.saved[0].UserID != "user-1" {
		t.Errorf("saved UserID = %q, want %q", repo.saved[0].UserID, "user-1")
	}
	if history.invalidated != 1 {
		t.Errorf("history invalidated %d times, want 1", history.invalidated)
	}
	if !broadcaster.seen(MsgCompleted) {
		t.Error("completed event was not broadcast")
	}
	if !broadcaster.disconnected(session.ID) {
		t.Error("subscribers were not dropped after completion")
	}
}

func TestGuestEvaluationIsNeverPersisted(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	claims := &model.UserClaims{UserID: "guest_ab12cd34", Guest: true}
	session, err := svc.Start(ctx, claims, model.CategoryFamily, "Mom", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}

	answerAll(t, svc, claims.UserID, session.ID, model.Agree)

	outcome, err := svc.Finish(ctx, claims.UserID, session.ID)
	if err != nil {
		t.Fatalf("Finish() = %v", err)
	}
	if outcome.Persisted {
		t.Error("guest outcome marked persisted")
	}
	if len(repo.saved) != 0 {
		t.Errorf("repo has %d records, want 0", len(repo.saved))
	}
	if outcome.Result == nil || outcome.Result.TotalScore != 75 {
		t.Errorf("guest still gets a computed result, got %+v", outcome.Result)
	}
}

func TestPersistenceFailureDoesNotBlockResult(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.failed = true
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryRomantic, "Alex", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	answerAll(t, svc, "user-1", session.ID, model.Neutral)

	outcome, err := svc.Finish(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("Finish() with failing store = %v, want nil", err)
	}
	if outcome.Persisted {
		t.Error("outcome marked persisted despite store failure")
	}
	if outcome.Result == nil {
		t.Fatal("computed result withheld on persistence failure")
	}
	if outcome.Result.TotalScore != 50 {
		t.Errorf("TotalScore = %d, want 50", outcome.Result.TotalScore)
	}
}

func TestFinishRejectsIncompleteSession(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if _, err := svc.Answer(ctx, "user-1", session.ID, model.Agree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}

	if _, err := svc.Finish(ctx, "user-1", session.ID); !errors.Is(err, evaluation.ErrIncompleteSession) {
		t.Fatalf("Finish() = %v, want ErrIncompleteSession", err)
	}

	// The failed finish changed nothing; the session keeps accepting answers.
	if _, err := svc.Next(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("Next() after failed Finish() = %v", err)
	}
}

func TestSessionOwnershipEnforced(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}

	if _, err := svc.Get(ctx, "someone-else", session.ID); !errors.Is(err, ErrNotSessionOwner) {
		t.Errorf("Get() as another user = %v, want ErrNotSessionOwner", err)
	}
	if _, err := svc.Get(ctx, "user-1", "no-such-session"); !errors.Is(err, cache.ErrSessionNotFound) {
		t.Errorf("Get() unknown session = %v, want ErrSessionNotFound", err)
	}
}

func TestAutoAdvanceFiresAfterDelay(t *testing.T) {
	svc, _, _, broadcaster := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if _, err := svc.Answer(ctx, "user-1", session.ID, model.Agree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		current, err := svc.Get(ctx, "user-1", session.ID)
		if err != nil {
			t.Fatalf("Get() = %v", err)
		}
		if current.Index == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("auto-advance never fired")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !broadcaster.seen(MsgAutoAdvance) {
		t.Error("auto-advance event was not broadcast")
	}
}

// slowWriteSessionCache holds the first matching write open until released,
// so a test can overlap it with another call to the service.
type slowWriteSessionCache struct {
	*fakeSessionCache
	hold    func(*evaluation.Session) bool
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *slowWriteSessionCache) Set(ctx context.Context, session *evaluation.Session) error {
	if c.hold(session) {
		c.once.Do(func() {
			close(c.entered)
			<-c.release
		})
	}
	return c.fakeSessionCache.Set(ctx, session)
}

// A fired auto-advance must not write back a snapshot that misses an answer
// recorded while its cache round trip was in flight.
func TestAutoAdvanceWriteDoesNotDiscardConcurrentAnswer(t *testing.T) {
	sessions := &slowWriteSessionCache{
		fakeSessionCache: newFakeSessionCache(),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	// The auto-advance write is the first snapshot past the opening question.
	sessions.hold = func(s *evaluation.Session) bool { return s.Index == 1 }

	svc := NewEvaluationService(sessions, &fakeEvalRepo{}, newFakeHistoryCache())
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if _, err := svc.Answer(ctx, "user-1", session.ID, model.Agree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}

	select {
	case <-sessions.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-advance never reached the cache")
	}

	// A second answer arrives while the advance's write is still in flight.
	done := make(chan error, 1)
	go func() {
		_, err := svc.Answer(ctx, "user-1", session.ID, model.StronglyAgree)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	close(sessions.release)
	if err := <-done; err != nil {
		t.Fatalf("concurrent Answer() = %v", err)
	}

	current, err := svc.Get(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got := current.Responses["f1"]; got != model.Agree {
		t.Errorf("response for f1 = %d, want %d", got, model.Agree)
	}
	if got := current.Responses["f2"]; got != model.StronglyAgree {
		t.Errorf("response for f2 = %d, want %d (stale advance snapshot must not win)", got, model.StronglyAgree)
	}
	if answered, _ := current.Progress(); answered != 2 {
		t.Errorf("answered = %d, want 2", answered)
	}
}

func TestNavigationCancelsPendingAutoAdvance(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if _, err := svc.Answer(ctx, "user-1", session.ID, model.Agree); err != nil {
		t.Fatalf("Answer() = %v", err)
	}
	// Explicit navigation discards the pending advance instead of queueing it.
	if _, err := svc.Next(ctx, "user-1", session.ID); err != nil {
		t.Fatalf("Next() = %v", err)
	}

	time.Sleep(2 * autoAdvanceDelay)
	current, err := svc.Get(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if current.Index != 1 {
		t.Errorf("Index = %d, want 1 (pending advance must be dropped, not queued)", current.Index)
	}
}

func TestResultAvailableForAdviceAfterFinish(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	session, err := svc.Start(ctx, registeredClaims(), model.CategoryFriend, "Sam", nil)
	if err != nil {
		t.Fatalf("Start() = %v", err)
	}

	if _, err := svc.Result(ctx, "user-1", session.ID); !errors.Is(err, ErrResultNotReady) {
		t.Fatalf("Result() before finish = %v, want ErrResultNotReady", err)
	}

	answerAll(t, svc, "user-1", session.ID, model.Agree)
	outcome, err := svc.Finish(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("Finish() = %v", err)
	}

	result, err := svc.Result(ctx, "user-1", session.ID)
	if err != nil {
		t.Fatalf("Result() after finish = %v", err)
	}
	if result.ID != outcome.Result.ID {
		t.Errorf("Result() ID = %q, want %q", result.ID, outcome.Result.ID)
	}
}
