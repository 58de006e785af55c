package service

import (
	"context"
	"testing"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
)

func TestHistoryListReadsThroughCache(t *testing.T) {
	repo := &fakeEvalRepo{}
	history := newFakeHistoryCache()
	svc := NewHistoryService(repo, history)
	ctx := context.Background()

	repo.saved = []*model.EvaluationResult{
		{ID: "eval-1", UserID: "user-1", TotalScore: 77},
		{ID: "eval-2", UserID: "user-1", TotalScore: 42},
		{ID: "eval-3", UserID: "user-2", TotalScore: 90},
	}

	results, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("List() returned %d results, want 2", len(results))
	}
	if _, ok, _ := history.Get(ctx, "user-1"); !ok {
		t.Error("listing did not populate the cache")
	}

	// A second listing is served from the cache, not the store.
	repo.saved = nil
	again, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("cached List() = %v", err)
	}
	if len(again) != 2 {
		t.Errorf("cached List() returned %d results, want 2", len(again))
	}
}

func TestHistoryDeleteInvalidatesCache(t *testing.T) {
	repo := &fakeEvalRepo{}
	history := newFakeHistoryCache()
	svc := NewHistoryService(repo, history)
	ctx := context.Background()

	repo.saved = []*model.EvaluationResult{
		{ID: "eval-1", UserID: "user-1", TotalScore: 77},
	}
	if _, err := svc.List(ctx, "user-1"); err != nil {
		t.Fatalf("List() = %v", err)
	}

	if err := svc.Delete(ctx, "user-1", "eval-1"); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if history.invalidated != 1 {
		t.Errorf("cache invalidated %d times, want 1", history.invalidated)
	}
	if _, ok, _ := history.Get(ctx, "user-1"); ok {
		t.Error("cache entry survived deletion")
	}

	if err := svc.Delete(ctx, "user-1", "eval-1"); err == nil {
		t.Error("Delete() of a removed record did not fail")
	}
}
