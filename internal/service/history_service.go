package service

import (
	"context"
	"log"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/cache"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/repository"
)

// HistoryService serves a user's stored evaluations, newest first, with a
// read-through Redis cache in front of Mongo.
type HistoryService struct {
	evalRepo repository.EvaluationRepo
	cache    cache.HistoryCache
}

// NewHistoryService creates a new history service
func NewHistoryService(evalRepo repository.EvaluationRepo, historyCache cache.HistoryCache) *HistoryService {
	return &HistoryService{
		evalRepo: evalRepo,
		cache:    historyCache,
	}
}

// List returns the user's evaluations, most recent first.
func (s *HistoryService) List(ctx context.Context, userID string) ([]*model.EvaluationResult, error) {
	if cached, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		// Cache trouble is not a reason to fail the listing.
		log.Printf("history cache read failed for user %s: %v", userID, err)
	}

	results, err := s.evalRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, userID, results); err != nil {
		log.Printf("history cache write failed for user %s: %v", userID, err)
	}
	return results, nil
}

// Delete removes one of the user's evaluations.
func (s *HistoryService) Delete(ctx context.Context, userID, id string) error {
	if err := s.evalRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Printf("history cache invalidation failed for user %s: %v", userID, err)
	}
	return nil
}
