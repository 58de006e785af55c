package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/cache"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/evaluation"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/service"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/rest/middleware"
)

// EvaluationHandler handles evaluation session endpoints
type EvaluationHandler struct {
	evalSvc   *service.EvaluationService
	adviceSvc *service.AdviceService
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(evalSvc *service.EvaluationService, adviceSvc *service.AdviceService) *EvaluationHandler {
	return &EvaluationHandler{
		evalSvc:   evalSvc,
		adviceSvc: adviceSvc,
	}
}

// StartEvaluationRequest is the body for POST /v1/evaluations
type StartEvaluationRequest struct {
	Label    string                      `json:"label"`
	Category string                      `json:"category"`
	Metadata *model.RelationshipMetadata `json:"metadata,omitempty"`
}

// AnswerRequest is the body for POST /v1/evaluations/{id}/answer
type AnswerRequest struct {
	Value model.AnswerScale `json:"value"`
}

// SessionView is the client-facing snapshot of a session.
type SessionView struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Category  string             `json:"category"`
	Index     int                `json:"index"`
	Question  model.Question     `json:"question"`
	Selected  *model.AnswerScale `json:"selected,omitempty"`
	Responses []model.Response   `json:"responses,omitempty"`
	Answered  int                `json:"answered"`
	Total     int                `json:"total"`
	Complete  bool               `json:"complete"`
}

func sessionView(s *evaluation.Session) *SessionView {
	answered, total := s.Progress()
	view := &SessionView{
		ID:        s.ID,
		Label:     s.Label,
		Category:  string(s.Category),
		Index:     s.Index,
		Question:  s.Current(),
		Responses: s.Recorded(),
		Answered:  answered,
		Total:     total,
		Complete:  s.Complete,
	}
	if v, ok := s.CurrentAnswer(); ok {
		view.Selected = &v
	}
	return view
}

// Start handles POST /v1/evaluations
func (h *EvaluationHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	var req StartEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}
	category, err := model.ParseRelationshipCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.evalSvc.Start(r.Context(), claims, category, req.Label, req.Metadata)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, sessionView(session))
}

// Get handles GET /v1/evaluations/{id}
func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	session, err := h.evalSvc.Get(r.Context(), claims.UserID, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// Answer handles POST /v1/evaluations/{id}/answer
func (h *EvaluationHandler) Answer(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.evalSvc.Answer(r.Context(), claims.UserID, id, req.Value)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// Next handles POST /v1/evaluations/{id}/next
func (h *EvaluationHandler) Next(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	session, err := h.evalSvc.Next(r.Context(), claims.UserID, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// Previous handles POST /v1/evaluations/{id}/previous
func (h *EvaluationHandler) Previous(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	session, err := h.evalSvc.Previous(r.Context(), claims.UserID, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// Finish handles POST /v1/evaluations/{id}/finish
func (h *EvaluationHandler) Finish(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	outcome, err := h.evalSvc.Finish(r.Context(), claims.UserID, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// Advice handles GET /v1/evaluations/{id}/advice
func (h *EvaluationHandler) Advice(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	result, err := h.evalSvc.Result(r.Context(), claims.UserID, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	// GenerateAdvice degrades to a static fallback internally; this endpoint
	// never fails because the generator did.
	advice := h.adviceSvc.GenerateAdvice(r.Context(), result)
	writeJSON(w, http.StatusOK, map[string]string{"advice": advice})
}

// writeSessionError maps session and state-machine errors to HTTP statuses.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cache.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotSessionOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, evaluation.ErrInvalidAnswer):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, evaluation.ErrIncompleteAnswer),
		errors.Is(err, evaluation.ErrIncompleteSession),
		errors.Is(err, evaluation.ErrSessionComplete),
		errors.Is(err, service.ErrResultNotReady):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
