package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/model"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/service"
	"github.com/KazeemKazeem/Relationship-Reality-Check/internal/transport/rest/middleware"
)

// HistoryHandler handles stored evaluation endpoints
type HistoryHandler struct {
	historySvc *service.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historySvc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// List handles GET /v1/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	results, err := h.historySvc.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*model.EvaluationResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"evaluations": results})
}

// Delete handles DELETE /v1/history/{id}
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.historySvc.Delete(r.Context(), claims.UserID, id); err != nil {
		if err == mongo.ErrNoDocuments {
			writeError(w, http.StatusNotFound, "evaluation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
