package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tejedor/trama/pkg/engine"
)

// DecisionHandler accepts decision submissions.
// Routes:
// POST /v1/decisions - Submit a decision for a character
type DecisionHandler struct {
	controller *engine.Controller
	logger     *slog.Logger
}

func NewDecisionHandler(logger *slog.Logger, controller *engine.Controller) *DecisionHandler {
	return &DecisionHandler{
		controller: controller,
		logger:     logger,
	}
}

func (h *DecisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
		return
	}

	var req engine.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.controller.SubmitDecision(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrOwnershipViolation):
			writeError(w, h.logger, http.StatusForbidden, "Player does not control this character")
		case errors.Is(err, engine.ErrInvalidOption):
			writeError(w, h.logger, http.StatusBadRequest, "Option does not belong to the given node")
		case errors.Is(err, engine.ErrSessionNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
		default:
			h.logger.Error("Decision submission failed", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to submit decision")
		}
		return
	}

	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		h.logger.Error("Failed to encode outcome", "error", err)
	}
}
