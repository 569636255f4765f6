package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tejedor/trama/internal/storage"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

// CharacterHandler reads per-character play state.
// Routes:
// GET /v1/sessions/{sid}/characters/{cid}/state   - Materialized snapshot (?replay=true rebuilds from the log)
// GET /v1/sessions/{sid}/characters/{cid}/history - Decision events in log order
// GET /v1/sessions/{sid}/characters/{cid}/node    - Current node view with visible options
type CharacterHandler struct {
	storage    storage.Storage
	controller *engine.Controller
	logger     *slog.Logger
}

func NewCharacterHandler(logger *slog.Logger, storage storage.Storage, controller *engine.Controller) *CharacterHandler {
	return &CharacterHandler{
		storage:    storage,
		controller: controller,
		logger:     logger,
	}
}

// NodeView is the current narrative situation presented to a player:
// resolved content plus the options visible under the current snapshot.
type NodeView struct {
	NodeID  uuid.UUID        `json:"node_id"`
	Kind    story.NodeKind   `json:"kind"`
	Title   string           `json:"title"`
	Content string           `json:"content"`
	Status  state.SeatStatus `json:"status"`
	Victory bool             `json:"victory,omitempty"`
	Options []story.Option   `json:"options,omitempty"`
}

func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}

	// Path shape: /v1/sessions/{sid}/characters/{cid}/{resource}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions/"), "/"), "/")
	if len(parts) != 4 || parts[1] != "characters" {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	characterID, err := uuid.Parse(parts[2])
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid character ID format")
		return
	}

	switch parts[3] {
	case "state":
		h.handleState(w, r, sessionID, characterID)
	case "history":
		h.handleHistory(w, r, sessionID, characterID)
	case "node":
		h.handleNode(w, r, sessionID, characterID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *CharacterHandler) handleState(w http.ResponseWriter, r *http.Request, sessionID, characterID uuid.UUID) {
	var vars state.Vars
	var err error
	if r.URL.Query().Get("replay") == "true" {
		vars, err = h.controller.ReconstructState(r.Context(), sessionID, characterID)
	} else {
		vars, err = h.controller.CharacterState(r.Context(), sessionID, characterID)
	}
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(vars); err != nil {
		h.logger.Error("Failed to encode vars", "error", err)
	}
}

func (h *CharacterHandler) handleHistory(w http.ResponseWriter, r *http.Request, sessionID, characterID uuid.UUID) {
	events, err := h.controller.History(r.Context(), sessionID, characterID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(events); err != nil {
		h.logger.Error("Failed to encode history", "error", err)
	}
}

func (h *CharacterHandler) handleNode(w http.ResponseWriter, r *http.Request, sessionID, characterID uuid.UUID) {
	sess, err := h.storage.Session(r.Context(), sessionID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	seat := sess.Seat(characterID)
	if seat == nil {
		h.writeEngineError(w, engine.ErrCharacterNotSeated)
		return
	}

	s, err := h.storage.Story(r.Context(), sess.StoryFile)
	if err != nil {
		h.logger.Error("Failed to load story", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load story")
		return
	}
	node := s.Node(seat.NodeID)
	if node == nil {
		writeError(w, h.logger, http.StatusInternalServerError, "Seat references unknown node")
		return
	}

	vars, err := h.storage.Vars(r.Context(), sessionID, characterID)
	if err != nil {
		h.logger.Error("Failed to load vars", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load state")
		return
	}

	view := NodeView{
		NodeID:  node.ID,
		Kind:    node.Kind,
		Title:   node.Title,
		Content: node.SelectContent(vars),
		Status:  seat.Status,
		Victory: seat.Victory,
		Options: s.VisibleOptions(node.ID, vars),
	}
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("Failed to encode node view", "error", err)
	}
}

func (h *CharacterHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
	case errors.Is(err, engine.ErrCharacterNotSeated):
		writeError(w, h.logger, http.StatusNotFound, "Character not part of session")
	default:
		h.logger.Error("Character request failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Internal error")
	}
}
