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
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// SessionHandler creates and reads play sessions.
// Routes:
// POST /v1/sessions      - Create a session from a story file
// GET  /v1/sessions/{id} - Read a session
type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(logger *slog.Logger, storage storage.Storage) *SessionHandler {
	return &SessionHandler{
		storage: storage,
		logger:  logger,
	}
}

type sessionPlayer struct {
	PlayerID    uuid.UUID `json:"player_id"`
	CharacterID uuid.UUID `json:"character_id"`
}

type createSessionRequest struct {
	Story   string          `json:"story"`
	Players []sessionPlayer `json:"players,omitempty"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	switch r.Method {
	case http.MethodPost:
		if path != "" {
			writeError(w, h.logger, http.StatusBadRequest, "POST does not take a session ID")
			return
		}
		h.handleCreate(w, r)

	case http.MethodGet:
		id, err := uuid.Parse(path)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
			return
		}
		h.handleRead(w, r, id)

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Story == "" {
		writeError(w, h.logger, http.StatusBadRequest, "story is required")
		return
	}

	s, err := h.storage.Story(r.Context(), req.Story)
	if err != nil {
		h.logger.Warn("Failed to load story", "story", req.Story, "error", err)
		writeError(w, h.logger, http.StatusNotFound, "Story not found or invalid")
		return
	}

	// No explicit player list seats every character with a fresh player
	// ID (hot-seat playtesting).
	if len(req.Players) == 0 {
		for _, c := range s.Characters {
			req.Players = append(req.Players, sessionPlayer{
				PlayerID:    uuid.New(),
				CharacterID: c.ID,
			})
		}
	}

	sess := state.NewSession(req.Story)
	for _, p := range req.Players {
		char := s.Character(p.CharacterID)
		if char == nil {
			writeError(w, h.logger, http.StatusBadRequest, "Character not part of story: "+p.CharacterID.String())
			return
		}
		opening, ok := s.Openings[p.CharacterID]
		if !ok {
			writeError(w, h.logger, http.StatusBadRequest, "Character has no opening node: "+p.CharacterID.String())
			return
		}
		sess.Seats[p.CharacterID] = &state.Seat{
			CharacterID: p.CharacterID,
			PlayerID:    p.PlayerID,
			NodeID:      opening,
			Status:      state.SeatPlaying,
		}
	}

	// Seed each character's snapshot from declared initial values.
	// Declarations are frozen from this point on.
	for charID := range sess.Seats {
		if err := h.storage.SaveVars(r.Context(), sess.ID, charID, s.InitialVars(charID)); err != nil {
			h.logger.Error("Failed to seed character vars", "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
			return
		}
	}

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Info("Session created", "session_id", sess.ID, "story", req.Story, "seats", len(sess.Seats))
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		h.logger.Error("Failed to encode session", "error", err)
	}
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess, err := h.storage.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Failed to load session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		h.logger.Error("Failed to encode session", "error", err)
	}
}
