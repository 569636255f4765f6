package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/tejedor/trama/internal/storage"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

var (
	testChar    = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	testInicio  = uuid.MustParse("aaaa0001-0000-4000-8000-000000000001")
	testFin     = uuid.MustParse("aaaa0002-0000-4000-8000-000000000002")
	testSeguir  = uuid.MustParse("cccc0001-0000-4000-8000-000000000001")
	testOculta  = uuid.MustParse("cccc0002-0000-4000-8000-000000000002")
	testStoryFN = "prueba.json"
)

func fixtureStory() *story.Story {
	return &story.Story{
		Name:     "Prueba",
		FileName: testStoryFN,
		Characters: []story.Character{
			{ID: testChar, Name: "Heroe"},
		},
		Declarations: []story.VariableDeclaration{
			{CharacterID: testChar, Name: "coraje", Kind: state.KindNumber, Initial: float64(5)},
		},
		Nodes: []story.Node{
			{ID: testInicio, CharacterID: testChar, Kind: story.NodeDecision, Title: "Inicio", Content: "base",
				Alternatives: []story.AltContent{
					{Content: "valiente", When: []story.Condition{{Variable: "coraje", Op: story.CmpGe, Value: 6}}},
				}},
			{ID: testFin, CharacterID: testChar, Kind: story.NodeEnding, Title: "Fin", Content: "fin", Victory: true},
		},
		Options: []story.Option{
			{ID: testSeguir, NodeID: testInicio, Text: "Seguir", DirectTarget: testFin, Order: 1,
				Effects: []story.Effect{{Variable: "coraje", Op: story.OpAdd, Operand: 1}}},
			{ID: testOculta, NodeID: testInicio, Text: "Oculta", DirectTarget: testFin, Order: 2,
				Visibility: []story.Condition{{Variable: "coraje", Op: story.CmpGe, Value: 10}}},
		},
		Openings: map[uuid.UUID]uuid.UUID{testChar: testInicio},
	}
}

type testEnv struct {
	store      *storage.Mock
	controller *engine.Controller
	logger     *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storage.NewMock()
	store.RegisterStory(testStoryFN, fixtureStory())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		store:      store,
		controller: engine.NewController(store, logger),
		logger:     logger,
	}
}

// seatSession creates a session directly in storage and returns it with
// the controlling player ID.
func (e *testEnv) seatSession(t *testing.T) (*state.Session, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	playerID := uuid.New()

	sess := state.NewSession(testStoryFN)
	sess.Seats[testChar] = &state.Seat{
		CharacterID: testChar,
		PlayerID:    playerID,
		NodeID:      testInicio,
		Status:      state.SeatPlaying,
	}
	if err := e.store.SaveSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	if err := e.store.SaveVars(ctx, sess.ID, testChar, fixtureStory().InitialVars(testChar)); err != nil {
		t.Fatal(err)
	}
	return sess, playerID
}

func TestSessionHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSessionHandler(env.logger, env.store)

	playerID := uuid.New()
	body := `{"story": "prueba.json", "players": [{"player_id": "` + playerID.String() + `", "character_id": "` + testChar.String() + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var sess state.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}
	seat := sess.Seat(testChar)
	if seat == nil {
		t.Fatal("expected seat for character")
	}
	if seat.NodeID != testInicio {
		t.Errorf("seat not at opening node: %s", seat.NodeID)
	}
	if seat.PlayerID != playerID {
		t.Errorf("seat bound to wrong player: %s", seat.PlayerID)
	}

	// Initial snapshot was seeded from declarations.
	vars, err := env.store.Vars(context.Background(), sess.ID, testChar)
	if err != nil {
		t.Fatal(err)
	}
	if vars["coraje"] != float64(5) {
		t.Errorf("initial vars not seeded: %v", vars)
	}
}

func TestSessionHandler_CreateHotSeat(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSessionHandler(env.logger, env.store)

	// Without an explicit cast every character gets a fresh player.
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"story": "prueba.json"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var sess state.Session
	if err := json.Unmarshal(w.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}
	if len(sess.Seats) != 1 {
		t.Fatalf("expected every character seated, got %d seats", len(sess.Seats))
	}
	if sess.Seat(testChar).PlayerID == uuid.Nil {
		t.Error("expected generated player ID")
	}
}

func TestSessionHandler_CreateErrors(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSessionHandler(env.logger, env.store)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"unknown story", `{"story": "nadie.json"}`, http.StatusNotFound},
		{"missing story", `{}`, http.StatusBadRequest},
		{"unknown character", `{"story": "prueba.json", "players": [{"player_id": "` + uuid.NewString() + `", "character_id": "` + uuid.NewString() + `"}]}`, http.StatusBadRequest},
		{"invalid body", `{`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tc.wantCode {
				t.Errorf("expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestSessionHandler_Read(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSessionHandler(env.logger, env.store)
	sess, _ := env.seatSession(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+sess.ID.String(), nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got state.Session
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != sess.ID || got.StoryFile != testStoryFN {
		t.Errorf("unexpected session payload: %+v", got)
	}
}

func TestSessionHandler_ReadErrors(t *testing.T) {
	env := newTestEnv(t)
	handler := NewSessionHandler(env.logger, env.store)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed ID, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+uuid.NewString(), nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
