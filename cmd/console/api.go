package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/tejedor/trama/internal/handlers"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

type createSessionRequest struct {
	Story string `json:"story"`
}

func createSession(client *http.Client, baseURL string, storyFile string) (*state.Session, error) {
	jsonData, err := json.Marshal(createSessionRequest{Story: storyFile})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/sessions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp.StatusCode, body, "failed to create session")
	}

	var sess state.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return &sess, nil
}

func getNodeView(client *http.Client, baseURL string, sessionID, characterID uuid.UUID) (*handlers.NodeView, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s/characters/%s/node", baseURL, sessionID, characterID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to get node view")
	}

	var view handlers.NodeView
	if err := json.Unmarshal(body, &view); err != nil {
		return nil, fmt.Errorf("failed to parse node view response: %w", err)
	}
	return &view, nil
}

func submitDecision(client *http.Client, baseURL string, req engine.SubmitRequest) (*engine.Outcome, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		baseURL+"/v1/decisions",
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to submit decision")
	}

	var outcome engine.Outcome
	if err := json.Unmarshal(body, &outcome); err != nil {
		return nil, fmt.Errorf("failed to parse outcome response: %w", err)
	}
	return &outcome, nil
}

func getCharacterState(client *http.Client, baseURL string, sessionID, characterID uuid.UUID) (state.Vars, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/sessions/%s/characters/%s/state", baseURL, sessionID, characterID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to get character state")
	}

	var vars state.Vars
	if err := json.Unmarshal(body, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse state response: %w", err)
	}
	return vars, nil
}

func apiError(status int, body []byte, context string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", context, errorResp.Error)
}
