package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tejedor/trama/pkg/engine"
	"github.com/tejedor/trama/pkg/state"
	"github.com/tejedor/trama/pkg/story"
)

// RedisStorage keeps sessions, materialized snapshots and the decision
// log in Redis, and reads authored story bundles from the filesystem.
// The decision log is an RPUSH list per (session, character), which is
// what preserves insertion order for timestamp tie-breaks.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string

	mu      sync.RWMutex
	stories map[string]*story.Story
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
		stories: make(map[string]*story.Story),
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Key layout

func sessionKey(id uuid.UUID) string {
	return "trama:session:" + id.String()
}

func varsKey(sessionID, characterID uuid.UUID) string {
	return fmt.Sprintf("trama:vars:%s:%s", sessionID, characterID)
}

func decisionsKey(sessionID, characterID uuid.UUID) string {
	return fmt.Sprintf("trama:decisions:%s:%s", sessionID, characterID)
}

func eventIDsKey(sessionID uuid.UUID) string {
	return "trama:events:" + sessionID.String()
}

// Sessions

func (r *RedisStorage) Session(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, engine.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess state.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (r *RedisStorage) SaveSession(ctx context.Context, sess *state.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sess.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Variable snapshots

func (r *RedisStorage) Vars(ctx context.Context, sessionID, characterID uuid.UUID) (state.Vars, error) {
	data, err := r.client.Get(ctx, varsKey(sessionID, characterID)).Result()
	if err == redis.Nil {
		return state.Vars{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vars: %w", err)
	}

	var vars state.Vars
	if err := json.Unmarshal([]byte(data), &vars); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vars: %w", err)
	}
	return vars, nil
}

// SaveVars writes a character's snapshot outside the decision path
// (session creation seeds initial values through here).
func (r *RedisStorage) SaveVars(ctx context.Context, sessionID, characterID uuid.UUID, vars state.Vars) error {
	data, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to marshal vars: %w", err)
	}
	if err := r.client.Set(ctx, varsKey(sessionID, characterID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save vars: %w", err)
	}
	return nil
}

// Decision log

func (r *RedisStorage) CommitDecision(ctx context.Context, vars state.Vars, evt *state.DecisionEvent, sess *state.Session) error {
	// The controller's per-character lock serializes this check against
	// the commit below, so check-then-act is safe here.
	seen, err := r.client.SIsMember(ctx, eventIDsKey(evt.SessionID), evt.ID.String()).Result()
	if err != nil {
		return fmt.Errorf("failed to check event id: %w", err)
	}
	if seen {
		return engine.ErrDuplicateEvent
	}

	varsData, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("failed to marshal vars: %w", err)
	}
	evtData, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	sessData, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// ID registration, snapshot update, log append and seat updates
	// commit together: a failure leaves nothing behind, so the same
	// event ID can be retried.
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, eventIDsKey(evt.SessionID), evt.ID.String())
	pipe.Set(ctx, varsKey(evt.SessionID, evt.CharacterID), varsData, 0)
	pipe.RPush(ctx, decisionsKey(evt.SessionID, evt.CharacterID), evtData)
	pipe.Set(ctx, sessionKey(sess.ID), sessData, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to commit decision: %w", err)
	}
	return nil
}

func (r *RedisStorage) Decisions(ctx context.Context, sessionID, characterID uuid.UUID) ([]state.DecisionEvent, error) {
	rows, err := r.client.LRange(ctx, decisionsKey(sessionID, characterID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	events := make([]state.DecisionEvent, 0, len(rows))
	for _, row := range rows {
		var evt state.DecisionEvent
		if err := json.Unmarshal([]byte(row), &evt); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decision event: %w", err)
		}
		events = append(events, evt)
	}
	return events, nil
}

func (r *RedisStorage) LatestDecisionAt(ctx context.Context, sessionID, characterID, nodeID uuid.UUID) (*state.DecisionEvent, error) {
	events, err := r.Decisions(ctx, sessionID, characterID)
	if err != nil {
		return nil, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].NodeID == nodeID {
			return &events[i], nil
		}
	}
	return nil, nil
}

// Authored content (filesystem-backed, cached after first load)

func (r *RedisStorage) Story(ctx context.Context, fileName string) (*story.Story, error) {
	r.mu.RLock()
	if s, ok := r.stories[fileName]; ok {
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	base := filepath.Base(fileName)
	if !strings.HasSuffix(base, ".json") {
		return nil, fmt.Errorf("story file must be a .json file: %s", fileName)
	}

	data, err := os.ReadFile(filepath.Join(r.dataDir, "stories", base))
	if err != nil {
		return nil, fmt.Errorf("failed to read story file %s: %w", base, err)
	}

	s, err := story.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load story %s: %w", base, err)
	}
	s.FileName = base

	r.mu.Lock()
	r.stories[fileName] = s
	r.mu.Unlock()
	return s, nil
}
