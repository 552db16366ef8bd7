package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chargehub/internal/models"
)

// ActiveSession is the cached shape of a running session.
type ActiveSession struct {
	SessionID    int64     `json:"session_id"`
	UserID       int64     `json:"user_id"`
	StationID    int64     `json:"station_id"`
	Units        float64   `json:"units"`
	PaymentToken string    `json:"payment_token"`
	StartedAt    time.Time `json:"started_at"`
}

// Store mirrors active sessions into redis for quick lookups without touching
// the ledger.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(sessionID int64) string {
	return fmt.Sprintf("chargehub:sessions:active:%d", sessionID)
}

// Save caches an active session.
func (s *Store) Save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(ActiveSession{
		SessionID:    session.ID,
		UserID:       session.UserID,
		StationID:    session.StationID,
		Units:        session.Units,
		PaymentToken: session.PaymentToken,
		StartedAt:    session.StartedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err()
}

// Get returns a cached session.
func (s *Store) Get(ctx context.Context, sessionID int64) (*ActiveSession, error) {
	result, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	var session ActiveSession
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes a cached session once it leaves the active status.
func (s *Store) Delete(ctx context.Context, sessionID int64) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
