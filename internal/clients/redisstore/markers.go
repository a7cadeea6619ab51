package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/glowplan/selfcare-backend/internal/logger"
)

// MarkerStore is the dispatch idempotency ledger. A marker's existence is the
// at-most-once guarantee: it is claimed atomically before a send and never
// updated. The single exception is a claim whose dispatch failed for every
// recipient, which the claimer rolls back so a later sweep can retry.
type MarkerStore interface {
	// CreateIfAbsent returns true when this caller created the marker and
	// therefore owns the dispatch; false means another sweep already claimed it.
	CreateIfAbsent(ctx context.Context, userID uuid.UUID, updateID, channel string, sentAt time.Time) (bool, error)
	Exists(ctx context.Context, userID uuid.UUID, updateID, channel string) (bool, error)
	// Delete rolls back a failed claim. Only ever called by the sweep that
	// created the marker, after its send failed for all recipients.
	Delete(ctx context.Context, userID uuid.UUID, updateID, channel string) error
}

type SentMarker struct {
	Channel  string    `json:"channel"`
	UpdateID string    `json:"updateId"`
	SentAt   time.Time `json:"sentAt"`
}

type markerStore struct {
	log *logger.Logger
	rdb *redis.Client
}

func NewClient(log *logger.Logger) (*redis.Client, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewMarkerStore(log *logger.Logger, rdb *redis.Client) MarkerStore {
	return &markerStore{log: log.With("client", "MarkerStore"), rdb: rdb}
}

func markerKey(userID uuid.UUID, updateID, channel string) string {
	return fmt.Sprintf("notif:sent:%s:%s:%s", userID, updateID, channel)
}

func (s *markerStore) CreateIfAbsent(ctx context.Context, userID uuid.UUID, updateID, channel string, sentAt time.Time) (bool, error) {
	raw, err := json.Marshal(SentMarker{Channel: channel, UpdateID: updateID, SentAt: sentAt})
	if err != nil {
		return false, err
	}
	// SETNX is the single atomic check-and-create the whole pipeline relies
	// on; concurrent sweeps race here and exactly one wins.
	created, err := s.rdb.SetNX(ctx, markerKey(userID, updateID, channel), raw, 0).Result()
	if err != nil {
		return false, fmt.Errorf("marker setnx: %w", err)
	}
	return created, nil
}

func (s *markerStore) Delete(ctx context.Context, userID uuid.UUID, updateID, channel string) error {
	return s.rdb.Del(ctx, markerKey(userID, updateID, channel)).Err()
}

func (s *markerStore) Exists(ctx context.Context, userID uuid.UUID, updateID, channel string) (bool, error) {
	n, err := s.rdb.Exists(ctx, markerKey(userID, updateID, channel)).Result()
	if err != nil {
		return false, fmt.Errorf("marker exists: %w", err)
	}
	return n > 0, nil
}
