package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/glowplan/selfcare-backend/internal/logger"
)

// UpdateBus carries "update event appended" notifications from the write
// path to whoever derives state from the event stream. The write path
// publishes fire-and-forget; consumers recompute from the store, so a lost
// message only delays convergence until the next write.
type UpdateBus interface {
	PublishUpdateAppended(ctx context.Context, userID uuid.UUID) error
	StartConsumer(ctx context.Context, onAppend func(userID uuid.UUID)) error
	Close() error
}

type updateAppendedMsg struct {
	UserID uuid.UUID `json:"user_id"`
}

type redisUpdateBus struct {
	log     *logger.Logger
	rdb     *redis.Client
	channel string
}

func NewUpdateBus(log *logger.Logger, rdb *redis.Client) UpdateBus {
	ch := strings.TrimSpace(os.Getenv("REDIS_UPDATE_CHANNEL"))
	if ch == "" {
		ch = "task_updates"
	}
	return &redisUpdateBus{
		log:     log.With("client", "UpdateBus"),
		rdb:     rdb,
		channel: ch,
	}
}

func (b *redisUpdateBus) PublishUpdateAppended(ctx context.Context, userID uuid.UUID) error {
	raw, err := json.Marshal(updateAppendedMsg{UserID: userID})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisUpdateBus) StartConsumer(ctx context.Context, onAppend func(userID uuid.UUID)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var msg updateAppendedMsg
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad update bus payload", "error", err)
					continue
				}
				if msg.UserID == uuid.Nil {
					continue
				}
				onAppend(msg.UserID)
			}
		}
	}()

	return nil
}

func (b *redisUpdateBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
