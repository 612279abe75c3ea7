package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pairline/pairline/internal/observability"
	"github.com/pairline/pairline/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BroadcastMessage is the wire form of a live session event
type BroadcastMessage struct {
	SessionID string                 `json:"session_id"`
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Broadcaster pairs the durable event append with the live fanout. The
// append must succeed; the publish is best-effort, so a dead broadcast
// channel never loses the durable record.
type Broadcaster struct {
	store  *SessionStore
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster over the given store and Redis client
func NewBroadcaster(store *SessionStore, redisClient *redisclient.Client, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{store: store, redis: redisClient, logger: logger}
}

// SessionChannel is the pub/sub channel carrying a session's live events
func SessionChannel(sessionID string) string {
	return "session:" + sessionID + ":events"
}

// Emit appends the event to the session's durable log and publishes it to
// anyone watching the session.
func (b *Broadcaster) Emit(ctx context.Context, sessionID, eventType string, payload map[string]interface{}) error {
	if err := b.store.AppendEvent(ctx, sessionID, eventType, payload); err != nil {
		return err
	}

	message := BroadcastMessage{
		SessionID: sessionID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(message)
	if err != nil {
		b.logger.Error("failed to marshal broadcast message",
			zap.String("session_id", sessionID),
			zap.String("type", eventType),
			zap.Error(err))
		return nil
	}

	if err := b.redis.Publish(ctx, SessionChannel(sessionID), data).Err(); err != nil {
		observability.BroadcastFailures.Inc()
		b.logger.Warn("failed to publish session event",
			zap.String("session_id", sessionID),
			zap.String("type", eventType),
			zap.Error(err))
	}
	return nil
}

// Subscribe opens a pub/sub subscription on the session's channel. The
// caller owns the returned PubSub and must Close it.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string) *redis.PubSub {
	return b.redis.Subscribe(ctx, SessionChannel(sessionID))
}
