package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/models"
	"github.com/pairline/pairline/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SessionStore owns the durable Session and Event records
type SessionStore struct {
	db     *mongo.Database
	cfg    *config.Config
	logger *zap.Logger
}

// NewSessionStore creates a session store over the given database
func NewSessionStore(db *mongo.Database, cfg *config.Config, logger *zap.Logger) *SessionStore {
	return &SessionStore{db: db, cfg: cfg, logger: logger}
}

func (s *SessionStore) sessions() *mongo.Collection {
	return s.db.Collection(s.cfg.SessionCollection)
}

func (s *SessionStore) events() *mongo.Collection {
	return s.db.Collection(s.cfg.EventCollection)
}

// liveFilter matches unexpired sessions in a non-terminal status
func liveFilter(now time.Time) bson.M {
	return bson.M{
		"status":     bson.M{"$in": models.LiveSessionStatuses},
		"expires_at": bson.M{"$gt": now},
	}
}

// CreateSession returns the browser's existing live session, or creates a
// new one with a freshly drawn pairing code. Idempotent per browser
// identity so reloading a tab never mints a second code.
func (s *SessionStore) CreateSession(ctx context.Context, browserID string) (*models.Session, error) {
	now := time.Now()

	filter := liveFilter(now)
	filter["browser_id"] = browserID

	var existing models.Session
	err := s.sessions().FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to look up existing session: %w", err)
	}

	for attempt := 0; attempt < s.cfg.CodeDrawMaxAttempts; attempt++ {
		code := generatePairingCode()

		collisionFilter := liveFilter(now)
		collisionFilter["code"] = code
		count, err := s.sessions().CountDocuments(ctx, collisionFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to check code collision: %w", err)
		}
		if count > 0 {
			s.logger.Debug("pairing code collision, redrawing",
				zap.String("code", code),
				zap.Int("attempt", attempt+1))
			continue
		}

		session := &models.Session{
			ID:          uuid.NewString(),
			BrowserID:   browserID,
			Code:        code,
			Status:      models.SessionStatusCreated,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.cfg.SessionTTL),
			ActiveUntil: now.Add(s.cfg.SessionTTL),
		}
		if _, err := s.sessions().InsertOne(ctx, session); err != nil {
			return nil, fmt.Errorf("failed to insert session: %w", err)
		}

		s.logger.Info("session created",
			zap.String("session_id", session.ID),
			zap.String("code", code))
		return session, nil
	}

	// Exhausting the draws signals a capacity or configuration problem,
	// not caller error
	return nil, models.ErrCodeSpaceExhausted
}

// FindSessionByCode matches only unexpired sessions still awaiting pairing.
// Once paired, a code can no longer be claimed by a third party.
func (s *SessionStore) FindSessionByCode(ctx context.Context, code string) (*models.Session, error) {
	filter := bson.M{
		"code":       code,
		"status":     models.SessionStatusCreated,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	var session models.Session
	err := s.sessions().FindOne(ctx, filter).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session by code: %w", err)
	}
	return &session, nil
}

// PairSession claims a session for a caller: the sole created→paired
// transition. The claim is a single conditional update keyed on the current
// status, so two callers racing on the same code cannot both succeed.
func (s *SessionStore) PairSession(ctx context.Context, sessionID, callerID, callerName, callID string) (*models.Session, error) {
	now := time.Now()
	until := now.Add(s.cfg.PairedSessionTTL)

	filter := bson.M{
		"_id":        sessionID,
		"status":     models.SessionStatusCreated,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":       models.SessionStatusPaired,
			"caller_phone": callerID,
			"caller_name":  callerName,
			"call_id":      callID,
			"expires_at":   until,
			"active_until": until,
		},
	}

	var session models.Session
	err := s.sessions().FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&session)
	if err == mongo.ErrNoDocuments {
		// Already claimed, expired, or never existed
		return nil, models.ErrCodeUnavailable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pair session: %w", err)
	}

	s.logger.Info("session paired",
		zap.String("session_id", sessionID),
		zap.String("caller", observability.MaskPhone(callerID)),
		zap.String("call_id", callID))
	return &session, nil
}

// ExtendSession pushes the expiry forward by the paired-session TTL. Called
// after every successful conversation step so a slow talker does not time
// out mid-flow.
func (s *SessionStore) ExtendSession(ctx context.Context, sessionID string) error {
	until := time.Now().Add(s.cfg.PairedSessionTTL)

	filter := liveFilter(time.Now())
	filter["_id"] = sessionID
	update := bson.M{"$set": bson.M{"expires_at": until, "active_until": until}}

	result, err := s.sessions().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionNotLive
	}
	return nil
}

// UpdateSessionPhone overwrites the stored caller phone with a freshly
// captured callback number. The inbound caller id and the callback number
// share this field.
func (s *SessionStore) UpdateSessionPhone(ctx context.Context, sessionID, number string) error {
	result, err := s.sessions().UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{"caller_phone": number}},
	)
	if err != nil {
		return fmt.Errorf("failed to update session phone: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// MarkActive transitions paired→active once the callback leg connects
func (s *SessionStore) MarkActive(ctx context.Context, sessionID string) error {
	result, err := s.sessions().UpdateOne(ctx,
		bson.M{"_id": sessionID, "status": models.SessionStatusPaired},
		bson.M{"$set": bson.M{"status": models.SessionStatusActive}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark session active: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrSessionNotLive
	}
	return nil
}

// GetSession returns a session by id regardless of status
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.sessions().FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// AppendEvent inserts an event record. Append-only: prior events are never
// mutated.
func (s *SessionStore) AppendEvent(ctx context.Context, sessionID, eventType string, payload map[string]interface{}) error {
	event := models.Event{
		SessionID: sessionID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if _, err := s.events().InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListEvents returns a session's most recent events, newest first
func (s *SessionStore) ListEvents(ctx context.Context, sessionID string, limit int64) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.events().Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// SweepExpired bulk-transitions every live session past its expiry to
// expired. Safe to run concurrently with pairing: the expiry condition
// never matches a session whose TTL was just extended.
func (s *SessionStore) SweepExpired(ctx context.Context) (int64, error) {
	filter := bson.M{
		"status":     bson.M{"$in": models.LiveSessionStatuses},
		"expires_at": bson.M{"$lte": time.Now()},
	}
	update := bson.M{"$set": bson.M{"status": models.SessionStatusExpired}}

	result, err := s.sessions().UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired sessions: %w", err)
	}

	if result.ModifiedCount > 0 {
		observability.SessionsSwept.Add(float64(result.ModifiedCount))
		s.logger.Info("swept expired sessions", zap.Int64("count", result.ModifiedCount))
	}
	return result.ModifiedCount, nil
}

// generatePairingCode draws 4 random decimal digits
func generatePairingCode() string {
	code := ""
	for range models.PairingCodeLength {
		code += fmt.Sprintf("%d", rand.Intn(10))
	}
	return code
}
