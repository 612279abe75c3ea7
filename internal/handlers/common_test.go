package handlers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/logging"
	"github.com/pairline/pairline/internal/redisclient"
	"github.com/pairline/pairline/internal/services"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logging.InitLogger(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestRouter() *gin.Engine {
	router := gin.New()
	v1 := router.Group("/v1")
	{
		v1.POST("/sessions", CreateSession)
		v1.GET("/sessions/:id", GetSession)
		v1.GET("/sessions/:id/stream", StreamSession)
		v1.POST("/voice/transcript", HandleTranscript)
		v1.POST("/voice/status", HandleDialStatus)
	}
	return router
}

func testConfig() *config.Config {
	return &config.Config{
		SessionCollection:    "sessions",
		EventCollection:      "events",
		SessionTTL:           10 * time.Minute,
		PairedSessionTTL:     30 * time.Minute,
		CodeDrawMaxAttempts:  25,
		CodeAttemptsPerCall:  3,
		CallbackDelay:        10 * time.Millisecond,
		AppointmentHour:      10,
		CallStateTTL:         time.Minute,
		RateLimitMaxAttempts: 5,
		RateLimitLockout:     15 * time.Minute,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func testMongo(t *testing.T) *mongo.Database {
	t.Helper()

	uri := envOr("MONGODB_URI", "mongodb://localhost:27017")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("MongoDB not available at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not reachable at %s: %v", uri, err)
	}

	db := client.Database("pairline_handlers_test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func testRedis(t *testing.T) *redisclient.Client {
	t.Helper()

	addr := envOr("REDIS_URI", "localhost:6379")
	base := redis.NewClient(&redis.Options{Addr: addr, DB: 14})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := base.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not reachable at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = base.FlushDB(ctx).Err()
		_ = base.Close()
	})
	return redisclient.NewClient(base)
}

// setupIntegration wires the handler package against real backing stores
func setupIntegration(t *testing.T) (*gin.Engine, *services.SessionStore) {
	t.Helper()

	db := testMongo(t)
	rc := testRedis(t)
	cfg := testConfig()
	logger := zap.NewNop()

	store := services.NewSessionStore(db, cfg, logger)
	b := services.NewBroadcaster(store, rc, logger)
	limiter := services.NewRateLimiter(rc, cfg.RateLimitMaxAttempts, cfg.RateLimitLockout, logger)
	calls := services.NewCallStateStore(cfg.CallStateTTL, logger)
	t.Cleanup(calls.Stop)

	conv := services.NewConversation(store, limiter, b, &stubDialer{}, calls, cfg, logger)
	Init(store, b, conv)

	return newTestRouter(), store
}

type stubDialer struct{}

func (d *stubDialer) PlaceCall(_ context.Context, _, _, _ string) (string, error) {
	return "stub-callback-leg", nil
}
