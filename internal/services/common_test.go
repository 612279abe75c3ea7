package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pairline/pairline/internal/config"
	"github.com/pairline/pairline/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testMongo connects to the test MongoDB instance, skipping the test when
// none is reachable.
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

	db := client.Database("pairline_test")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// testRedis connects to the test Redis instance, skipping the test when
// none is reachable.
func testRedis(t *testing.T) *redisclient.Client {
	t.Helper()

	addr := envOr("REDIS_URI", "localhost:6379")
	base := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

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

// testConfig returns a config tuned for fast test runs
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
