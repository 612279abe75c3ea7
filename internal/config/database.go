package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/pairline/pairline/internal/logging"
	"github.com/pairline/pairline/internal/redisclient"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	// Ping the database
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection
func InitRedis() {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         AppConfig.RedisURI,
		Password:     AppConfig.RedisPassword,
		DB:           AppConfig.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Wrap with traced client
	Redis = redisclient.NewClient(redisClient)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	if !strings.Contains(uri, "@") {
		return uri
	}
	return "mongodb://****:****@" + uri[strings.LastIndex(uri, "@")+1:]
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := zap.L().Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureSessionIndexes(ctx, logger); err != nil {
		return err
	}

	if err := ensureEventIndexes(ctx, logger); err != nil {
		return err
	}

	logger.Info("all required indexes verified")
	return nil
}

// ensureSessionIndexes creates the lookup indexes for the session collection.
// Code lookups filter on status+expiry, browser lookups drive idempotent
// session creation, and the expiry index serves the sweep.
func ensureSessionIndexes(ctx context.Context, logger *zap.Logger) error {
	collection := MongoDB.Collection(AppConfig.SessionCollection)

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "code", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetName("code_1_status_1"),
		},
		{
			Keys: bson.D{{Key: "browser_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().
				SetName("browser_id_1_status_1"),
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().
				SetName("expires_at_1"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.Info("session indexes already exist (created by another instance)",
				zap.String("collection", AppConfig.SessionCollection))
			return nil
		}
		logger.Error("failed to create session indexes",
			zap.String("collection", AppConfig.SessionCollection),
			zap.Error(err))
		return err
	}

	logger.Info("session collection indexes verified",
		zap.String("collection", AppConfig.SessionCollection))
	return nil
}

// ensureEventIndexes creates the compound index used to list a session's
// events newest-first.
func ensureEventIndexes(ctx context.Context, logger *zap.Logger) error {
	collection := MongoDB.Collection(AppConfig.EventCollection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().
			SetName("session_id_1_created_at_-1"),
	}

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.Info("event index already exists (created by another instance)",
				zap.String("collection", AppConfig.EventCollection))
			return nil
		}
		logger.Error("failed to create event index",
			zap.String("collection", AppConfig.EventCollection),
			zap.Error(err))
		return err
	}

	logger.Info("event collection index verified",
		zap.String("collection", AppConfig.EventCollection))
	return nil
}
