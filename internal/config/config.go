package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	// Server configuration
	Port        int    `json:"port"`
	Environment string `json:"environment"`

	// MongoDB configuration
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	// Redis configuration
	RedisURI      string `json:"redis_uri"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`

	// Collection names
	SessionCollection string `json:"mongo_session_collection"`
	EventCollection   string `json:"mongo_event_collection"`

	// Session lifecycle
	SessionTTL          time.Duration `json:"session_ttl"`
	PairedSessionTTL    time.Duration `json:"paired_session_ttl"`
	CodeDrawMaxAttempts int           `json:"code_draw_max_attempts"`
	SweepInterval       time.Duration `json:"sweep_interval"`

	// Conversation flow
	CodeAttemptsPerCall int           `json:"code_attempts_per_call"`
	StepRetryLimit      int           `json:"step_retry_limit"` // 0 means unlimited
	CallbackDelay       time.Duration `json:"callback_delay"`
	AppointmentHour     int           `json:"appointment_hour"`
	CallStateTTL        time.Duration `json:"call_state_ttl"`

	// Rate limiting (per caller phone number)
	RateLimitMaxAttempts int           `json:"rate_limit_max_attempts"`
	RateLimitLockout     time.Duration `json:"rate_limit_lockout"`

	// Outbound dialer
	DialerEnabled           bool   `json:"dialer_enabled"`
	DialerBaseURL           string `json:"dialer_base_url"`
	DialerAccountSID        string `json:"dialer_account_sid"`
	DialerAuthToken         string `json:"-"`
	DialerFromNumber        string `json:"dialer_from_number"`
	DialerVoiceURL          string `json:"dialer_voice_url"`
	DialerStatusCallbackURL string `json:"dialer_status_callback_url"`

	// Tracing configuration
	TracingEnabled  bool   `json:"tracing_enabled"`
	TracingEndpoint string `json:"tracing_endpoint"`
}

var (
	AppConfig *Config
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	port, err := strconv.Atoi(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnvOrDefault("SESSION_TTL", "10m"))
	if err != nil {
		return fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	pairedTTL, err := time.ParseDuration(getEnvOrDefault("PAIRED_SESSION_TTL", "30m"))
	if err != nil {
		return fmt.Errorf("invalid PAIRED_SESSION_TTL: %w", err)
	}

	sweepInterval, err := time.ParseDuration(getEnvOrDefault("SWEEP_INTERVAL", "60s"))
	if err != nil {
		return fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	codeDrawMax, err := strconv.Atoi(getEnvOrDefault("CODE_DRAW_MAX_ATTEMPTS", "25"))
	if err != nil {
		return fmt.Errorf("invalid CODE_DRAW_MAX_ATTEMPTS: %w", err)
	}

	codeAttempts, err := strconv.Atoi(getEnvOrDefault("CODE_ATTEMPTS_PER_CALL", "3"))
	if err != nil {
		return fmt.Errorf("invalid CODE_ATTEMPTS_PER_CALL: %w", err)
	}

	stepRetryLimit, err := strconv.Atoi(getEnvOrDefault("STEP_RETRY_LIMIT", "0"))
	if err != nil {
		return fmt.Errorf("invalid STEP_RETRY_LIMIT: %w", err)
	}

	callbackDelay, err := time.ParseDuration(getEnvOrDefault("CALLBACK_DELAY", "3s"))
	if err != nil {
		return fmt.Errorf("invalid CALLBACK_DELAY: %w", err)
	}

	appointmentHour, err := strconv.Atoi(getEnvOrDefault("APPOINTMENT_HOUR", "10"))
	if err != nil {
		return fmt.Errorf("invalid APPOINTMENT_HOUR: %w", err)
	}
	if appointmentHour < 0 || appointmentHour > 23 {
		return fmt.Errorf("APPOINTMENT_HOUR must be between 0 and 23, got %d", appointmentHour)
	}

	callStateTTL, err := time.ParseDuration(getEnvOrDefault("CALL_STATE_TTL", "1h"))
	if err != nil {
		return fmt.Errorf("invalid CALL_STATE_TTL: %w", err)
	}

	rateLimitMax, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_MAX_ATTEMPTS", "5"))
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_MAX_ATTEMPTS: %w", err)
	}

	rateLimitLockout, err := time.ParseDuration(getEnvOrDefault("RATE_LIMIT_LOCKOUT", "15m"))
	if err != nil {
		return fmt.Errorf("invalid RATE_LIMIT_LOCKOUT: %w", err)
	}

	dialerEnabled := getEnvOrDefault("DIALER_ENABLED", "false") == "true"
	dialerFrom := os.Getenv("DIALER_FROM_NUMBER")
	if dialerEnabled && dialerFrom == "" {
		return fmt.Errorf("DIALER_FROM_NUMBER environment variable is required when DIALER_ENABLED=true")
	}

	AppConfig = &Config{
		// Server configuration
		Port:        port,
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		// MongoDB configuration
		MongoURI:      getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnvOrDefault("MONGODB_DATABASE", "pairline"),

		// Redis configuration
		RedisURI:      getEnvOrDefault("REDIS_URI", "localhost:6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		// Collection names
		SessionCollection: getEnvOrDefault("MONGODB_SESSION_COLLECTION", "sessions"),
		EventCollection:   getEnvOrDefault("MONGODB_EVENT_COLLECTION", "session_events"),

		// Session lifecycle
		SessionTTL:          sessionTTL,
		PairedSessionTTL:    pairedTTL,
		CodeDrawMaxAttempts: codeDrawMax,
		SweepInterval:       sweepInterval,

		// Conversation flow
		CodeAttemptsPerCall: codeAttempts,
		StepRetryLimit:      stepRetryLimit,
		CallbackDelay:       callbackDelay,
		AppointmentHour:     appointmentHour,
		CallStateTTL:        callStateTTL,

		// Rate limiting
		RateLimitMaxAttempts: rateLimitMax,
		RateLimitLockout:     rateLimitLockout,

		// Outbound dialer
		DialerEnabled:           dialerEnabled,
		DialerBaseURL:           getEnvOrDefault("DIALER_BASE_URL", "https://api.twilio.com/2010-04-01"),
		DialerAccountSID:        os.Getenv("DIALER_ACCOUNT_SID"),
		DialerAuthToken:         os.Getenv("DIALER_AUTH_TOKEN"),
		DialerFromNumber:        dialerFrom,
		DialerVoiceURL:          os.Getenv("DIALER_VOICE_URL"),
		DialerStatusCallbackURL: os.Getenv("DIALER_STATUS_CALLBACK_URL"),

		// Tracing configuration
		TracingEnabled:  getEnvOrDefault("TRACING_ENABLED", "false") == "true",
		TracingEndpoint: getEnvOrDefault("TRACING_ENDPOINT", "localhost:4317"),
	}

	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
