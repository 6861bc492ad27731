package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Plaid     PlaidConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Firebase  FirebaseConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PlaidConfig struct {
	ClientID string
	Secret   string
	BaseURL  string
	// BackfillStartDate is the earliest date fetched during a historical
	// backfill (YYYY-MM-DD).
	BackfillStartDate string
}

type AuthConfig struct {
	// APITokenHash is a bcrypt hash of the bearer token accepted by the API.
	// Generate one with `centavo-admin token hash`.
	APITokenHash string
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

type FirebaseConfig struct {
	CredentialsFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

func Load() (*Config, error) {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	schedulerWorkers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}
	schedulerQueueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}

	var scheduleTimes []string
	for _, t := range strings.Split(getEnv("SCHEDULER_TIMES", "06:00,12:00,18:00"), ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			scheduleTimes = append(scheduleTimes, t)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "centavo"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "centavo"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Plaid: PlaidConfig{
			ClientID:          getEnv("PLAID_CLIENT_ID", ""),
			Secret:            getEnv("PLAID_SECRET", ""),
			BaseURL:           getEnv("PLAID_BASE_URL", "https://sandbox.plaid.com"),
			BackfillStartDate: getEnv("PLAID_BACKFILL_START_DATE", "2017-01-01"),
		},
		Auth: AuthConfig{
			APITokenHash: getEnv("API_TOKEN_HASH", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:       getBoolEnv("SCHEDULER_ENABLED", true),
			ScheduleTimes: scheduleTimes,
			WorkerCount:   schedulerWorkers,
			JobDelay:      schedulerJobDelay,
			QueueSize:     schedulerQueueSize,
			RunOnStartup:  getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "centavo-api"),
			Environment:  getEnv("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
		},
	}

	if cfg.Plaid.ClientID == "" {
		return nil, fmt.Errorf("PLAID_CLIENT_ID is required")
	}
	if cfg.Plaid.Secret == "" {
		return nil, fmt.Errorf("PLAID_SECRET is required")
	}
	if cfg.Auth.APITokenHash == "" {
		return nil, fmt.Errorf("API_TOKEN_HASH is required")
	}
	if _, err := time.Parse("2006-01-02", cfg.Plaid.BackfillStartDate); err != nil {
		return nil, fmt.Errorf("invalid PLAID_BACKFILL_START_DATE (expected YYYY-MM-DD): %w", err)
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
