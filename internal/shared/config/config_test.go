package config

import (
	"os"
	"testing"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("PLAID_CLIENT_ID", "test-client-id")
	t.Setenv("PLAID_SECRET", "test-secret")
	t.Setenv("API_TOKEN_HASH", "$2a$10$abcdefghijklmnopqrstuv")
}

func TestLoad_Success(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Plaid.ClientID != "test-client-id" {
		t.Errorf("Plaid.ClientID = %q, want %q", cfg.Plaid.ClientID, "test-client-id")
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}
	if cfg.Plaid.BackfillStartDate != "2017-01-01" {
		t.Errorf("Plaid.BackfillStartDate = %q, want %q", cfg.Plaid.BackfillStartDate, "2017-01-01")
	}
}

func TestLoad_MissingPlaidCredentials(t *testing.T) {
	t.Setenv("API_TOKEN_HASH", "hash")
	t.Setenv("PLAID_CLIENT_ID", "")
	t.Setenv("PLAID_SECRET", "")
	os.Unsetenv("PLAID_CLIENT_ID")
	os.Unsetenv("PLAID_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing PLAID_CLIENT_ID, got nil")
	}
}

func TestLoad_MissingAPITokenHash(t *testing.T) {
	t.Setenv("PLAID_CLIENT_ID", "id")
	t.Setenv("PLAID_SECRET", "secret")
	t.Setenv("API_TOKEN_HASH", "")
	os.Unsetenv("API_TOKEN_HASH")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for missing API_TOKEN_HASH, got nil")
	}
}

func TestLoad_InvalidDBPort(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DB_PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid DB_PORT, got nil")
	}
}

func TestLoad_InvalidBackfillStartDate(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("PLAID_BACKFILL_START_DATE", "01/01/2017")

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid PLAID_BACKFILL_START_DATE, got nil")
	}
}

func TestLoad_SchedulerConfig(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("SCHEDULER_WORKERS", "10")
	t.Setenv("SCHEDULER_TIMES", "03:30, 21:15")
	t.Setenv("SCHEDULER_RUN_ON_STARTUP", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Scheduler.Enabled != false {
		t.Error("Scheduler.Enabled should be false")
	}
	if cfg.Scheduler.WorkerCount != 10 {
		t.Errorf("Scheduler.WorkerCount = %d, want 10", cfg.Scheduler.WorkerCount)
	}
	if len(cfg.Scheduler.ScheduleTimes) != 2 {
		t.Errorf("Scheduler.ScheduleTimes length = %d, want 2", len(cfg.Scheduler.ScheduleTimes))
	}
	if cfg.Scheduler.ScheduleTimes[1] != "21:15" {
		t.Errorf("Scheduler.ScheduleTimes[1] = %q, want %q", cfg.Scheduler.ScheduleTimes[1], "21:15")
	}
	if cfg.Scheduler.RunOnStartup != true {
		t.Error("Scheduler.RunOnStartup should be true")
	}
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		value    string
		defVal   bool
		expected bool
	}{
		{"true", false, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"invalid", true, true},   // returns default
		{"invalid", false, false}, // returns default
		{"", true, true},          // empty returns default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			key := "TEST_BOOL_ENV"
			if tt.value == "" {
				os.Unsetenv(key)
			} else {
				t.Setenv(key, tt.value)
			}

			got := getBoolEnv(key, tt.defVal)
			if got != tt.expected {
				t.Errorf("getBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defVal, got, tt.expected)
			}
		})
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	got := cfg.ConnectionString()
	if got != expected {
		t.Errorf("ConnectionString() = %q, want %q", got, expected)
	}
}
