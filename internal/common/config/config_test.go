// internal/common/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, "notification-service", cfg.App.Name)
	assert.Equal(t, 3004, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.Interval)
	assert.Equal(t, 10, cfg.Dispatch.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Dispatch.AttemptTimeout)
	assert.Equal(t, "notification-service-group", cfg.Kafka.GroupID)
	assert.Equal(t, []string{"trip-events", "payment-events", "driver-notifications"}, cfg.Kafka.Topics())
	assert.Equal(t, "notifications", cfg.Archive.Index)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.HTTP.Port = 8080
	cfg.Dispatch.Interval = 30 * time.Second
	cfg.Kafka.TripTopic = "custom-trips"
	applyDefaults(&cfg)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Dispatch.Interval)
	assert.Equal(t, "custom-trips", cfg.Kafka.TripTopic)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cfg *Config)
		expectOK bool
	}{
		{
			name:     "defaults are valid",
			mutate:   func(cfg *Config) {},
			expectOK: true,
		},
		{
			name: "zero batch size",
			mutate: func(cfg *Config) {
				cfg.Dispatch.BatchSize = -1
			},
		},
		{
			name: "sub-second interval",
			mutate: func(cfg *Config) {
				cfg.Dispatch.Interval = 100 * time.Millisecond
			},
		},
		{
			name: "email enabled without from address",
			mutate: func(cfg *Config) {
				cfg.Channels.Email.Enabled = true
			},
		},
		{
			name: "push enabled without gateway",
			mutate: func(cfg *Config) {
				cfg.Channels.Push.Enabled = true
			},
		},
		{
			name: "archive enabled without elasticsearch",
			mutate: func(cfg *Config) {
				cfg.Archive.Enabled = true
			},
		},
		{
			name: "email enabled with from address",
			mutate: func(cfg *Config) {
				cfg.Channels.Email.Enabled = true
				cfg.Channels.Email.FromEmail = "noreply@example.com"
			},
			expectOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			applyDefaults(&cfg)
			tt.mutate(&cfg)

			err := validateConfig(&cfg)
			if tt.expectOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "notifications",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=secret dbname=notifications sslmode=require",
		cfg.GetDSN(),
	)
}
