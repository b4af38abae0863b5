package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_WithValidConfig(t *testing.T) {
	setEnv(t, "FRAUD_API_KEY", "test-key")
	setEnv(t, "PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "test-key", cfg.FraudAPIKey)
	assert.Equal(t, DefaultGeoAPIURL, cfg.GeoAPIURL)
	assert.Equal(t, DefaultFraudAPIURL, cfg.FraudAPIURL)
	assert.Equal(t, DefaultModelPath, cfg.ModelPath)
	assert.Equal(t, DefaultEnrichTimeout, cfg.EnrichTimeout)
}

func TestLoad_MissingFraudAPIKey(t *testing.T) {
	setEnv(t, "FRAUD_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "FRAUD_API_KEY is required")
}

func TestLoad_EnrichTimeoutOverride(t *testing.T) {
	setEnv(t, "FRAUD_API_KEY", "test-key")
	setEnv(t, "ENRICH_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.EnrichTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid config",
			config: Config{
				FraudAPIKey:   "key",
				GeoAPIURL:     DefaultGeoAPIURL,
				FraudAPIURL:   DefaultFraudAPIURL,
				EnrichTimeout: time.Second,
			},
			wantErr: "",
		},
		{
			name: "missing fraud key",
			config: Config{
				GeoAPIURL:     DefaultGeoAPIURL,
				FraudAPIURL:   DefaultFraudAPIURL,
				EnrichTimeout: time.Second,
			},
			wantErr: "FRAUD_API_KEY",
		},
		{
			name: "missing geo URL",
			config: Config{
				FraudAPIKey:   "key",
				FraudAPIURL:   DefaultFraudAPIURL,
				EnrichTimeout: time.Second,
			},
			wantErr: "GEO_API_URL",
		},
		{
			name: "non-positive timeout",
			config: Config{
				FraudAPIKey: "key",
				GeoAPIURL:   DefaultGeoAPIURL,
				FraudAPIURL: DefaultFraudAPIURL,
			},
			wantErr: "ENRICH_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ChannelToggles(t *testing.T) {
	cfg := Config{}
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.SMSEnabled())

	cfg.EmailSender = "alerts@example.com"
	cfg.EmailRecipient = "soc@example.com"
	assert.True(t, cfg.EmailEnabled())

	cfg.SMSAccountSID = "AC123"
	cfg.SMSFrom = "+15550001111"
	cfg.SMSTo = "+15550002222"
	assert.True(t, cfg.SMSEnabled())
}

func TestConfig_EnvHelpers(t *testing.T) {
	dev := Config{Env: "development"}
	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())

	prod := Config{Env: "production"}
	assert.True(t, prod.IsProduction())
	assert.False(t, prod.IsDevelopment())
}
