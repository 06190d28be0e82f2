package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Upload:    UploadConfig{MaxBytes: 1 << 20},
		Watch:     WatchConfig{MaxRetries: 3},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		WebSocket: WebSocketConfig{},
		App:       AppConfig{Environment: "development"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("WATCH_ENABLED", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, int64(20<<20), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "dispatch-analytics", cfg.App.Name)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("UPLOAD_MAX_BYTES", "1024")
	t.Setenv("WATCH_ENABLED", "true")
	t.Setenv("WATCH_DIR", "/var/dispatch/inbox")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "/var/dispatch/inbox", cfg.Watch.Dir)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "watch enabled without dir",
			mutate:  func(c *Config) { c.Watch.Enabled = true },
			wantErr: "WATCH_DIR is required",
		},
		{
			name:    "non-positive upload limit",
			mutate:  func(c *Config) { c.Upload.MaxBytes = 0 },
			wantErr: "UPLOAD_MAX_BYTES must be positive",
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Watch.MaxRetries = -1 },
			wantErr: "WATCH_MAX_RETRIES cannot be negative",
		},
		{
			name: "production requires websocket origins",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.CORS.AllowedOrigins = []string{"https://dash.example"}
			},
			wantErr: "WS_ALLOWED_ORIGINS must be set in production",
		},
		{
			name: "production rejects wildcard cors",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.WebSocket.AllowedOrigins = []string{"https://dash.example"}
			},
			wantErr: "CORS_ALLOWED_ORIGINS cannot be *",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetStringSliceOrDefault(t *testing.T) {
	t.Setenv("TEST_SLICE", " a , ,b ")
	assert.Equal(t, []string{"a", "b"}, getStringSliceOrDefault("TEST_SLICE", nil))

	t.Setenv("TEST_SLICE", " , ")
	assert.Equal(t, []string{"x"}, getStringSliceOrDefault("TEST_SLICE", []string{"x"}))
}
