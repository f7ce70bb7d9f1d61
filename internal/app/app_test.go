package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/shortenctl/internal/config"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CUTY_API_KEY=cuty-key\n"), 0o600))

	return &config.Config{
		App:         config.AppConfig{Environment: "test", LogLevel: "debug"},
		Credentials: config.CredentialsConfig{EnvFile: envFile},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			IdleTimeout:     time.Second,
			ShutdownTimeout: time.Second,
		},
		History: config.HistoryConfig{Driver: "bolt", BoltPath: filepath.Join(dir, "history.db")},
		Observability: config.ObservabilityConfig{
			ServiceName:    "shortenctl",
			ServiceVersion: "1.0.0",
			MetricsEnabled: true,
		},
	}
}

func TestNew_WiresComponents(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(t)

	a, err := New(context.Background(), &Options{Config: cfg, LogOutput: &logs})
	require.NoError(t, err)
	defer a.Shutdown()

	assert.NotNil(t, a.Registry)
	assert.NotNil(t, a.History)
	assert.NotNil(t, a.Server)
	assert.True(t, a.Client.HasCredential(shortener.Cuty))
	assert.False(t, a.Client.HasCredential(shortener.Ouo))
	assert.Contains(t, logs.String(), `"msg":"no API key configured"`)
}

func TestNew_SendsConfiguredUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = io.WriteString(w, `{"status":"success","shortenedUrl":"http://a.io/xyz"}`)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.History.Driver = "none"
	cfg.Providers.CutyEndpoint = srv.URL

	a, err := New(context.Background(), &Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)
	defer a.Shutdown()

	short, err := a.Client.Shorten(context.Background(), shortener.Request{Service: shortener.Cuty, LongURL: "http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "http://a.io/xyz", short)
	assert.Equal(t, "shortenctl/1.0.0", gotUA)
}

func TestApplyBuildVersion(t *testing.T) {
	unset := func(string) (string, bool) { return "", false }
	set := func(key string) (string, bool) { return "9.9.9", key == "SERVICE_VERSION" }

	tests := []struct {
		name    string
		version string
		lookup  func(string) (string, bool)
		want    string
	}{
		{"build version fills the default", "1.4.0", unset, "1.4.0"},
		{"explicit SERVICE_VERSION wins", "1.4.0", set, "dev"},
		{"empty build version keeps config", "", unset, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Observability: config.ObservabilityConfig{ServiceVersion: "dev"}}
			applyBuildVersion(cfg, tt.version, tt.lookup)
			assert.Equal(t, tt.want, cfg.Observability.ServiceVersion)
		})
	}
}

func TestNew_HistoryAndMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Driver = "none"
	cfg.Observability.MetricsEnabled = false

	a, err := New(context.Background(), &Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Nil(t, a.History)
	assert.Nil(t, a.Registry)
	assert.NoError(t, a.Shutdown())
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Driver = "none"

	a, err := New(context.Background(), &Options{Config: cfg, LogOutput: &bytes.Buffer{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after context cancellation")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("loads file into the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("SHORTENCTL_LOADENV_TEST=hello\n"), 0o600))
		t.Setenv("SHORTENCTL_ENV_FILE", path)
		t.Cleanup(func() { _ = os.Unsetenv("SHORTENCTL_LOADENV_TEST") })

		loaded, err := loadEnv()
		require.NoError(t, err)
		assert.True(t, loaded)
		assert.Equal(t, "hello", os.Getenv("SHORTENCTL_LOADENV_TEST"))
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		t.Setenv("SHORTENCTL_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

		loaded, err := loadEnv()
		require.NoError(t, err)
		assert.False(t, loaded)
	})
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := setupLogger(tt.level, &buf)

			logger.Debug("debug line")
			logger.Info("info line")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "info line"))
		})
	}
}
