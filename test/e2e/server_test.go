package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sundayezeilo/shortenctl/internal/app"
	"github.com/sundayezeilo/shortenctl/internal/config"
	"github.com/sundayezeilo/shortenctl/internal/history"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

// testApp holds a fully wired application behind an httptest server.
type testApp struct {
	app     *app.App
	api     *httptest.Server
	cleanup func()
}

// providerStubs serves the three provider APIs on one test server:
// /cuty and /shrinkme speak JSON, /ouo answers in plain text.
func providerStubs(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cuty", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api") != "cuty-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"status":"error","message":"Invalid API token"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","shortenedUrl":"http://a.io/xyz"}`)
	})
	mux.HandleFunc("GET /ouo/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ouo/ouo-key=") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = io.WriteString(w, "http://b.io/abc\n")
	})
	mux.HandleFunc("GET /shrinkme", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "bad" {
			_, _ = io.WriteString(w, `{"status":"error"}`)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","shortenedUrl":"https://shrinkme.io/q1"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// setupTestApp creates a test application with a real database
func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	stubs := providerStubs(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	keys := "CUTY_API_KEY=cuty-key\nOUO_API_KEY=ouo-key\nSHRINKME_API_KEY=shrinkme-key\n"
	if err := os.WriteFile(envFile, []byte(keys), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	cfg := &config.Config{
		App:         config.AppConfig{Environment: "test", LogLevel: "error"},
		Credentials: config.CredentialsConfig{EnvFile: envFile},
		Providers: config.ProvidersConfig{
			CutyEndpoint:     stubs.URL + "/cuty",
			OuoEndpoint:      stubs.URL + "/ouo",
			ShrinkmeEndpoint: stubs.URL + "/shrinkme",
		},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            "0",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		History: config.HistoryConfig{
			Driver:      "postgres",
			DatabaseURL: connStr,
			MaxConns:    4,
		},
		Observability: config.ObservabilityConfig{
			ServiceName:    "shortenctl-test",
			ServiceVersion: "test",
			MetricsEnabled: true,
		},
	}

	application, err := app.New(ctx, &app.Options{Config: cfg, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	api := httptest.NewServer(application.Server.Handler())

	cleanup := func() {
		api.Close()
		if err := application.Shutdown(); err != nil {
			t.Errorf("failed to shut down app: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}

	return &testApp{app: application, api: api, cleanup: cleanup}
}

func (a *testApp) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	resp, err := http.Post(a.api.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp, decoded
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(a.api.URL + path)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, body
}

func TestShortenAPI_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
		expectedShort  string
		expectedMsg    string
	}{
		{
			name:           "cuty success",
			requestBody:    map[string]string{"service": "cuty.io", "url": "http://example.com"},
			expectedStatus: http.StatusOK,
			expectedShort:  "http://a.io/xyz",
		},
		{
			name:           "ouo success trims the body",
			requestBody:    map[string]string{"service": "ouo.io", "url": "http://example.com"},
			expectedStatus: http.StatusOK,
			expectedShort:  "http://b.io/abc",
		},
		{
			name:           "shrinkme failure uses the fallback message",
			requestBody:    map[string]string{"service": "shrinkme", "url": "bad"},
			expectedStatus: http.StatusBadGateway,
			expectedMsg:    shortener.UnknownErrorMessage,
		},
		{
			name:           "empty url",
			requestBody:    map[string]string{"service": "cuty", "url": "   "},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "url cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.post(t, "/api/shorten", tt.requestBody)

			if resp.StatusCode != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%v)", tt.expectedStatus, resp.StatusCode, body)
			}
			if tt.expectedShort != "" && body["short_url"] != tt.expectedShort {
				t.Errorf("expected short_url %s, got %v", tt.expectedShort, body["short_url"])
			}
			if tt.expectedMsg != "" && body["message"] != tt.expectedMsg {
				t.Errorf("expected message %q, got %v", tt.expectedMsg, body["message"])
			}
		})
	}
}

func TestBatchAndHistory_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	resp, body := app.post(t, "/api/shorten/batch", map[string]any{
		"service": "shrinkme.io",
		"urls":    []string{"http://a.com", "bad", "http://c.com"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%v)", resp.StatusCode, body)
	}

	results, ok := body["results"].([]any)
	if !ok || len(results) != 3 {
		t.Fatalf("expected 3 results, got %v", body["results"])
	}
	if body["failed"] != float64(1) {
		t.Errorf("expected 1 failure, got %v", body["failed"])
	}
	second := results[1].(map[string]any)
	if second["original_url"] != "bad" || second["error"] == nil {
		t.Errorf("expected second result to be the failure, got %v", second)
	}

	resp, raw := app.get(t, "/api/history?limit=10")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var list history.ListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(list.Records) != 3 {
		t.Fatalf("expected 3 history records, got %d", len(list.Records))
	}

	// newest first
	wantOrder := []string{"http://c.com", "bad", "http://a.com"}
	for i, rec := range list.Records {
		if rec.OriginalURL != wantOrder[i] {
			t.Errorf("record %d: expected %s, got %s", i, wantOrder[i], rec.OriginalURL)
		}
	}
	if list.Records[1].ErrorKind != "provider" || list.Records[1].ErrorMessage != shortener.UnknownErrorMessage {
		t.Errorf("unexpected failure record: %+v", list.Records[1])
	}
}

func TestServicesAndMetrics_E2E(t *testing.T) {
	app := setupTestApp(t)
	defer app.cleanup()

	resp, raw := app.get(t, "/api/services")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	for _, name := range []string{"cuty.io", "ouo.io", "shrinkme.io"} {
		if !strings.Contains(string(raw), name) {
			t.Errorf("expected %s in services response", name)
		}
	}

	app.post(t, "/api/shorten", map[string]string{"service": "ouo", "url": "http://example.com"})

	resp, raw = app.get(t, "/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	want := `shortenctl_provider_requests_total{outcome="success",service="ouo"} 1`
	if !strings.Contains(string(raw), want) {
		t.Errorf("expected metrics to contain %s", want)
	}
}
