package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sundayezeilo/shortenctl/internal/config"
	"github.com/sundayezeilo/shortenctl/internal/credentials"
	"github.com/sundayezeilo/shortenctl/internal/history"
	"github.com/sundayezeilo/shortenctl/internal/server"
	"github.com/sundayezeilo/shortenctl/internal/shortener"
)

// DefaultEnvFile is loaded when SHORTENCTL_ENV_FILE is not set.
const DefaultEnvFile = ".env"

// App holds the application dependencies and configuration.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Credentials *credentials.Store
	Registry    *prometheus.Registry // nil when metrics are disabled
	Client      *shortener.Client
	History     history.Repository // nil when history is disabled
	Server      *server.Server
}

// Options overrides parts of the bootstrap, mostly for tests.
type Options struct {
	LogOutput  io.Writer      // defaults to os.Stderr
	HTTPClient shortener.Doer // defaults to http.DefaultClient
	Config     *config.Config // skips .env and environment loading when set
	Version    string         // build version, used when SERVICE_VERSION is unset
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cfg := opts.Config
	envLoaded := false
	if cfg == nil {
		loaded, err := loadEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load environment: %w", err)
		}
		envLoaded = loaded

		cfg, err = config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		applyBuildVersion(cfg, opts.Version, os.LookupEnv)
	}

	logger := setupLogger(cfg.App.LogLevel, opts.LogOutput)
	slog.SetDefault(logger)
	if !envLoaded && opts.Config == nil {
		logger.Debug("no .env file found")
	}

	logger.Debug("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
	)

	store, err := credentials.Load(cfg.Credentials.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	for _, id := range store.Missing() {
		logger.Debug("no API key configured", "service", id.String(), "key", id.CredentialKey())
	}

	var registry *prometheus.Registry
	var metrics *shortener.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = shortener.NewMetrics(registry)
	}

	repo, err := history.Open(ctx, history.Options{
		Driver:      cfg.History.Driver,
		BoltPath:    cfg.History.BoltPath,
		DatabaseURL: cfg.History.DatabaseURL,
		MaxConns:    cfg.History.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	clientConfig := &shortener.ClientConfig{
		Endpoints: shortener.Endpoints{
			Cuty:     cfg.Providers.CutyEndpoint,
			Ouo:      cfg.Providers.OuoEndpoint,
			Shrinkme: cfg.Providers.ShrinkmeEndpoint,
		},
		HTTPClient:  opts.HTTPClient,
		Credentials: store,
		Metrics:     metrics,
		Logger:      logger,
		UserAgent:   cfg.Observability.ServiceName + "/" + cfg.Observability.ServiceVersion,
	}

	handlers := server.Handlers{}
	if repo != nil {
		clientConfig.Sink = history.NewSink(repo, nil)
		handlers.History = history.NewHandler(history.HandlerConfig{
			Repository: repo,
			Logger:     logger,
		})
		logger.Debug("history enabled", "driver", cfg.History.Driver)
	}

	client := shortener.NewClient(clientConfig)
	handlers.Shortener = shortener.NewHandler(shortener.HandlerConfig{
		Shortener: client,
		Logger:    logger,
	})

	srv := server.New(cfg, logger, handlers, registry)

	return &App{
		Config:      cfg,
		Logger:      logger,
		Credentials: store,
		Registry:    registry,
		Client:      client,
		History:     repo,
		Server:      srv,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"addr", a.Config.Server.Addr(),
		"history", a.Config.History.Driver,
		"metrics", a.Config.Observability.MetricsEnabled,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown releases resources held by the application.
func (a *App) Shutdown() error {
	a.Logger.Debug("shutting down application")

	if a.History != nil {
		if err := a.History.Close(); err != nil {
			return fmt.Errorf("failed to close history: %w", err)
		}
		a.Logger.Debug("history closed")
	}

	return nil
}

// loadEnv loads the .env file named by SHORTENCTL_ENV_FILE into the process
// environment. Variables already set are not overwritten. A missing file is
// not an error.
func loadEnv() (bool, error) {
	path := os.Getenv("SHORTENCTL_ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// applyBuildVersion reports the binary's build version unless SERVICE_VERSION
// was set explicitly, in the environment or the .env file.
func applyBuildVersion(cfg *config.Config, version string, lookupEnv func(string) (string, bool)) {
	if version == "" {
		return
	}
	if _, ok := lookupEnv("SERVICE_VERSION"); ok {
		return
	}
	cfg.Observability.ServiceVersion = version
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler)
}
