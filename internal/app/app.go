package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/leadscout/leadscout/internal/config"
	"github.com/leadscout/leadscout/internal/credentials"
	"github.com/leadscout/leadscout/internal/engine"
	"github.com/leadscout/leadscout/internal/httpserver"
	"github.com/leadscout/leadscout/internal/httpserver/deps"
	"github.com/leadscout/leadscout/internal/httpserver/mw"
	"github.com/leadscout/leadscout/internal/leadstore"
	"github.com/leadscout/leadscout/internal/ledger"
	"github.com/leadscout/leadscout/internal/logger"
	"github.com/leadscout/leadscout/internal/provider"
	"github.com/leadscout/leadscout/internal/push"
	"github.com/leadscout/leadscout/internal/redis"
	"github.com/leadscout/leadscout/internal/scheduler"
	"github.com/leadscout/leadscout/internal/scoring"
	"github.com/leadscout/leadscout/internal/version"
)

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	creds     *credentials.Store
	client    *provider.Client
	engine    *engine.Engine
	ledger    ledger.Ledger
	sweeper   *scheduler.Sweeper
	debouncer *scheduler.Debouncer
	sweepCh   chan struct{}
}

func New() *App {
	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Ledger backend - fail fast if unavailable
	var led ledger.Ledger
	switch cfg.LedgerBackend {
	case "redis":
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		led = ledger.NewRedisLedger(redisClient)
		loggerClient.Info("redis ledger initialized")
	default:
		fileLedger, err := ledger.OpenFile(cfg.LedgerFile)
		if err != nil {
			loggerClient.Errorf("Failed to open ledger %s: %v", cfg.LedgerFile, err)
			os.Exit(1)
		}
		led = fileLedger
		loggerClient.Info("file ledger initialized", logger.String("path", cfg.LedgerFile))
	}

	leads, err := leadstore.New(cfg.LeadsFile)
	if err != nil {
		loggerClient.Errorf("Failed to open lead store %s: %v", cfg.LeadsFile, err)
		os.Exit(1)
	}

	creds := credentials.New(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{cfg.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}, cfg.RefreshToken)

	client := provider.NewClient(cfg.APIBaseURL, creds, cfg.CallSpacing)
	fetcher := provider.NewFetcher(client, creds)
	hub := provider.NewHubClient(cfg.HubURL)

	tables := scoring.DefaultTables()
	if cfg.KeywordsFile != "" {
		loaded, err := scoring.NewLoader(cfg.KeywordsFile).Load()
		if err != nil {
			loggerClient.Warn("failed to load keyword tables, using defaults",
				logger.String("file", cfg.KeywordsFile), logger.Error(err))
		} else {
			tables = loaded
		}
	}
	scorer := scoring.New(tables)

	eng := engine.New(engine.Config{
		SweepPageSize: cfg.SweepPageSize,
		SweepWorkers:  cfg.SweepWorkers,
		ItemTimeout:   cfg.ItemTimeout,
		Thresholds: scoring.Thresholds{
			Qualify: cfg.QualifyThreshold,
			High:    cfg.HighThreshold,
			Medium:  cfg.MediumThreshold,
		},
	}, client, fetcher, led, leads, scorer, creds, loggerClient)
	if cfg.ChannelID != "" {
		eng.SetChannel(cfg.ChannelID)
	}

	// Manual sweep trigger channel
	sweepTrigger := make(chan struct{}, 1)

	sweeper := scheduler.NewSweeper(eng.Sweep, loggerClient, cfg.SweepInterval, sweepTrigger)
	debouncer := scheduler.NewDebouncer(eng.ReconcileItem, loggerClient, cfg.DebounceDelay)
	listener := push.NewListener(debouncer, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		Credentials:  creds,
		Provider:     client,
		Hub:          hub,
		Listener:     listener,
		Engine:       eng,
		Leads:        leads,
		Ledger:       led,
		SweepTrigger: sweepTrigger,
		CallbackURL:  cfg.CallbackURL,
		HubLease:     cfg.HubLease,
		OAuthState:   cfg.OAuthState,
		WebhookRate: mw.RateLimitConfig{
			PerMinute: cfg.WebhookRatePerMinute,
			Burst:     cfg.WebhookRateBurst,
		},
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    server,
		creds:     creds,
		client:    client,
		engine:    eng,
		ledger:    led,
		sweeper:   sweeper,
		debouncer: debouncer,
		sweepCh:   sweepTrigger,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting LeadScout v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("LeadScout %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Headless runs with a seeded refresh token can resolve the channel
	// without the browser flow.
	if a.engine.Channel() == "" && a.creds.Authenticated() {
		a.resolveChannel(ctx)
	}

	a.debouncer.Start(ctx)
	a.logger.Info("debouncer started",
		logger.Duration("delay", a.cfg.DebounceDelay))

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	a.logger.Info("sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.sweeper.Stop()
	a.debouncer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.ledger.Close(); err != nil {
		a.logger.Warnf("failed to close ledger: %v", err)
	} else {
		a.logger.Info("✅ Ledger closed cleanly")
	}

	a.logger.Info("✅ LeadScout stopped cleanly")
	return nil
}

// resolveChannel asks the provider who we are and triggers a first
// sweep. Failures are non-fatal; the OAuth callback is the other path
// to a watched channel.
func (a *App) resolveChannel(ctx context.Context) {
	lookupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	channelID, err := a.client.MyChannel(lookupCtx)
	if err != nil {
		a.logger.Warn("could not resolve channel from seeded credentials",
			logger.Error(err))
		return
	}
	a.engine.SetChannel(channelID)
	a.logger.Info("watching channel", logger.String("channel_id", channelID))

	select {
	case a.sweepCh <- struct{}{}:
	default:
	}
}
