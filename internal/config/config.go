package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":7070"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// OAuth / provider endpoints
	ClientID     string
	ClientSecret string
	RedirectURL  string // our /oauth2callback URL as registered with the provider
	Scope        string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
	HubURL       string
	CallbackURL  string // our /webhook URL as given to the push hub
	OAuthState   string

	// Optional seeds for headless runs (no browser flow)
	RefreshToken string
	ChannelID    string

	// Reconciliation
	SweepInterval time.Duration // periodic poll across recent items
	SweepPageSize int64         // how many recent items one sweep inspects
	SweepWorkers  int           // per-item parallelism within a sweep
	ItemTimeout   time.Duration // soft deadline for one item's reconciliation
	CallSpacing   time.Duration // minimum delay between remote calls
	DebounceDelay time.Duration // wait between announcement and targeted fetch
	HubLease      time.Duration // push subscription lease

	// Scoring thresholds
	QualifyThreshold int
	HighThreshold    int
	MediumThreshold  int
	KeywordsFile     string // optional YAML override for keyword tables

	// Webhook intake limits
	WebhookRatePerMinute int // per-IP sustained rate on /webhook
	WebhookRateBurst     int // per-IP burst allowance on /webhook

	// Storage
	LedgerBackend string // "file" | "redis"
	LedgerFile    string
	LeadsFile     string

	// Redis (only used when LedgerBackend == "redis")
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
	RedisWarnThreshold  int
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LEADSCOUT_LISTEN_PORT", ":7070"),
		ShutdownTimeout: mustDuration("LEADSCOUT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LEADSCOUT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LEADSCOUT_PRETTY_LOG", true),

		// Provider / OAuth
		ClientID:     requireEnv("LEADSCOUT_CLIENT_ID"),
		ClientSecret: requireEnv("LEADSCOUT_CLIENT_SECRET"),
		RedirectURL:  requireEnv("LEADSCOUT_REDIRECT_URL"),
		CallbackURL:  requireEnv("LEADSCOUT_CALLBACK_URL"),
		Scope:        getenv("LEADSCOUT_SCOPE", "https://www.googleapis.com/auth/youtube.readonly"),
		AuthURL:      getenv("LEADSCOUT_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
		TokenURL:     getenv("LEADSCOUT_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		APIBaseURL:   getenv("LEADSCOUT_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
		HubURL:       getenv("LEADSCOUT_HUB_URL", "https://pubsubhubbub.appspot.com/subscribe"),
		OAuthState:   getenv("LEADSCOUT_OAUTH_STATE", "leadscout"),
		RefreshToken: getenv("LEADSCOUT_REFRESH_TOKEN", ""),
		ChannelID:    getenv("LEADSCOUT_CHANNEL_ID", ""),

		// Reconciliation
		SweepInterval: mustDuration("LEADSCOUT_SWEEP_INTERVAL", 5*time.Minute),
		SweepPageSize: int64(getenvInt("LEADSCOUT_SWEEP_PAGE_SIZE", 50)),
		SweepWorkers:  getenvInt("LEADSCOUT_SWEEP_WORKERS", 4),
		ItemTimeout:   mustDuration("LEADSCOUT_ITEM_TIMEOUT", 2*time.Minute),
		CallSpacing:   mustDuration("LEADSCOUT_CALL_SPACING", 100*time.Millisecond),
		DebounceDelay: mustDuration("LEADSCOUT_DEBOUNCE_DELAY", 30*time.Second),
		HubLease:      mustDuration("LEADSCOUT_HUB_LEASE", 240*time.Hour),

		// Scoring
		QualifyThreshold: getenvInt("LEADSCOUT_QUALIFY_THRESHOLD", 5),
		HighThreshold:    getenvInt("LEADSCOUT_HIGH_THRESHOLD", 10),
		MediumThreshold:  getenvInt("LEADSCOUT_MEDIUM_THRESHOLD", 7),
		KeywordsFile:     getenv("LEADSCOUT_KEYWORDS_FILE", ""),

		// Webhook intake
		WebhookRatePerMinute: getenvInt("LEADSCOUT_WEBHOOK_RATE_PER_MINUTE", 120),
		WebhookRateBurst:     getenvInt("LEADSCOUT_WEBHOOK_RATE_BURST", 20),

		// Storage
		LedgerBackend: getenv("LEADSCOUT_LEDGER_BACKEND", "file"),
		LedgerFile:    getenv("LEADSCOUT_LEDGER_FILE", "data/ledger.json"),
		LeadsFile:     getenv("LEADSCOUT_LEADS_FILE", "data/leads.jsonl"),

		// Redis
		RedisAddr:           getenv("LEADSCOUT_REDIS_ADDR", ""),
		RedisUser:           getenv("LEADSCOUT_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("LEADSCOUT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("LEADSCOUT_REDIS_DB", 0),
		RedisConnectTimeout: mustDuration("LEADSCOUT_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("LEADSCOUT_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("LEADSCOUT_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("LEADSCOUT_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("LEADSCOUT_REDIS_WARN_THRESHOLD", 3),
	}

	if cfg.LedgerBackend != "file" && cfg.LedgerBackend != "redis" {
		panic(fmt.Sprintf("FATAL: invalid LEADSCOUT_LEDGER_BACKEND %q (use 'file' or 'redis')", cfg.LedgerBackend))
	}
	if cfg.LedgerBackend == "redis" && cfg.RedisAddr == "" {
		panic("FATAL: LEADSCOUT_REDIS_ADDR is required when LEADSCOUT_LEDGER_BACKEND=redis")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.ClientSecret = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfgCopy.RefreshToken != "" {
			cfgCopy.RefreshToken = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
