package deps

import (
	"time"

	"github.com/leadscout/leadscout/internal/credentials"
	"github.com/leadscout/leadscout/internal/engine"
	"github.com/leadscout/leadscout/internal/httpserver/mw"
	"github.com/leadscout/leadscout/internal/leadstore"
	"github.com/leadscout/leadscout/internal/ledger"
	"github.com/leadscout/leadscout/internal/logger"
	"github.com/leadscout/leadscout/internal/provider"
	"github.com/leadscout/leadscout/internal/push"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Credentials *credentials.Store
	Provider    *provider.Client
	Hub         *provider.HubClient
	Listener    *push.Listener
	Engine      *engine.Engine
	Leads       *leadstore.Store
	Ledger      ledger.Ledger

	SweepTrigger chan struct{} // channel to request an immediate sweep
	CallbackURL  string        // public /webhook URL handed to the hub
	HubLease     time.Duration
	OAuthState   string

	WebhookRate mw.RateLimitConfig
}
