package provider

import "errors"

var (
	// ErrAuthExpired is the transport's authorization-expired signal
	// (HTTP 401). The client refreshes once and retries before
	// surfacing it; callers seeing it have already burned that refresh.
	ErrAuthExpired = errors.New("provider: access token expired")

	// ErrTransient marks network failures and 5xx responses. The client
	// does not auto-retry; that decision belongs to the caller.
	ErrTransient = errors.New("provider: transient fetch failure")
)
