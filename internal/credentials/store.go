package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

var (
	// ErrNotAuthenticated means no access token is held yet.
	ErrNotAuthenticated = errors.New("credentials: not authenticated")
	// ErrNoRefreshToken means a refresh was requested with nothing to refresh with.
	ErrNoRefreshToken = errors.New("credentials: no refresh token held")
)

// refreshCall is one in-flight refresh; racers block on done and share
// the result instead of issuing their own request.
type refreshCall struct {
	done chan struct{}
	tok  *oauth2.Token
	err  error
}

// Store owns the provider credentials for this process. The access
// token is replaced wholesale on refresh; the refresh token is stable
// for the session.
//
// Refresh is single-flight: some providers invalidate refresh tokens
// on excessive refresh calls, so de-duplicating concurrent refreshes is
// a correctness requirement, not an optimization.
type Store struct {
	cfg *oauth2.Config

	mu           sync.Mutex
	tok          *oauth2.Token
	refreshToken string
	inflight     *refreshCall
}

// New creates a Store. seedRefreshToken may be empty; when set it lets
// the process run headless, refreshing its way to a first access token
// without going through the browser flow.
func New(cfg *oauth2.Config, seedRefreshToken string) *Store {
	return &Store{cfg: cfg, refreshToken: seedRefreshToken}
}

// AuthCodeURL returns the provider consent URL for the browser flow.
// Offline access is requested so the provider hands back a refresh token.
func (s *Store) AuthCodeURL(state string) string {
	return s.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange swaps an authorization code for tokens and stores them.
func (s *Store) Exchange(ctx context.Context, code string) error {
	tok, err := s.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	s.mu.Lock()
	s.tok = tok
	if tok.RefreshToken != "" {
		s.refreshToken = tok.RefreshToken
	}
	s.mu.Unlock()
	return nil
}

// Token returns the current access token, or ErrNotAuthenticated when
// none is held. It never refreshes; callers decide when to refresh.
func (s *Store) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil || s.tok.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	return s.tok.AccessToken, nil
}

// Authenticated reports whether the store can produce an access token,
// either directly or by refreshing.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.tok != nil && s.tok.AccessToken != "") || s.refreshToken != ""
}

// Refresh exchanges the refresh token for a new access token. Only one
// refresh is ever in flight; concurrent callers wait for it and reuse
// its result. Returns the new access token.
func (s *Store) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return "", call.err
			}
			return call.tok.AccessToken, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.refreshToken == "" {
		s.mu.Unlock()
		return "", ErrNoRefreshToken
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	refreshToken := s.refreshToken
	s.mu.Unlock()

	tok, err := s.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		err = fmt.Errorf("failed to refresh access token: %w", err)
	}

	s.mu.Lock()
	s.inflight = nil
	if err == nil {
		s.tok = tok
		if tok.RefreshToken != "" {
			s.refreshToken = tok.RefreshToken
		}
	}
	s.mu.Unlock()

	call.tok, call.err = tok, err
	close(call.done)

	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Redact shortens a token for logging. Tokens are never logged in full.
func Redact(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:6] + "..."
}
