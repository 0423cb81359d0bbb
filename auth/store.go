package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Refresh failure sentinels. ClassifyError wraps refresh function
// failures with ErrRefreshFailed by default; match with errors.Is.
var (
	ErrRefreshFailed  = errors.New("auth: token refresh failed")
	ErrNoRefreshFunc  = errors.New("auth: no refresh function configured")
	ErrNoRefreshToken = errors.New("auth: no refresh token")
)

const defaultLeeway = time.Minute

// Tokens is a snapshot of bearer credentials. Expiry is zero when unknown.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// IsZero reports whether the snapshot holds no credentials.
func (t Tokens) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// sameCredentials reports whether two snapshots hold the same token pair.
func (t Tokens) sameCredentials(o Tokens) bool {
	return t.AccessToken == o.AccessToken && t.RefreshToken == o.RefreshToken
}

// RefreshFunc exchanges a refresh token for fresh credentials. The
// store does not know the token endpoint's wire format; callers supply
// the network call.
type RefreshFunc func(ctx context.Context, refreshToken string) (Tokens, error)

// Config configures a Store.
type Config struct {
	// Refresh is the token endpoint call invoked by Refresh.
	Refresh RefreshFunc

	// Leeway is how long before the stored expiry a token counts as
	// stale for NeedsRefresh. Defaults to one minute.
	Leeway time.Duration

	// ClassifyError maps a refresh function failure to the error
	// broadcast to waiters. The default wraps every failure with
	// ErrRefreshFailed; callers whose token endpoint distinguishes
	// transient failures can remap here.
	ClassifyError func(error) error
}

func (c *Config) applyDefaults() {
	if c.Leeway <= 0 {
		c.Leeway = defaultLeeway
	}
	if c.ClassifyError == nil {
		c.ClassifyError = func(err error) error {
			return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
	}
}

// refreshCall is one in-flight refresh. Waiters block on done; the
// result fields are written before done is closed.
type refreshCall struct {
	done   chan struct{}
	tokens Tokens
	err    error
}

// Store holds the current token pair and serializes refresh. It is the
// single piece of shared mutable state in the client core; all
// mutation goes through SetTokens, Clear, and the commit inside the
// refresh worker, so reads never observe a half-written pair.
type Store struct {
	cfg Config

	mu       sync.Mutex
	tokens   Tokens
	inflight *refreshCall
}

// NewStore creates a token store.
func NewStore(cfg Config) *Store {
	cfg.applyDefaults()
	return &Store{cfg: cfg}
}

// SetTokens atomically replaces the stored credentials. When the
// access token is a JWT, its exp claim populates the expiry.
func (s *Store) SetTokens(access, refresh string) {
	t := Tokens{AccessToken: access, RefreshToken: refresh}
	if exp, ok := TokenExpiry(access); ok {
		t.Expiry = exp
	}
	s.mu.Lock()
	s.tokens = t
	s.mu.Unlock()
}

// Clear atomically drops the stored credentials. Idempotent. An
// in-flight refresh is not cancelled; its result is discarded when it
// completes (see Refresh).
func (s *Store) Clear() {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.mu.Unlock()
}

// AccessToken returns a snapshot of the current access token. The
// second result is false when no token is stored.
func (s *Store) AccessToken() (string, bool) {
	s.mu.Lock()
	token := s.tokens.AccessToken
	s.mu.Unlock()
	return token, token != ""
}

// Current returns a snapshot of the stored credentials.
func (s *Store) Current() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// NeedsRefresh reports whether the stored token's known expiry, minus
// the configured leeway, has passed. Tokens without a known expiry
// never report stale; the 401 path handles them.
func (s *Store) NeedsRefresh() bool {
	s.mu.Lock()
	t := s.tokens
	s.mu.Unlock()
	if t.AccessToken == "" || t.Expiry.IsZero() {
		return false
	}
	return time.Until(t.Expiry) <= s.cfg.Leeway
}

// Refresh obtains fresh credentials, invoking the configured
// RefreshFunc at most once per refresh window: the first caller
// triggers the call, callers arriving while it is in flight join it
// and receive the same tokens or the same failure. On failure the
// stored credentials are cleared and every waiter gets the classified
// error.
//
// A caller whose context ends while waiting returns its context error,
// but the refresh keeps running for the remaining waiters.
func (s *Store) Refresh(ctx context.Context) (Tokens, error) {
	if s.cfg.Refresh == nil {
		return Tokens{}, ErrNoRefreshFunc
	}

	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		return s.wait(ctx, call)
	}
	from := s.tokens
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	go s.run(ctx, call, from)
	return s.wait(ctx, call)
}

// run performs the refresh network call and commits the result. It
// runs detached from the triggering caller's cancellation so joiners
// are always served.
func (s *Store) run(ctx context.Context, call *refreshCall, from Tokens) {
	var tokens Tokens
	var err error
	if from.RefreshToken == "" {
		err = ErrNoRefreshToken
	} else {
		tokens, err = s.cfg.Refresh(context.WithoutCancel(ctx), from.RefreshToken)
	}
	if err != nil {
		err = s.cfg.ClassifyError(err)
	}

	s.mu.Lock()
	s.inflight = nil
	// Commit only when the credentials this refresh started from are
	// still the stored ones. A SetTokens or Clear that landed while
	// the call was in flight wins: committing anyway would resurrect
	// credentials the caller already replaced or revoked.
	if s.tokens.sameCredentials(from) {
		if err != nil {
			s.tokens = Tokens{}
		} else {
			s.tokens = tokens
		}
	}
	s.mu.Unlock()

	call.tokens = tokens
	call.err = err
	close(call.done)
}

// wait blocks until the in-flight refresh completes or ctx ends.
func (s *Store) wait(ctx context.Context, call *refreshCall) (Tokens, error) {
	select {
	case <-call.done:
		return call.tokens, call.err
	case <-ctx.Done():
		return Tokens{}, ctx.Err()
	}
}
