package adminclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the lifecycle position of the stored tokens.
type State int

const (
	// StateIdle means no tokens are stored yet.
	StateIdle State = iota
	StateValid
	// StateExpiring means the access token expires within the refresh buffer.
	StateExpiring
	StateRefreshing
	// StateInvalid means a refresh was rejected and the tokens were cleared.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValid:
		return "valid"
	case StateExpiring:
		return "expiring"
	case StateRefreshing:
		return "refreshing"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// DefaultRefreshBuffer is how long before expiry a token counts as expiring.
const DefaultRefreshBuffer = 5 * time.Minute

// Tokens is what the manager stores. An empty RefreshToken in a refresh
// result keeps the current one.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshFunc exchanges a refresh token for new tokens.
type RefreshFunc func(ctx context.Context, refreshToken string) (Tokens, error)

// TokenManager stores the session tokens and refreshes them on demand. At
// most one refresh runs at a time; concurrent callers share its result.
type TokenManager struct {
	mu         sync.Mutex
	tokens     Tokens
	has        bool
	invalid    bool
	refreshing bool

	group   singleflight.Group
	refresh RefreshFunc
	buffer  time.Duration
	now     func() time.Time
}

type TokenOption func(*TokenManager)

func WithRefreshBuffer(d time.Duration) TokenOption {
	return func(m *TokenManager) {
		if d >= 0 {
			m.buffer = d
		}
	}
}

func WithTokenClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewTokenManager(refresh RefreshFunc, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		refresh: refresh,
		buffer:  DefaultRefreshBuffer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set stores tokens after a login.
func (m *TokenManager) Set(t Tokens) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	m.has = t.AccessToken != ""
	m.invalid = false
}

// Clear drops the tokens and returns to idle.
func (m *TokenManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	m.has = false
	m.invalid = false
}

// Tokens returns a copy of the stored tokens.
func (m *TokenManager) Tokens() (Tokens, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, m.has
}

func (m *TokenManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *TokenManager) stateLocked() State {
	switch {
	case m.refreshing:
		return StateRefreshing
	case !m.has && m.invalid:
		return StateInvalid
	case !m.has:
		return StateIdle
	case !m.now().Before(m.tokens.ExpiresAt.Add(-m.buffer)):
		return StateExpiring
	default:
		return StateValid
	}
}

// AccessToken returns a token fit to send, refreshing first when the stored
// one is expiring or a refresh is already in flight.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	state := m.stateLocked()
	tok := m.tokens.AccessToken
	m.mu.Unlock()

	switch state {
	case StateValid:
		return tok, nil
	case StateIdle, StateInvalid:
		return "", ErrNotAuthenticated
	default:
		return m.doRefresh(ctx, tok)
	}
}

// ForceRefresh refreshes after the server rejected stale. If another caller
// already replaced stale, the newer token is returned without a refresh.
func (m *TokenManager) ForceRefresh(ctx context.Context, stale string) (string, error) {
	m.mu.Lock()
	has, current, refreshing := m.has, m.tokens.AccessToken, m.refreshing
	m.mu.Unlock()

	if !has && !refreshing {
		return "", ErrNotAuthenticated
	}
	if has && !refreshing && current != stale {
		return current, nil
	}
	return m.doRefresh(ctx, stale)
}

func (m *TokenManager) doRefresh(ctx context.Context, stale string) (string, error) {
	ch := m.group.DoChan("refresh", func() (any, error) {
		return m.runRefresh(context.WithoutCancel(ctx), stale)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// runRefresh performs the single in-flight refresh. A rejected refresh
// clears the tokens; a transient failure keeps them for the next attempt.
// A caller that saw stale after another refresh already replaced it gets
// the replacement.
func (m *TokenManager) runRefresh(ctx context.Context, stale string) (string, error) {
	m.mu.Lock()
	if !m.has {
		m.mu.Unlock()
		return "", ErrNotAuthenticated
	}
	if m.tokens.AccessToken != stale && m.stateLocked() == StateValid {
		tok := m.tokens.AccessToken
		m.mu.Unlock()
		return tok, nil
	}
	refreshToken := m.tokens.RefreshToken
	m.refreshing = true
	m.mu.Unlock()

	next, err := m.refresh(ctx, refreshToken)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshing = false
	if err != nil {
		if isAuthRejection(err) {
			m.tokens = Tokens{}
			m.has = false
			m.invalid = true
			return "", fmt.Errorf("%w: refresh rejected: %w", ErrNotAuthenticated, err)
		}
		return "", err
	}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}
	m.tokens = next
	m.has = next.AccessToken != ""
	m.invalid = !m.has
	return next.AccessToken, nil
}
