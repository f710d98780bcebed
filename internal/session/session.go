// Package session owns the process-local view of the authenticated session.
//
// Auth wraps the remote auth service: it mirrors the current session, persists
// it between runs, and notifies listeners registered with OnChange whenever it
// changes. Listeners are cancelable; nothing here is global.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/naveenspark/tally/pkg/client"
	"github.com/naveenspark/tally/pkg/domain"
)

// MinPasswordLen is the shortest password accepted client-side.
const MinPasswordLen = 6

// Client-side validation and state errors.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	ErrNotSignedIn      = errors.New("user not authenticated")
)

// Event names the kind of session change delivered to listeners.
type Event int

const (
	EventInitialSession Event = iota
	EventSignedIn
	EventSignedOut
	EventTokenRefreshed
)

func (e Event) String() string {
	switch e {
	case EventInitialSession:
		return "INITIAL_SESSION"
	case EventSignedIn:
		return "SIGNED_IN"
	case EventSignedOut:
		return "SIGNED_OUT"
	case EventTokenRefreshed:
		return "TOKEN_REFRESHED"
	}
	return "UNKNOWN"
}

// Listener receives session changes. s is nil after sign-out.
type Listener func(e Event, s *domain.Session)

// API is the subset of the remote auth service used by Auth.
type API interface {
	SignUp(ctx context.Context, email, password string) (*domain.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOut(ctx context.Context) error
	SetToken(token string)
}

// Persister stores a session between runs.
type Persister interface {
	Load() (*domain.Session, error)
	Save(s *domain.Session) error
	Clear() error
}

// Auth is the explicitly owned session state.
type Auth struct {
	api     API
	persist Persister
	log     zerolog.Logger
	now     func() time.Time

	restoreMu sync.Mutex // held while loading the persisted session
	refreshMu sync.Mutex // serializes token refreshes

	mu        sync.Mutex
	current   *domain.Session
	restored  bool
	nextID    int
	listeners map[int]Listener
}

// New creates an Auth. persist may be nil to keep sessions in memory only.
func New(api API, persist Persister, log zerolog.Logger) *Auth {
	return &Auth{
		api:       api,
		persist:   persist,
		log:       log,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// ValidateCredentials applies the client-side checks done before any auth call.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}
	if len([]rune(password)) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

// Session returns the in-memory session without touching the network or disk.
func (a *Auth) Session() *domain.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// GetSession returns the current session, restoring a persisted one on first
// use. An expired session is refreshed once; if that fails it is cleared,
// listeners get EventSignedOut, and nil is returned.
func (a *Auth) GetSession(ctx context.Context) (*domain.Session, error) {
	if err := a.restore(); err != nil {
		return nil, err
	}
	s := a.Session()
	if s == nil || !s.Expired(a.now()) {
		return s, nil
	}
	return a.refresh(ctx, s)
}

// Refresh exchanges the current refresh token for a new session regardless
// of the local expiry. Use it when the server rejects a token the clock still
// considers valid.
func (a *Auth) Refresh(ctx context.Context) (*domain.Session, error) {
	if err := a.restore(); err != nil {
		return nil, err
	}
	s := a.Session()
	if s == nil {
		return nil, nil
	}
	return a.refresh(ctx, s)
}

// Do runs fn with a live session. If fn fails with 401 the session is
// refreshed once and fn retried. It returns the session fn last ran with.
func (a *Auth) Do(ctx context.Context, fn func(s *domain.Session) error) (*domain.Session, error) {
	s, err := a.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotSignedIn
	}
	err = fn(s)
	if !client.IsStatus(err, http.StatusUnauthorized) {
		return s, err
	}

	a.log.Info().Msg("token rejected, refreshing")
	s, rerr := a.Refresh(ctx)
	if rerr != nil {
		return nil, rerr
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotSignedIn, client.Message(err))
	}
	return s, fn(s)
}

// restore loads the persisted session once. Concurrent callers wait for the
// first load to finish.
func (a *Auth) restore() error {
	a.restoreMu.Lock()
	defer a.restoreMu.Unlock()

	a.mu.Lock()
	done := a.restored || a.persist == nil
	a.mu.Unlock()
	if done {
		return nil
	}

	s, err := a.persist.Load()
	if err != nil {
		return fmt.Errorf("session.GetSession: %w", err)
	}

	a.mu.Lock()
	a.restored = true
	installed := a.current == nil && s != nil
	if installed {
		a.current = s
	}
	a.mu.Unlock()

	if installed {
		a.log.Debug().Str("user", s.User.Email).Msg("session restored")
		a.api.SetToken(s.AccessToken)
	}
	return nil
}

// refresh replaces stale with a refreshed session, or clears it when the
// refresh fails. Only one refresh runs at a time; a caller that finds stale
// already replaced gets the replacement.
func (a *Auth) refresh(ctx context.Context, stale *domain.Session) (*domain.Session, error) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	if cur := a.Session(); cur != stale {
		return cur, nil
	}

	refreshed, err := a.api.RefreshSession(ctx, stale.RefreshToken)
	if err != nil {
		a.log.Warn().Err(err).Msg("session expired and could not be refreshed")
		a.setSession(nil, EventSignedOut)
		return nil, nil
	}
	a.log.Info().Msg("session refreshed")
	a.setSession(refreshed, EventTokenRefreshed)
	return refreshed, nil
}

// OnChange registers fn for session changes and returns a function that
// removes it. The returned function is safe to call more than once.
func (a *Auth) OnChange(fn Listener) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

// SignUp creates an account. It does not establish a session.
func (a *Auth) SignUp(ctx context.Context, email, password string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if _, err := a.api.SignUp(ctx, strings.TrimSpace(email), password); err != nil {
		return fmt.Errorf("session.SignUp: %w", err)
	}
	a.log.Info().Msg("account created")
	return nil
}

// SignIn authenticates with email and password and notifies listeners.
func (a *Auth) SignIn(ctx context.Context, email, password string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	s, err := a.api.SignInWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return fmt.Errorf("session.SignIn: %w", err)
	}
	a.log.Info().Str("user_id", s.User.ID.String()).Msg("signed in")
	a.setSession(s, EventSignedIn)
	return nil
}

// SignOut ends the session remotely and locally. A 401 from the server means
// the token is already dead, so the local session is cleared anyway.
func (a *Auth) SignOut(ctx context.Context) error {
	if a.Session() == nil {
		return nil
	}
	if err := a.api.SignOut(ctx); err != nil && !client.IsStatus(err, http.StatusUnauthorized) {
		return fmt.Errorf("session.SignOut: %w", err)
	}
	a.log.Info().Msg("signed out")
	a.setSession(nil, EventSignedOut)
	return nil
}

func (a *Auth) setSession(s *domain.Session, e Event) {
	a.mu.Lock()
	a.current = s
	a.restored = true
	listeners := make([]Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.mu.Unlock()

	if s != nil {
		a.api.SetToken(s.AccessToken)
	} else {
		a.api.SetToken("")
	}

	if a.persist != nil {
		var err error
		if s != nil {
			err = a.persist.Save(s)
		} else {
			err = a.persist.Clear()
		}
		if err != nil {
			a.log.Warn().Err(err).Stringer("event", e).Msg("persist session")
		}
	}

	for _, l := range listeners {
		l(e, s)
	}
}
