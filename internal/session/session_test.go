package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/tally/pkg/client"
	"github.com/naveenspark/tally/pkg/domain"
)

type fakeAPI struct {
	mu         sync.Mutex
	token      string
	signUps    int
	signIns    int
	refreshes  int
	signOutErr error
	signInErr  error
	refreshErr error
	session    *domain.Session
}

func (f *fakeAPI) SignUp(_ context.Context, email, _ string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps++
	return &domain.User{ID: uuid.New(), Email: email}, nil
}

func (f *fakeAPI) SignInWithPassword(_ context.Context, _, _ string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session, nil
}

func (f *fakeAPI) RefreshSession(_ context.Context, _ string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.session, nil
}

func (f *fakeAPI) SignOut(context.Context) error {
	return f.signOutErr
}

func (f *fakeAPI) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeAPI) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

type memStore struct {
	s       *domain.Session
	cleared bool
}

func (m *memStore) Load() (*domain.Session, error) { return m.s, nil }
func (m *memStore) Save(s *domain.Session) error   { m.s = s; return nil }
func (m *memStore) Clear() error                   { m.s = nil; m.cleared = true; return nil }

func testSession(token string) *domain.Session {
	return &domain.Session{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         domain.User{ID: uuid.New(), Email: "ann@example.com"},
	}
}

type recorded struct {
	event   Event
	session *domain.Session
}

func record(a *Auth) (*[]recorded, func()) {
	var got []recorded
	unsub := a.OnChange(func(e Event, s *domain.Session) {
		got = append(got, recorded{e, s})
	})
	return &got, unsub
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"ok", "ann@example.com", "secret", nil},
		{"empty email", "  ", "secret", ErrEmailRequired},
		{"short password", "ann@example.com", "12345", ErrPasswordTooShort},
		{"empty password", "ann@example.com", "", ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateCredentials(tt.email, tt.password), tt.want)
		})
	}
}

func TestSignUpDoesNotEstablishSession(t *testing.T) {
	api := &fakeAPI{session: testSession("tok")}
	a := New(api, nil, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()

	require.NoError(t, a.SignUp(context.Background(), "ann@example.com", "secret1"))
	assert.Nil(t, a.Session())
	assert.Empty(t, *events)
	assert.Equal(t, 1, api.signUps)

	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))
	require.NotNil(t, a.Session())
	require.Len(t, *events, 1)
	assert.Equal(t, EventSignedIn, (*events)[0].event)
}

func TestSignUpRejectsShortPasswordWithoutCallingAPI(t *testing.T) {
	api := &fakeAPI{}
	a := New(api, nil, zerolog.Nop())

	err := a.SignUp(context.Background(), "ann@example.com", "123")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Equal(t, 0, api.signUps)
}

func TestSignInSetsTokenPersistsAndNotifies(t *testing.T) {
	s := testSession("tok")
	api := &fakeAPI{session: s}
	store := &memStore{}
	a := New(api, store, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()

	require.NoError(t, a.SignIn(context.Background(), " ann@example.com ", "secret1"))
	assert.Equal(t, s, a.Session())
	assert.Equal(t, "tok", api.currentToken())
	assert.Equal(t, s, store.s)
	require.Len(t, *events, 1)
	assert.Equal(t, s, (*events)[0].session)
}

func TestSignInFailureKeepsSignedOut(t *testing.T) {
	apiErr := &client.HTTPError{StatusCode: http.StatusBadRequest, Message: "Invalid login credentials"}
	api := &fakeAPI{signInErr: apiErr}
	a := New(api, nil, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()

	err := a.SignIn(context.Background(), "ann@example.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", client.Message(err))
	assert.Nil(t, a.Session())
	assert.Empty(t, *events)
}

func TestSignOutClearsSession(t *testing.T) {
	api := &fakeAPI{session: testSession("tok")}
	store := &memStore{}
	a := New(api, store, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()

	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))
	require.NoError(t, a.SignOut(context.Background()))

	assert.Nil(t, a.Session())
	assert.Equal(t, "", api.currentToken())
	assert.True(t, store.cleared)
	require.Len(t, *events, 2)
	assert.Equal(t, EventSignedOut, (*events)[1].event)
	assert.Nil(t, (*events)[1].session)
}

func TestSignOutRemoteFailureKeepsSession(t *testing.T) {
	api := &fakeAPI{session: testSession("tok"), signOutErr: errors.New("network down")}
	a := New(api, nil, zerolog.Nop())
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))

	require.Error(t, a.SignOut(context.Background()))
	assert.NotNil(t, a.Session())
}

func TestSignOutUnauthorizedStillClears(t *testing.T) {
	api := &fakeAPI{
		session:    testSession("tok"),
		signOutErr: &client.HTTPError{StatusCode: http.StatusUnauthorized, Message: "JWT expired"},
	}
	a := New(api, nil, zerolog.Nop())
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))

	require.NoError(t, a.SignOut(context.Background()))
	assert.Nil(t, a.Session())
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	api := &fakeAPI{session: testSession("tok")}
	a := New(api, nil, zerolog.Nop())
	events, unsub := record(a)

	unsub()
	unsub() // idempotent

	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))
	assert.Empty(t, *events)
}

func TestGetSessionRestoresPersisted(t *testing.T) {
	s := testSession("stored")
	api := &fakeAPI{}
	a := New(api, &memStore{s: s}, zerolog.Nop())

	got, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, "stored", api.currentToken())
	assert.Equal(t, 0, api.refreshes)
}

func TestGetSessionRefreshesExpired(t *testing.T) {
	expired := testSession("old")
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	fresh := testSession("new")
	api := &fakeAPI{session: fresh}
	store := &memStore{s: expired}
	a := New(api, store, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()

	got, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	assert.Equal(t, fresh, store.s)
	assert.Equal(t, "new", api.currentToken())
	require.Len(t, *events, 1)
	assert.Equal(t, EventTokenRefreshed, (*events)[0].event)
}

func TestGetSessionDiscardsUnrefreshable(t *testing.T) {
	expired := testSession("old")
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	api := &fakeAPI{refreshErr: errors.New("refresh token revoked")}
	store := &memStore{s: expired}
	a := New(api, store, zerolog.Nop())

	got, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, store.cleared)
}

func TestGetSessionWithoutPersister(t *testing.T) {
	a := New(&fakeAPI{}, nil, zerolog.Nop())
	got, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func (f *fakeAPI) nextSession(s *domain.Session, err error) {
	f.mu.Lock()
	f.session, f.refreshErr = s, err
	f.mu.Unlock()
}

func TestGetSessionRefreshesAfterInMemoryExpiry(t *testing.T) {
	api := &fakeAPI{session: testSession("live")}
	store := &memStore{}
	a := New(api, store, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))

	fresh := testSession("fresh")
	fresh.ExpiresAt = time.Now().Add(3 * time.Hour).Unix()
	api.nextSession(fresh, nil)
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	got, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	assert.Equal(t, "fresh", api.currentToken())
	assert.Equal(t, fresh, store.s)
	require.Len(t, *events, 2)
	assert.Equal(t, EventTokenRefreshed, (*events)[1].event)

	_, err = a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.refreshes, "a live session is not refreshed again")
}

func TestGetSessionClearsInMemoryExpiryWhenRefreshFails(t *testing.T) {
	api := &fakeAPI{session: testSession("live")}
	store := &memStore{}
	a := New(api, store, zerolog.Nop())
	events, unsub := record(a)
	defer unsub()
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))

	api.nextSession(nil, &client.HTTPError{StatusCode: http.StatusBadRequest, Message: "Invalid Refresh Token"})
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	got, err := a.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, a.Session())
	assert.Equal(t, "", api.currentToken())
	assert.True(t, store.cleared)
	require.Len(t, *events, 2)
	assert.Equal(t, EventSignedOut, (*events)[1].event)
}

func TestDoRetriesOnceAfterUnauthorized(t *testing.T) {
	api := &fakeAPI{session: testSession("live")}
	a := New(api, nil, zerolog.Nop())
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))
	fresh := testSession("fresh")
	api.nextSession(fresh, nil)

	var tokens []string
	got, err := a.Do(context.Background(), func(s *domain.Session) error {
		tokens = append(tokens, s.AccessToken)
		if len(tokens) == 1 {
			return &client.HTTPError{StatusCode: http.StatusUnauthorized, Message: "JWT expired"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, fresh, got)
	assert.Equal(t, []string{"live", "fresh"}, tokens)
	assert.Equal(t, 1, api.refreshes)
}

func TestDoSignsOutWhenRefreshFails(t *testing.T) {
	api := &fakeAPI{session: testSession("live")}
	a := New(api, nil, zerolog.Nop())
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))
	api.nextSession(nil, errors.New("refresh token revoked"))

	calls := 0
	got, err := a.Do(context.Background(), func(*domain.Session) error {
		calls++
		return &client.HTTPError{StatusCode: http.StatusUnauthorized, Message: "JWT expired"}
	})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Nil(t, got)
	assert.Nil(t, a.Session())
	assert.Equal(t, 1, calls)
}

func TestDoWithoutSession(t *testing.T) {
	a := New(&fakeAPI{}, nil, zerolog.Nop())
	called := false
	_, err := a.Do(context.Background(), func(*domain.Session) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.False(t, called)
}

func TestDoPassesThroughOtherErrors(t *testing.T) {
	api := &fakeAPI{session: testSession("live")}
	a := New(api, nil, zerolog.Nop())
	require.NoError(t, a.SignIn(context.Background(), "ann@example.com", "secret1"))

	boom := errors.New("boom")
	got, err := a.Do(context.Background(), func(*domain.Session) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, got)
	assert.Equal(t, 0, api.refreshes)
}

// blockingStore holds Load open until release is closed.
type blockingStore struct {
	memStore
	loads   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (b *blockingStore) Load() (*domain.Session, error) {
	if b.loads.Add(1) == 1 {
		close(b.entered)
	}
	<-b.release
	return b.memStore.Load()
}

func TestGetSessionConcurrentCallersWaitForRestore(t *testing.T) {
	s := testSession("stored")
	store := &blockingStore{
		memStore: memStore{s: s},
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	a := New(&fakeAPI{}, store, zerolog.Nop())

	results := make(chan *domain.Session, 2)
	get := func() {
		got, err := a.GetSession(context.Background())
		assert.NoError(t, err)
		results <- got
	}
	go get()
	<-store.entered
	go get()
	close(store.release)

	for i := 0; i < 2; i++ {
		assert.Equal(t, s, <-results)
	}
	assert.EqualValues(t, 1, store.loads.Load())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.json")
	fs := NewFileStore(path)

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, got, "missing file means no session")

	s := testSession("tok")
	require.NoError(t, fs.Save(s))
	got, err = fs.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.AccessToken, got.AccessToken)
	assert.Equal(t, s.User.ID, got.User.ID)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	got, err = fs.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "SIGNED_IN", EventSignedIn.String())
	assert.Equal(t, "SIGNED_OUT", EventSignedOut.String())
	assert.Equal(t, "UNKNOWN", Event(99).String())
}
