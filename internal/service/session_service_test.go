package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/domain"
	"github.com/spec-kit/agservice/internal/events"
	"github.com/spec-kit/agservice/internal/observability"
	"github.com/spec-kit/agservice/internal/repository"
)

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	args := m.Called(ctx, username)
	if acc, ok := args.Get(0).(*domain.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccounts) Insert(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	if args.Error(0) == nil {
		account.ID = 42
	}
	return args.Error(0)
}

func (m *mockAccounts) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

var sessionNow = time.Date(2025, 9, 1, 9, 30, 0, 0, time.UTC)

type sessionFixture struct {
	svc      *SessionService
	accounts *mockAccounts
	tokens   *auth.TokenManager
	hasher   auth.BcryptHasher
	metrics  *observability.Metrics
	events   []events.Event
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	tokens, err := auth.NewTokenManager("session-test-secret-0123456789abcdef", 15*time.Minute, 14*24*time.Hour)
	require.NoError(t, err)

	f := &sessionFixture{
		accounts: &mockAccounts{},
		tokens:   tokens,
		hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
		metrics:  observability.NewMetrics(),
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllEventTypes {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.events = append(f.events, e)
			return nil
		})
	}

	f.svc = NewSessionService(SessionDependencies{
		Accounts:   f.accounts,
		Tokens:     tokens,
		Hasher:     f.hasher,
		Dispatcher: dispatcher,
		Metrics:    f.metrics,
	})
	f.svc.now = func() time.Time { return sessionNow }
	return f
}

func (f *sessionFixture) account(t *testing.T, username, password, roles string, active bool) *domain.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return &domain.Account{ID: 7, Username: username, PasswordHash: hash, Roles: roles, Active: active}
}

func (f *sessionFixture) eventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

func TestLoginIssuesTokenPair(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "alice").
		Return(f.account(t, "alice", "pw-alice", "ROLE_USER, ROLE_ADMIN", true), nil)

	session, err := f.svc.Login(context.Background(), "alice", "pw-alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, []string{domain.RoleUser, domain.RoleAdmin}, session.Roles)
	assert.Equal(t, sessionNow.Add(15*time.Minute), session.Access.ExpiresAt)
	assert.Equal(t, sessionNow.Add(14*24*time.Hour), session.Refresh.ExpiresAt)

	claims, err := f.tokens.Verify(session.Access.Value, domain.TokenTypeAccess, sessionNow)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, session.Roles, claims.Roles)

	_, err = f.tokens.Verify(session.Refresh.Value, domain.TokenTypeRefresh, sessionNow)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventLoginSucceeded}, f.eventTypes())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SessionOperationsTotal.WithLabelValues("login", "success")))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "alice").
		Return(f.account(t, "alice", "pw-alice", "ROLE_USER", true), nil)
	f.accounts.On("FindByUsername", mock.Anything, "ghost").
		Return(nil, pgx.ErrNoRows)
	f.accounts.On("FindByUsername", mock.Anything, "retired").
		Return(f.account(t, "retired", "pw-retired", "ROLE_USER", false), nil)

	cases := []struct {
		username, password string
	}{
		{"alice", "wrong"},
		{"ghost", "anything"},
		{"retired", "pw-retired"},
		{"alice", ""},
	}
	for _, tc := range cases {
		session, err := f.svc.Login(context.Background(), tc.username, tc.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials, tc.username)
		assert.Nil(t, session)
	}

	assert.Len(t, f.events, len(cases))
	for _, e := range f.events {
		assert.Equal(t, events.EventLoginFailed, e.Type)
	}
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(f.metrics.SessionOperationsTotal.WithLabelValues("login", "failure")))
}

func TestLoginStoreErrorPropagates(t *testing.T) {
	f := newSessionFixture(t)
	boom := errors.New("connection refused")
	f.accounts.On("FindByUsername", mock.Anything, "alice").Return(nil, boom)

	_, err := f.svc.Login(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshIssuesAccessWithCurrentRoles(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "alice").
		Return(f.account(t, "alice", "pw", "ROLE_USER,ROLE_ADMIN", true), nil)

	refresh, err := f.tokens.IssueRefresh("alice", sessionNow.Add(-time.Hour))
	require.NoError(t, err)

	session, err := f.svc.Refresh(context.Background(), refresh.Value)
	require.NoError(t, err)
	assert.Empty(t, session.Refresh.Value)

	claims, err := f.tokens.Verify(session.Access.Value, domain.TokenTypeAccess, sessionNow)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleUser, domain.RoleAdmin}, claims.Roles)
	assert.Equal(t, []events.EventType{events.EventAccessRefreshed}, f.eventTypes())
}

func TestRefreshRejections(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "gone").Return(nil, pgx.ErrNoRows)
	f.accounts.On("FindByUsername", mock.Anything, "retired").
		Return(f.account(t, "retired", "pw", "ROLE_USER", false), nil)

	access, err := f.tokens.IssueAccess("alice", []string{domain.RoleUser}, sessionNow)
	require.NoError(t, err)
	expired, err := f.tokens.IssueRefresh("alice", sessionNow.Add(-15*24*time.Hour))
	require.NoError(t, err)
	gone, err := f.tokens.IssueRefresh("gone", sessionNow)
	require.NoError(t, err)
	retired, err := f.tokens.IssueRefresh("retired", sessionNow)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"access token": access.Value,
		"expired":      expired.Value,
		"garbage":      "not-a-token",
		"empty":        "",
		"missing":      gone.Value,
		"inactive":     retired.Value,
	} {
		_, err := f.svc.Refresh(context.Background(), token)
		assert.ErrorIs(t, err, ErrUnauthorized, name)
	}
	f.accounts.AssertNotCalled(t, "FindByUsername", mock.Anything, "alice")
}

func TestRefreshStoreErrorPropagates(t *testing.T) {
	f := newSessionFixture(t)
	boom := errors.New("timeout")
	f.accounts.On("FindByUsername", mock.Anything, "alice").Return(nil, boom)

	refresh, err := f.tokens.IssueRefresh("alice", sessionNow)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), refresh.Value)
	assert.ErrorIs(t, err, boom)
}

func TestLogoutPublishesEvent(t *testing.T) {
	f := newSessionFixture(t)
	f.svc.Logout(context.Background(), "alice")
	f.svc.Logout(context.Background(), "")

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventLoggedOut, f.events[0].Type)
	assert.Equal(t, "alice", f.events[0].Subject)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.SessionOperationsTotal.WithLabelValues("logout", "success")))
}

func TestSignupCreatesUserAccount(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "newbie").Return(nil, pgx.ErrNoRows)
	f.accounts.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)

	account, err := f.svc.Signup(context.Background(), "newbie", "pw-newbie", "pw-newbie")
	require.NoError(t, err)

	assert.Equal(t, int64(42), account.ID)
	assert.Equal(t, domain.RoleUser, account.Roles)
	assert.True(t, account.Active)
	assert.NotEqual(t, "pw-newbie", account.PasswordHash)
	assert.NoError(t, f.hasher.Compare(account.PasswordHash, "pw-newbie"))
	assert.Equal(t, []events.EventType{events.EventAccountRegistered}, f.eventTypes())
}

func TestSignupPasswordMismatchTouchesNothing(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.Signup(context.Background(), "newbie", "pw-one", "pw-two")
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	f.accounts.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
	f.accounts.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, f.events)
}

func TestSignupDuplicateUsername(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "alice").
		Return(f.account(t, "alice", "pw", "ROLE_USER", true), nil)

	_, err := f.svc.Signup(context.Background(), "alice", "pw", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	f.accounts.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSignupDuplicateDetectedOnInsert(t *testing.T) {
	f := newSessionFixture(t)
	f.accounts.On("FindByUsername", mock.Anything, "racer").Return(nil, pgx.ErrNoRows)
	f.accounts.On("Insert", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := f.svc.Signup(context.Background(), "racer", "pw", "pw")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestEnsureBootstrapAccount(t *testing.T) {
	t.Run("empty store gets an admin", func(t *testing.T) {
		f := newSessionFixture(t)
		f.accounts.On("Count", mock.Anything).Return(int64(0), nil)
		f.accounts.On("Insert", mock.Anything, mock.MatchedBy(func(a *domain.Account) bool {
			return a.Username == "admin" && a.Roles == "ROLE_USER,ROLE_ADMIN" && a.Active
		})).Return(nil)

		require.NoError(t, f.svc.EnsureBootstrapAccount(context.Background(), "admin", "pw-admin"))
		f.accounts.AssertExpectations(t)
	})

	t.Run("populated store is left alone", func(t *testing.T) {
		f := newSessionFixture(t)
		f.accounts.On("Count", mock.Anything).Return(int64(3), nil)

		require.NoError(t, f.svc.EnsureBootstrapAccount(context.Background(), "admin", "pw-admin"))
		f.accounts.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("blank credentials skip the store", func(t *testing.T) {
		f := newSessionFixture(t)
		require.NoError(t, f.svc.EnsureBootstrapAccount(context.Background(), "", ""))
		f.accounts.AssertNotCalled(t, "Count", mock.Anything)
	})
}
