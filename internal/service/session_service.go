package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/agservice/internal/auth"
	"github.com/spec-kit/agservice/internal/domain"
	"github.com/spec-kit/agservice/internal/events"
	"github.com/spec-kit/agservice/internal/observability"
	"github.com/spec-kit/agservice/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown usernames, inactive accounts and
	// wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrUnauthorized       = errors.New("unauthorized")
)

// dummyPassword is hashed once so unknown usernames still pay for a compare.
const dummyPassword = "agservice-timing-equalizer"

// Session is the pair of tokens handed to a caller. Refresh is empty for a
// session produced by Refresh.
type Session struct {
	Username string
	Roles    []string
	Access   domain.IssuedToken
	Refresh  domain.IssuedToken
}

// SessionDependencies encapsulates collaborators of the session service.
type SessionDependencies struct {
	Accounts   repository.AccountRepository
	Tokens     *auth.TokenManager
	Hasher     auth.PasswordHasher
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// SessionService implements login, refresh, logout and signup over a
// stateless token pair.
type SessionService struct {
	accounts   repository.AccountRepository
	tokens     *auth.TokenManager
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
	dummyHash  string
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SessionService{
		accounts:   deps.Accounts,
		tokens:     deps.Tokens,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
	if hash, err := s.hasher.Hash(dummyPassword); err == nil {
		s.dummyHash = hash
	} else {
		logger.Warn("unable to prepare dummy hash", zap.Error(err))
	}
	return s
}

// Login authenticates username/password and issues a fresh token pair.
func (s *SessionService) Login(ctx context.Context, username, password string) (*Session, error) {
	account, err := s.accounts.FindByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = s.hasher.Compare(s.dummyHash, password)
		return nil, s.loginFailed(ctx, username, "unknown_account")
	}
	if err != nil {
		s.metrics.RecordSessionOperation("login", "error")
		return nil, fmt.Errorf("find account: %w", err)
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return nil, s.loginFailed(ctx, username, "bad_password")
	}
	if !account.Active {
		return nil, s.loginFailed(ctx, username, "inactive")
	}

	now := s.now()
	roles := account.RoleList()
	access, err := s.tokens.IssueAccess(account.Username, roles, now)
	if err != nil {
		s.metrics.RecordSessionOperation("login", "error")
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(account.Username, now)
	if err != nil {
		s.metrics.RecordSessionOperation("login", "error")
		return nil, err
	}

	s.metrics.RecordSessionOperation("login", "success")
	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, account.Username, now,
		events.SessionIssuedPayload{Roles: roles, ExpiresAt: access.ExpiresAt}))
	return &Session{Username: account.Username, Roles: roles, Access: access, Refresh: refresh}, nil
}

func (s *SessionService) loginFailed(ctx context.Context, username, reason string) error {
	s.metrics.RecordSessionOperation("login", "failure")
	s.publish(ctx, events.NewEvent(events.EventLoginFailed, username, s.now(),
		events.LoginFailedPayload{Reason: reason}))
	return ErrInvalidCredentials
}

// Refresh exchanges a valid refresh token for a new access token. Roles are
// re-read from the account store so changes take effect on the next refresh.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	now := s.now()
	claims, err := s.tokens.Verify(refreshToken, domain.TokenTypeRefresh, now)
	if err != nil {
		s.logger.Debug("refresh rejected", zap.String("reason", auth.FailureKind(err)))
		s.metrics.RecordSessionOperation("refresh", "failure")
		return nil, ErrUnauthorized
	}

	account, err := s.accounts.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, pgx.ErrNoRows) {
		s.metrics.RecordSessionOperation("refresh", "failure")
		return nil, ErrUnauthorized
	}
	if err != nil {
		s.metrics.RecordSessionOperation("refresh", "error")
		return nil, fmt.Errorf("find account: %w", err)
	}
	if !account.Active {
		s.metrics.RecordSessionOperation("refresh", "failure")
		return nil, ErrUnauthorized
	}

	roles := account.RoleList()
	access, err := s.tokens.IssueAccess(account.Username, roles, now)
	if err != nil {
		s.metrics.RecordSessionOperation("refresh", "error")
		return nil, err
	}

	s.metrics.RecordSessionOperation("refresh", "success")
	s.publish(ctx, events.NewEvent(events.EventAccessRefreshed, account.Username, now,
		events.SessionIssuedPayload{Roles: roles, ExpiresAt: access.ExpiresAt}))
	return &Session{Username: account.Username, Roles: roles, Access: access}, nil
}

// Logout records the end of a session. Tokens stay valid until expiry; the
// HTTP layer clears the cookies.
func (s *SessionService) Logout(ctx context.Context, subject string) {
	s.metrics.RecordSessionOperation("logout", "success")
	if subject == "" {
		return
	}
	s.publish(ctx, events.NewEvent(events.EventLoggedOut, subject, s.now(), nil))
}

// Signup registers a new active account with the default role. It issues no
// tokens.
func (s *SessionService) Signup(ctx context.Context, username, password, passwordConfirm string) (*domain.Account, error) {
	if password != passwordConfirm {
		s.metrics.RecordSessionOperation("signup", "failure")
		return nil, ErrPasswordMismatch
	}

	if _, err := s.accounts.FindByUsername(ctx, username); err == nil {
		s.metrics.RecordSessionOperation("signup", "failure")
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, pgx.ErrNoRows) {
		s.metrics.RecordSessionOperation("signup", "error")
		return nil, fmt.Errorf("find account: %w", err)
	}

	account, err := s.insertAccount(ctx, username, password, domain.DefaultRoles)
	if errors.Is(err, repository.ErrDuplicate) {
		s.metrics.RecordSessionOperation("signup", "failure")
		return nil, ErrDuplicateUsername
	}
	if err != nil {
		s.metrics.RecordSessionOperation("signup", "error")
		return nil, err
	}

	s.metrics.RecordSessionOperation("signup", "success")
	s.publish(ctx, events.NewEvent(events.EventAccountRegistered, account.Username, s.now(),
		events.AccountRegisteredPayload{AccountID: account.ID, Roles: account.Roles}))
	return account, nil
}

// EnsureBootstrapAccount creates an administrator when the account store is
// empty. It is a no-op when either credential is blank.
func (s *SessionService) EnsureBootstrapAccount(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := s.accounts.Count(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if n > 0 {
		return nil
	}

	roles := domain.JoinRoles([]string{domain.RoleUser, domain.RoleAdmin})
	account, err := s.insertAccount(ctx, username, password, roles)
	if err != nil {
		return fmt.Errorf("create bootstrap account: %w", err)
	}
	s.logger.Info("bootstrap account created", zap.String("username", account.Username))
	return nil
}

func (s *SessionService) insertAccount(ctx context.Context, username, password, roles string) (*domain.Account, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	account := &domain.Account{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		Active:       true,
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *SessionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
