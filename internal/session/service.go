package session

import (
	"context"
	"fmt"
	"time"

	"github.com/erisanolasheni/risevest/internal/hash"
	"github.com/erisanolasheni/risevest/internal/logging"
	"github.com/erisanolasheni/risevest/internal/models"
	"github.com/erisanolasheni/risevest/internal/token"
)

// UserDirectory is the slice of the relational store the session core
// needs. Lookups return (nil, nil) when no record exists.
type UserDirectory interface {
	ByID(ctx context.Context, id string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service drives the session state machine: Anonymous -> Authenticated ->
// rotated/revoked/expired. All collaborators are injected; the service
// holds no global state.
type Service struct {
	users     UserDirectory
	issuer    *token.Issuer
	refresh   *RefreshStore
	blacklist *Blacklist
}

func NewService(users UserDirectory, issuer *token.Issuer, refresh *RefreshStore, blacklist *Blacklist) *Service {
	return &Service{users: users, issuer: issuer, refresh: refresh, blacklist: blacklist}
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.login")

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		l.Error("login_failed", "reason", "directory_error", "error", err)
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("login_failed", "reason", "issue_error", "error", err)
		return nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return pair, nil
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "session.register")

	existing, err := s.users.ByEmail(ctx, email)
	if err != nil {
		l.Error("register_failed", "reason", "directory_error", "error", err)
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		l.Warn("register_failed", "reason", "email_taken")
		return nil, ErrEmailTaken
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "hash_error", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: name, Email: email, PasswordHash: pwHash}
	if err := s.users.Create(ctx, user); err != nil {
		l.Error("register_failed", "reason", "directory_error", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

// Refresh exchanges a live refresh token for a fresh pair. The presented
// token is revoked before the new pair is handed out, so it can never
// resolve again even if a later step fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.refresh")

	userID, err := s.refresh.Resolve(ctx, refreshToken)
	if err != nil {
		l.Error("refresh_failed", "reason", "store_error", "error", err)
		return nil, fmt.Errorf("resolve refresh token: %w", err)
	}
	if userID == "" {
		l.Warn("refresh_failed", "reason", "unknown_token")
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		l.Error("refresh_failed", "reason", "directory_error", "error", err)
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		l.Error("refresh_failed", "reason", "revoke_error", "error", err)
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}

	if user == nil {
		// Token outlived its subject; it is revoked above and stays dead.
		l.Warn("refresh_failed", "reason", "subject_gone", "user_id", userID)
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("refresh_failed", "reason", "issue_error", "error", err)
		return nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return pair, nil
}

// Logout blacklists the access token for its remaining lifetime. The exp
// claim is read with a structural decode only; a token too mangled to
// decode, or one already past exp, leaves nothing to revoke.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	l := logging.FromContext(ctx).With("svc", "session.logout")

	claims, err := s.issuer.DecodeUnsafe(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		l.Warn("logout_noop", "reason", "undecodable_token")
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		l.Info("logout_noop", "reason", "already_expired")
		return nil
	}

	if err := s.blacklist.Add(ctx, accessToken, ttl); err != nil {
		l.Error("logout_failed", "reason", "store_error", "error", err)
		return fmt.Errorf("blacklist token: %w", err)
	}

	l.Info("logout_success", "user_id", claims.UserID)
	return nil
}

func (s *Service) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.refresh.Issue(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
