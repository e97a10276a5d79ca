package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ticketbooth/eventpass/internal/auth"
	"github.com/ticketbooth/eventpass/internal/domain"
	apperrors "github.com/ticketbooth/eventpass/pkg/util/errorutil"
)

// Authenticator verifies account credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// AuthService coordinates login and logout.
type AuthService struct {
	accounts Authenticator
	sessions auth.SessionStore
	tokenMgr *auth.TokenManager
	now      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(accounts Authenticator, sessions auth.SessionStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		tokenMgr: tokens,
		now:      time.Now,
	}
}

// Login authenticates the account and opens a session. The returned token is
// the cookie value.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		CreatedAt: now.UTC(),
		ExpiresAt: now.Add(s.tokenMgr.TTL()).UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", time.Time{}, apperrors.NewIOFailure("create_session", user.Username, err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(session.ID, user.Username, now)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return user, token, exp, nil
}

// Logout revokes the session behind token. Unknown or malformed tokens are
// already logged out.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID()); err != nil {
		return apperrors.NewIOFailure("delete_session", claims.Username(), err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
