package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

type UseCase struct {
	users        repository.UserRepository
	sessions     repository.SessionRepository
	autoRegister bool
	logger       *zap.Logger
	now          func() time.Time
}

func New(users repository.UserRepository, sessions repository.SessionRepository, autoRegister bool, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:        users,
		sessions:     sessions,
		autoRegister: autoRegister,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateSession logs userID in. Unknown users are registered when auto
// registration is on; inactive users are refused.
func (uc *UseCase) CreateSession(ctx context.Context, userID, email string, ttl time.Duration) (*domain.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}

	user, err := uc.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound) && uc.autoRegister:
		user = &domain.User{ID: userID, Email: strings.TrimSpace(email), Status: domain.UserStatusActive}
		if err := uc.users.Upsert(ctx, user); err != nil {
			return nil, domain.Unavailable("failed to register user", err)
		}
		uc.logger.Info("user registered on first login", zap.String("user_id", userID))
	case errors.Is(err, domain.ErrUserNotFound):
		return nil, domain.ErrUnauthorized
	case err != nil:
		return nil, domain.Unavailable("failed to load user", err)
	}
	if !user.IsActive() {
		return nil, domain.ErrUnauthorized
	}

	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, domain.Unavailable("failed to store session", err)
	}
	return session, nil
}

func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, domain.Unavailable("failed to load session", err)
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// ResolveSession maps a session id to the user it was issued to.
func (uc *UseCase) ResolveSession(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", domain.ErrNotAuthenticated
	}
	session, err := uc.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "", domain.ErrNotAuthenticated
	}
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	session, err := uc.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, ttl); err != nil {
		return nil, domain.Unavailable("failed to extend session", err)
	}
	session.ExpiresAt = uc.now().Add(ttl)
	return session, nil
}

// RevokeSession deletes a session owned by userID. Revoking an unknown
// session succeeds so logout can be retried.
func (uc *UseCase) RevokeSession(ctx context.Context, userID, sessionID string) error {
	session, err := uc.GetSession(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return domain.ErrUnauthorized
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return domain.Unavailable("failed to revoke session", err)
	}
	return nil
}
