package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"farm_store/internal/errs"
	"farm_store/internal/redis"
	"farm_store/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SessionStore keeps admin sessions; the redis client implements it.
type SessionStore interface {
	SetSession(ctx context.Context, token string, data *redis.SessionData, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*redis.SessionData, error)
	DeleteSession(ctx context.Context, token string) error
}

type AuthService interface {
	// Login returns a session token for valid credentials.
	Login(ctx context.Context, username, password string) (string, *redis.SessionData, error)
	Authorize(ctx context.Context, token string) (*redis.SessionData, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	admins   repository.AdminUserRepository
	sessions SessionStore
	ttl      time.Duration
}

func NewAuthService(admins repository.AdminUserRepository, sessions SessionStore, ttl time.Duration) AuthService {
	return &authService{admins: admins, sessions: sessions, ttl: ttl}
}

// HashPassword is used when seeding admin accounts.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *redis.SessionData, error) {
	const op = "authService.Login"
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, errs.Validation(op, "username and password are required")
	}

	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return "", nil, errs.Unauthorized(op, "invalid username or password")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, errs.Unauthorized(op, "invalid username or password")
	}

	token := uuid.NewString()
	session := &redis.SessionData{AdminID: admin.ID, Username: admin.Username, CreatedAt: time.Now().UTC()}
	if err := s.sessions.SetSession(ctx, token, session, s.ttl); err != nil {
		return "", nil, errs.Dependency(op, err)
	}
	return token, session, nil
}

func (s *authService) Authorize(ctx context.Context, token string) (*redis.SessionData, error) {
	const op = "authService.Authorize"
	if token == "" {
		return nil, errs.Unauthorized(op, "authentication required")
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, errs.Unauthorized(op, "session expired or invalid")
		}
		return nil, errs.Dependency(op, err)
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return errs.Dependency("authService.Logout", err)
	}
	return nil
}
