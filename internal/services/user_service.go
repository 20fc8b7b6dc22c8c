package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"centime/internal/core"
	"centime/internal/storage"
)

// ErrInvalidCredentials is returned by Login for a wrong email or password.
// It deliberately does not say which.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", core.ErrForbidden)

// UserService handles registration and session-based authentication.
type UserService struct {
	store      storage.Store
	sessionTTL time.Duration
}

func NewUserService(store storage.Store, sessionTTL time.Duration) *UserService {
	return &UserService{store: store, sessionTTL: sessionTTL}
}

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a user with a bcrypt password hash. Email is unique:
// registering an address that already exists returns a conflict.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (core.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return core.User{}, core.ErrEmptyEmail
	}
	if p.Password == "" {
		return core.User{}, core.ErrEmptyPassword
	}

	_, err := s.store.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return core.User{}, core.Conflictf("email already exists")
	case !errors.Is(err, core.ErrNotFound):
		return core.User{}, boundary(ctx, "register user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, boundary(ctx, "register user", err)
	}

	user := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return core.User{}, boundary(ctx, "register user", err)
	}
	return user, nil
}

// Login verifies the credentials and mints a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (core.Session, error) {
	user, err := s.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Session{}, ErrInvalidCredentials
		}
		return core.Session{}, boundary(ctx, "login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.Session{}, ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return core.Session{}, boundary(ctx, "login", err)
	}
	now := time.Now().UTC()
	session := core.Session{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return core.Session{}, boundary(ctx, "login", err)
	}
	return session, nil
}

// Logout invalidates the session token. Unknown tokens are not an error.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, core.ErrNotFound) {
		return boundary(ctx, "logout", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user id, rejecting expired
// sessions.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	session, err := s.store.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.Forbiddenf("invalid session")
		}
		return "", boundary(ctx, "authenticate", err)
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		return "", core.Forbiddenf("session expired")
	}
	return session.UserID, nil
}

func newSessionToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
