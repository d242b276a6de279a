// Package auth registers users, checks passwords and issues bearer session
// tokens kept in an expiring in-process cache.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

const (
	MsgSignupOK          = "Signup successful!"
	MsgUserExists        = "User with this name or email already exists!"
	MsgInvalidCredential = "Invalid name or password."
)

var (
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrUserExists         = errors.New("user with this name or email already exists")
	ErrMissingFields      = errors.New("name, email and password are required")
)

// Session is what a bearer token resolves to.
type Session struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type Service struct {
	users    ledger.UserStore
	sessions *cache.LRUCache[Session]
	onLogout func(userID int64)
	cost     int
	logger   *log.Logger
}

// NewService builds the auth service. onLogout runs after a session ends
// and may be nil.
func NewService(users ledger.UserStore, sessions *cache.LRUCache[Session], onLogout func(userID int64), logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		users:    users,
		sessions: sessions,
		onLogout: onLogout,
		cost:     bcrypt.DefaultCost,
		logger:   logger.WithComponent(log.ComponentAuth),
	}
}

// Signup creates a user and returns the confirmation message.
func (s *Service) Signup(ctx context.Context, name, email, password string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return "", ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, core.User{Name: name, Email: email, PasswordHash: string(hash)})
	switch {
	case errors.Is(err, ledger.ErrUserExists):
		return "", ErrUserExists
	case err != nil:
		return "", fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed up", log.FieldUserID, id)
	return MsgSignupOK, nil
}

// Login checks the password of name. Unknown names and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, name, password string) (core.User, error) {
	u, err := s.users.FindUserByName(ctx, strings.TrimSpace(name))
	if errors.Is(err, ledger.ErrNotFound) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Password mismatch", log.FieldUserID, u.ID)
		return core.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// StartSession issues a fresh bearer token for u.
func (s *Service) StartSession(u core.User) Session {
	sess := Session{Token: uuid.NewString(), UserID: u.ID, Name: u.Name}
	s.sessions.Set(sess.Token, sess)
	return sess
}

// Authenticate resolves a bearer token.
func (s *Service) Authenticate(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}
	return s.sessions.Get(token)
}

// Logout ends the session behind token and every other session of the same
// user, then runs the logout hook.
func (s *Service) Logout(ctx context.Context, token string) bool {
	sess, ok := s.sessions.Get(token)
	if !ok {
		return false
	}
	n := s.sessions.DeleteFunc(func(other Session) bool { return other.UserID == sess.UserID })
	if s.onLogout != nil {
		s.onLogout(sess.UserID)
	}
	s.logger.InfoContext(ctx, "User logged out", log.FieldUserID, sess.UserID, log.FieldCount, n)
	return true
}
