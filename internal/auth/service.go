// Package auth handles accounts and sessions of the hosted mode.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ports"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Session is what a successful sign in or sign up hands to the client.
type Session struct {
	User      core.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	users  ports.UserDirectory
	tokens *Tokens
}

func NewService(users ports.UserDirectory, tokens *Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

func (s *Service) Tokens() *Tokens { return s.tokens }

func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.CreateUser(ctx, email, hash)
	if err != nil {
		return Session{}, err
	}
	return s.session(u)
}

// SignIn does not reveal whether the email exists.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	u, hash, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ports.ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if err := CheckPassword(hash, password); err != nil {
		return Session{}, err
	}
	return s.session(u)
}

func (s *Service) session(u core.User) (Session, error) {
	token, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}
