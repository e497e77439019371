// Package users registers accounts and exchanges a login for a bearer token.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"budgetbook/internal/core"
	"budgetbook/internal/identity"
)

type Store interface {
	// CreateUser fails with core.ErrUserExists when the id is taken.
	CreateUser(ctx context.Context, u core.User) error
	// GetUser fails with core.ErrUserNotFound.
	GetUser(ctx context.Context, id string) (core.User, error)
}

type Registration struct {
	ID       string
	Password string
	Name     string
	Email    string
	Phone    string
	Nickname string
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token    string
	Name     string
	Nickname string
}

type Service struct {
	store Store
	codec identity.Codec
	cost  int
}

func NewService(store Store, codec identity.Codec) *Service {
	return &Service{store: store, codec: codec, cost: bcrypt.DefaultCost}
}

func (r Registration) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ID) == "" {
		missing = append(missing, "id")
	}
	if r.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", core.ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if len(r.Password) > 72 {
		return fmt.Errorf("%w: password too long (max 72 bytes)", core.ErrInvalidRequest)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, r Registration) error {
	if err := r.Validate(); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = s.store.CreateUser(ctx, core.User{
		ID:           strings.TrimSpace(r.ID),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(r.Name),
		Email:        strings.TrimSpace(r.Email),
		Phone:        strings.TrimSpace(r.Phone),
		Nickname:     strings.TrimSpace(r.Nickname),
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, core.ErrUserExists) {
		return err
	}
	if err != nil {
		return core.NewStorageError("create user", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", r.ID)
	return nil
}

// Login verifies the password and returns a bearer token for the user.
// Unknown ids and wrong passwords fail alike with core.ErrInvalidLogin.
func (s *Service) Login(ctx context.Context, id, password string) (Session, error) {
	if strings.TrimSpace(id) == "" || password == "" {
		return Session{}, fmt.Errorf("%w: id and password are required", core.ErrInvalidRequest)
	}
	u, err := s.store.GetUser(ctx, strings.TrimSpace(id))
	if errors.Is(err, core.ErrUserNotFound) {
		return Session{}, core.ErrInvalidLogin
	}
	if err != nil {
		return Session{}, core.NewStorageError("get user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, core.ErrInvalidLogin
	}
	slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
	return Session{
		Token:    identity.BearerToken(s.codec, u.ID),
		Name:     u.Name,
		Nickname: u.Nickname,
	}, nil
}
