package users

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"budgetbook/internal/core"
	"budgetbook/internal/identity"
	"budgetbook/internal/storage/memory"
)

func newTestService() *Service {
	s := NewService(memory.New(), identity.NewPlainCodec(""))
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	reg := Registration{ID: "alice", Password: "secret", Name: "Alice", Nickname: "al"}
	if err := s.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Register(ctx, reg); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	sess, err := s.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "Bearer dummy-token-for-alice" || sess.Name != "Alice" || sess.Nickname != "al" {
		t.Fatalf("unexpected session %+v", sess)
	}
	userID, err := identity.FromAuthorizationHeader(identity.NewPlainCodec(""), sess.Token)
	if err != nil || userID != "alice" {
		t.Fatalf("token does not decode: %q err=%v", userID, err)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	if err := s.Register(ctx, Registration{ID: "alice", Password: "secret", Name: "Alice"}); err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		id, password string
		want         error
	}{
		{"alice", "wrong", core.ErrInvalidLogin},
		{"bob", "secret", core.ErrInvalidLogin},
		{"", "secret", core.ErrInvalidRequest},
		{"alice", "", core.ErrInvalidRequest},
	}
	for _, tc := range cases {
		if _, err := s.Login(ctx, tc.id, tc.password); !errors.Is(err, tc.want) {
			t.Fatalf("login(%q, %q): expected %v, got %v", tc.id, tc.password, tc.want, err)
		}
	}
}

func TestRegistrationValidate(t *testing.T) {
	cases := []Registration{
		{Password: "p", Name: "n"},
		{ID: "i", Name: "n"},
		{ID: "i", Password: "p"},
		{ID: "i", Password: string(make([]byte, 73)), Name: "n"},
	}
	for _, r := range cases {
		if err := r.Validate(); !errors.Is(err, core.ErrInvalidRequest) {
			t.Fatalf("%+v: expected invalid request, got %v", r, err)
		}
	}
}
