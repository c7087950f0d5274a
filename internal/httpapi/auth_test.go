package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	stub := &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      "admin",
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}

	auth := NewAuthManager("test-secret", time.Hour, stub)

	stub.mu.Lock()
	stored := stub.users["admin"].Password
	updates := stub.updates
	stub.mu.Unlock()

	if !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected stored password to be bcrypt hashed, got %q", stored)
	}
	if updates == 0 {
		t.Fatalf("expected password upgrade to be written back to the store")
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login with original password after upgrade: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected an access token")
	}
}

func TestSeedAdminDoesNotOverwriteExisting(t *testing.T) {
	stub := &userStoreStub{}
	auth := NewAuthManager("test-secret", time.Hour, stub)

	if err := auth.SeedAdmin(context.Background(), "admin", "first-password"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if err := auth.SeedAdmin(context.Background(), "admin", "second-password"); err != nil {
		t.Fatalf("second seed must be a no-op, got %v", err)
	}

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "first-password"}); err != nil {
		t.Fatalf("original password must still work: %v", err)
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "second-password"}); err == nil {
		t.Fatalf("second seed password must not work")
	}
}

func TestParseTokenRoundTrip(t *testing.T) {
	stub := &userStoreStub{}
	auth := NewAuthManager("test-secret", time.Hour, stub)
	if err := auth.SeedAdmin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" || actor.Role != "admin" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewAuthManager("secret-a", time.Hour, nil)
	if err := issuer.SeedAdmin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	resp, err := issuer.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	verifier := NewAuthManager("secret-b", time.Hour, nil)
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("token signed with a different secret must be rejected")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	stub := &userStoreStub{
		users: map[string]domain.UserAccount{
			"ghost": {
				Username: "ghost",
				Password: "pw123456",
				Role:     "cashier",
				Active:   false,
			},
		},
	}
	auth := NewAuthManager("test-secret", time.Hour, stub)

	if _, err := auth.Login(domain.LoginRequest{Username: "ghost", Password: "pw123456"}); err == nil {
		t.Fatalf("inactive account must not log in")
	}
}
