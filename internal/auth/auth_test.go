package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type mockUserStore struct {
	users map[string]*User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*User)}
}

func (m *mockUserStore) CreateUser(ctx context.Context, u *User) error {
	m.users[u.Email] = u
	return nil
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(newMockUserStore(), "test-secret", time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ana@Example.com ", " Ana ", "hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("Email = %q, want lowercased trimmed", u.Email)
	}
	if u.Name != "Ana" {
		t.Errorf("Name = %q", u.Name)
	}
	if u.HashedPassword == "hunter2" || u.HashedPassword == "" {
		t.Error("password must be stored hashed")
	}

	got, err := svc.Authenticate(ctx, "ana@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated user id = %q, want %q", got.ID, u.ID)
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := NewService(newMockUserStore(), "test-secret", time.Hour)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ana@example.com", "Ana", "hunter2"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService(newMockUserStore(), "test-secret", time.Hour)
	u := &User{ID: "user-1", Email: "ana@example.com"}

	token, err := svc.IssueToken(u)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	userID, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if userID != "user-1" {
		t.Errorf("ParseToken() = %q, want user-1", userID)
	}
}

func TestParseTokenRejectsBadTokens(t *testing.T) {
	svc := NewService(newMockUserStore(), "test-secret", time.Hour)
	other := NewService(newMockUserStore(), "other-secret", time.Hour)
	u := &User{ID: "user-1", Email: "ana@example.com"}

	foreign, err := other.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}

	valid, err := svc.IssueToken(u)
	if err != nil {
		t.Fatal(err)
	}
	tampered := valid[:len(valid)-2] + "xy"

	for name, token := range map[string]string{
		"wrong secret": foreign,
		"tampered":     tampered,
		"garbage":      "not.a.token",
		"empty":        "",
	} {
		if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: error = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService(newMockUserStore(), "test-secret", time.Hour)
	svc.tokenTTL = -time.Minute

	token, err := svc.IssueToken(&User{ID: "user-1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}
}
