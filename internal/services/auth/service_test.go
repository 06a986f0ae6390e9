package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/ivankudzin/vodapp/backend/internal/domain/enums"
	"github.com/ivankudzin/vodapp/backend/internal/domain/model"
	pgrepo "github.com/ivankudzin/vodapp/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/vodapp/backend/internal/repo/redis"
	authsvc "github.com/ivankudzin/vodapp/backend/internal/services/auth"
)

type userStoreStub struct {
	users map[string]stubUser
}

type stubUser struct {
	user model.User
	hash string
}

func (s *userStoreStub) FindCredentialsByEmail(_ context.Context, email string) (model.User, string, error) {
	entry, ok := s.users[email]
	if !ok {
		return model.User{}, "", pgrepo.ErrUserNotFound
	}
	return entry.user, entry.hash, nil
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	result, err := svc.Login(ctx, "viewer@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Me.ID != 1001 {
		t.Fatalf("unexpected user id: %d", result.Me.ID)
	}

	if _, err := svc.Login(ctx, "viewer@example.com", "wrong password"); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("wrong password should be unauthorized, got err=%v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("unknown email should be unauthorized, got err=%v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.Login(ctx, "viewer@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshRes, err := svc.Refresh(ctx, loginRes.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if refreshRes.RefreshToken == loginRes.RefreshToken {
		t.Fatalf("refresh token was not rotated")
	}

	if _, err := svc.Refresh(ctx, loginRes.RefreshToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("old refresh token should be unauthorized, got err=%v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, refreshRes.AccessToken); err != nil {
		t.Fatalf("new access token validation failed: %v", err)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, cleanup := newAuthServiceForTest(t)
	defer cleanup()

	ctx := context.Background()
	loginRes, err := svc.Login(ctx, "viewer@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken)
	if err != nil {
		t.Fatalf("validate access token before logout: %v", err)
	}

	if err := svc.Logout(ctx, claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(ctx, loginRes.AccessToken); !errors.Is(err, authsvc.ErrUnauthorized) {
		t.Fatalf("access token should be unauthorized after logout, got err=%v", err)
	}
}

func newAuthServiceForTest(t *testing.T) (*authsvc.Service, func()) {
	t.Helper()

	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	sessions := redrepo.NewSessionRepo(client)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash test password: %v", err)
	}
	users := &userStoreStub{users: map[string]stubUser{
		"viewer@example.com": {
			user: model.User{ID: 1001, Email: "viewer@example.com", Role: enums.RoleUser},
			hash: string(hash),
		},
	}}

	jwtManager := authsvc.NewJWTManager("test-secret", 15*time.Minute)
	svc := authsvc.NewService(jwtManager, sessions, users, 45*24*time.Hour)

	cleanup := func() {
		_ = client.Close()
		mini.Close()
	}

	return svc, cleanup
}
