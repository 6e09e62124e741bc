package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/internal/service"
	"github.com/bookhive/lending-service/pkg/auth"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newIdentityService(users *fakeUserRepo) *service.IdentityService {
	cfg := auth.Config{JWTKey: "test-key", TokenTTL: time.Hour}
	return service.NewIdentityService(users, cfg, zap.NewNop())
}

func TestIdentityService_Register(t *testing.T) {
	t.Parallel()

	users := &fakeUserRepo{users: map[string]model.User{}}
	svc := newIdentityService(users)

	user, err := svc.Register(context.Background(), model.RegisterRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	require.NotEmpty(t, user.UserUid)
	require.Equal(t, model.RoleUser, user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, "s3cret-pass", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
}

func TestIdentityService_Login(t *testing.T) {
	t.Parallel()

	users := &fakeUserRepo{users: map[string]model.User{}}
	svc := newIdentityService(users)
	ctx := context.Background()

	registered, err := svc.Register(ctx, model.RegisterRequest{
		Username: "librarian",
		Email:    "librarian@example.com",
		Password: "s3cret-pass",
		Role:     model.RoleLibrarian,
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, model.AuthRequest{Username: "librarian", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Greater(t, resp.ExpiresIn, time.Now().Unix())

	claims, err := auth.ParseToken(auth.Config{JWTKey: "test-key", TokenTTL: time.Hour}, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.UserUid, claims.Profile.UserUid)
	require.Equal(t, "librarian", claims.Profile.Username)
	require.Equal(t, string(model.RoleLibrarian), claims.Profile.Role)
}

func TestIdentityService_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	users := &fakeUserRepo{users: map[string]model.User{}}
	svc := newIdentityService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.RegisterRequest{
		Username: "reader",
		Email:    "reader@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, model.AuthRequest{Username: "reader", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrBadCredentials)

	// unknown usernames answer the same way as wrong passwords
	_, err = svc.Login(ctx, model.AuthRequest{Username: "nobody", Password: "s3cret-pass"})
	require.ErrorIs(t, err, errs.ErrBadCredentials)
}

func TestIdentityService_Login_InactiveUser(t *testing.T) {
	t.Parallel()

	svc := newIdentityService(activeReader())

	_, err := svc.Login(context.Background(), model.AuthRequest{Username: "dormant", Password: "whatever"})
	require.ErrorIs(t, err, errs.ErrUserInactive)
}
