package services

import (
	"context"
	"testing"
	"time"

	"farm_store/internal/errs"
	"farm_store/internal/models"
	"farm_store/internal/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAdmins struct {
	users map[string]models.AdminUser
}

func (r *memAdmins) Create(_ context.Context, u *models.AdminUser) error {
	u.ID = uint(len(r.users) + 1)
	r.users[u.Username] = *u
	return nil
}

func (r *memAdmins) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, errs.NotFound("memAdmins.GetByUsername", "record not found")
	}
	return &u, nil
}

func TestAuthLoginAuthorizeLogout(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	admins := &memAdmins{users: map[string]models.AdminUser{}}
	require.NoError(t, admins.Create(ctx, &models.AdminUser{Username: "admin", PasswordHash: hash, Email: "a@example.com"}))

	svc := NewAuthService(admins, client, time.Hour)

	_, _, err = svc.Login(ctx, "admin", "wrong")
	assert.True(t, errs.Is(err, errs.KindUnauthorized))
	_, _, err = svc.Login(ctx, "nobody", "s3cret")
	assert.True(t, errs.Is(err, errs.KindUnauthorized))
	_, _, err = svc.Login(ctx, "", "")
	assert.True(t, errs.Is(err, errs.KindValidation))

	token, session, err := svc.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "admin", session.Username)

	got, err := svc.Authorize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.AdminID, got.AdminID)

	_, err = svc.Authorize(ctx, "forged")
	assert.True(t, errs.Is(err, errs.KindUnauthorized))

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Authorize(ctx, token)
	assert.True(t, errs.Is(err, errs.KindUnauthorized))
}

func TestAuthSessionExpires(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })

	hash, err := HashPassword("pw")
	require.NoError(t, err)
	admins := &memAdmins{users: map[string]models.AdminUser{}}
	require.NoError(t, admins.Create(ctx, &models.AdminUser{Username: "admin", PasswordHash: hash}))

	svc := NewAuthService(admins, client, time.Minute)
	token, _, err := svc.Login(ctx, "admin", "pw")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = svc.Authorize(ctx, token)
	assert.True(t, errs.Is(err, errs.KindUnauthorized))
}
