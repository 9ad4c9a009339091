package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MainDotCpp/BlueUnion/internal/auth"
	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/user"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
	"github.com/MainDotCpp/BlueUnion/internal/repository/mysql"
)

func setupUserSvc(t *testing.T) (*UserService, *config.JWTConfig) {
	t.Helper()
	db := setupDB(t)
	jwtCfg := &config.JWTConfig{Secret: "test-secret"}
	return NewUserService(mysql.NewUserRepository(db), jwtCfg), jwtCfg
}

func TestUserCreateAndLogin(t *testing.T) {
	svc, jwtCfg := setupUserSvc(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, "admin", "s3cret", "")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.Equal(t, user.StatusActive, u.Status)
	assert.NotEqual(t, "s3cret", u.Password, "密码必须加盐散列存储")
	assert.NotEmpty(t, u.Salt)

	// 用户名重复
	_, err = svc.Create(ctx, "admin", "other", "")
	assert.ErrorIs(t, err, errs.ErrUsernameTaken)

	token, err := svc.Login(ctx, "admin", "s3cret")
	require.NoError(t, err)
	claims, err := auth.ParseToken(jwtCfg, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, user.RoleAdmin, claims.Role)
}

func TestUserLoginRejects(t *testing.T) {
	svc, _ := setupUserSvc(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "op", "pass123", user.RoleOperator)
	require.NoError(t, err)

	// 密码错误和用户不存在返回同一个错误，不暴露账号是否存在
	_, err = svc.Login(ctx, "op", "wrong")
	assert.ErrorIs(t, err, errs.ErrInvalidPassword)
	_, err = svc.Login(ctx, "nobody", "pass123")
	assert.ErrorIs(t, err, errs.ErrInvalidPassword)
}

func TestSaltedHashDiffers(t *testing.T) {
	svc, _ := setupUserSvc(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "a", "same-password", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "b", "same-password", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.Password, b.Password, "不同盐值下相同密码的散列应不同")
}
