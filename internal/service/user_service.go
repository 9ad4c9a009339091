package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"

	"github.com/MainDotCpp/BlueUnion/internal/auth"
	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/datamodels/user"
	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

// UserService 后台账号与登录
type UserService struct {
	repo user.Repository
	jwt  *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(repo user.Repository, jwt *config.JWTConfig) *UserService {
	return &UserService{repo: repo, jwt: jwt}
}

func hashPassword(raw, salt string) string {
	h := sha256.Sum256([]byte(raw + salt))
	return hex.EncodeToString(h[:])
}

func genSalt() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Create 创建后台账号
func (s *UserService) Create(ctx context.Context, username, password, role string) (*user.User, error) {
	if username == "" || password == "" {
		return nil, errs.ErrMissingFields
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, errs.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if role == "" {
		role = user.RoleAdmin
	}
	u := &user.User{
		Username: username,
		Salt:     genSalt(),
		Role:     role,
		Status:   user.StatusActive,
	}
	u.Password = hashPassword(password, u.Salt)
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login 登录并返回 JWT
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.ErrInvalidPassword
		}
		return "", err
	}
	if u.Status != user.StatusActive {
		return "", errs.ErrInvalidPassword
	}
	if hashPassword(password, u.Salt) != u.Password {
		return "", errs.ErrInvalidPassword
	}
	return auth.GenerateToken(s.jwt, u.ID, u.Username, u.Role)
}

// GetByID 查询账号
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
