package auth

import (
	"PhotoAlbum/internal/models"
	"PhotoAlbum/pkg/database"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidCredentials 不区分“用户不存在”和“密码错误”。
var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	saltBytes   = 16
	argonTime   = 1
	argonMemory = 64 * 1024
	argonLanes  = 4
	argonKeyLen = 32
)

type Service struct {
	users database.UserStore
	ids   database.Sequencer
}

func NewService(users database.UserStore, ids database.Sequencer) *Service {
	return &Service{users: users, ids: ids}
}

type Registration struct {
	Name     string
	Email    string
	Username string
	Password string
}

// Register 创建新用户。ownerID 与相册、照片共用同一套原子计数器。
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	username := strings.TrimSpace(r.Username)
	if username == "" || r.Password == "" {
		return nil, fmt.Errorf("%w: 用户名和密码不能为空", database.ErrInvalidInput)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: 用户名 %s 已存在", database.ErrDuplicateName, username)
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	ownerID, err := s.ids.NextID(ctx, database.KindOwner)
	if err != nil {
		return nil, fmt.Errorf("分配 ownerID 失败: %w", err)
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		OwnerID:      ownerID,
		Username:     username,
		Name:         strings.TrimSpace(r.Name),
		Email:        strings.TrimSpace(r.Email),
		PasswordHash: hashPassword(r.Password, salt),
		Salt:         salt,
	}
	// 并发注册同名用户时由存储层的唯一约束兜底
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("用户注册成功", "username", username, "ownerID", ownerID)
	return user, nil
}

// Verify 校验用户名和密码，成功时返回用户。
func (s *Service) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	want, err := hex.DecodeString(user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	got, _ := hex.DecodeString(hashPassword(password, user.Salt))
	if subtle.ConstantTimeCompare(want, got) != 1 {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func newSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("生成盐值失败: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashPassword(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonLanes, argonKeyLen)
	return hex.EncodeToString(key)
}
