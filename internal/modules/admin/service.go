// Package admin is the dashboard surface: login, subscriber list and
// stats, contact message review and broadcast dispatch.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionTTL is how long an admin login stays valid.
const SessionTTL = 8 * time.Hour

var ErrBadCredentials = errors.New("invalid username or password")

// UserRepo is the persistence surface for admin accounts.
type UserRepo interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type Service struct {
	users UserRepo
	log   *zap.Logger

	now func() time.Time
}

func NewService(users UserRepo, log *zap.Logger) *Service {
	return &Service{users: users, log: log, now: time.Now}
}

// Login checks the credential and mints a session token. The bcrypt
// compare runs even for unknown usernames so both failure paths take
// comparable time.
func (s *Service) Login(ctx context.Context, username, password, ip string) (string, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	hash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if user != nil {
		hash = user.Password
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil || user == nil {
		return "", ErrBadCredentials
	}

	tok, err := jwt.Sign(user.ID, user.IsAdmin, SessionTTL)
	if err != nil {
		return "", err
	}

	now := s.now()
	user.LastLoginAt = &now
	user.LastLoginIP = ip
	if err := s.users.Update(ctx, user); err != nil {
		s.log.Warn("last-login update failed", zap.String("username", username), zap.Error(err))
	}
	return tok, nil
}

// EnsureAdmin seeds (or re-keys) the owner account from configuration
// at startup, so the credential lives in config, not in a migration.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errors.New("admin username and password must be configured")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return s.users.Create(ctx, &models.User{
			Username: username,
			Password: string(hash),
			IsAdmin:  true,
		})
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		user.Password = string(hash)
		return s.users.Update(ctx, user)
	}
	return nil
}

// GormUserRepo is the MySQL-backed UserRepo.
type GormUserRepo struct {
	db *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo { return &GormUserRepo{db: db} }

func (r *GormUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *GormUserRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}
