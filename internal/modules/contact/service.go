package contact

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/folio-space/core/internal/models"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxSubjectLen = 200
	maxMessageLen = 5000
)

var (
	ErrMissingField   = errors.New("name, email and message are required")
	ErrInvalidEmail   = errors.New("please enter a valid email address")
	ErrMessageTooLong = errors.New("message is too long")
)

// Mailer relays a stored message to the site owner's inbox.
type Mailer interface {
	SendContactRelay(to, subject string, data pkgmail.ContactRelayData) error
}

// Repository persists contact submissions.
type Repository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	Update(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, limit, offset int) ([]models.ContactMessage, int64, error)
}

// Input is one contact form submission.
type Input struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	IP        string
	UserAgent string
}

type Service struct {
	repo    Repository
	mailer  Mailer
	ownerTo string
	log     *zap.Logger
}

func NewService(repo Repository, mailer Mailer, ownerTo string, log *zap.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, ownerTo: ownerTo, log: log}
}

// Submit validates, stores and relays one message. The row is written
// before the relay so a failed send is recoverable from the admin
// message list; a relay failure is reported to the caller but the
// stored row stays.
func (s *Service) Submit(ctx context.Context, in Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	if in.Name == "" || in.Email == "" || in.Message == "" {
		return ErrMissingField
	}
	if !strings.Contains(in.Email, "@") || !strings.Contains(in.Email[strings.LastIndex(in.Email, "@"):], ".") {
		return ErrInvalidEmail
	}
	if utf8.RuneCountInString(in.Message) > maxMessageLen || utf8.RuneCountInString(in.Subject) > maxSubjectLen {
		return ErrMessageTooLong
	}

	row := &models.ContactMessage{
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		IPAddress: in.IP,
		UserAgent: in.UserAgent,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return err
	}

	err := s.mailer.SendContactRelay(s.ownerTo, in.Subject, pkgmail.ContactRelayData{
		Name:  in.Name,
		Email: in.Email,
		Body:  in.Message,
		IP:    in.IP,
		Agent: in.UserAgent,
	})
	if err != nil {
		s.log.Error("contact relay failed",
			zap.String("id", row.ID), zap.String("from", in.Email), zap.Error(err))
		return err
	}

	row.Relayed = true
	if err := s.repo.Update(ctx, row); err != nil {
		// the message is stored and relayed; the flag is cosmetic
		s.log.Warn("contact relayed-flag update failed", zap.String("id", row.ID), zap.Error(err))
	}
	return nil
}

// List returns stored messages for the admin surface, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.ContactMessage, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// GormRepository is the MySQL-backed Repository.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository { return &GormRepository{db: db} }

func (r *GormRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *GormRepository) Update(ctx context.Context, msg *models.ContactMessage) error {
	return r.db.WithContext(ctx).Save(msg).Error
}

func (r *GormRepository) List(ctx context.Context, limit, offset int) ([]models.ContactMessage, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ContactMessage{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ContactMessage
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, total, err
}
