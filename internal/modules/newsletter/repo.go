package newsletter

import (
	"context"
	"errors"

	"github.com/folio-space/core/internal/models"
	"gorm.io/gorm"
)

// GormRepository implements Repository over the relational store.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormRepository) FindByConfirmToken(ctx context.Context, token string) (*models.Subscriber, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, "confirm_token = ?", token)
}

func (r *GormRepository) FindByUnsubToken(ctx context.Context, token string) (*models.Subscriber, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, "unsub_token = ?", token)
}

func (r *GormRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := r.db.WithContext(ctx).Where(query, arg).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *GormRepository) Update(ctx context.Context, sub *models.Subscriber) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *GormRepository) List(ctx context.Context, status models.SubscriberStatus) ([]models.Subscriber, error) {
	var subs []models.Subscriber
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return subs, q.Find(&subs).Error
}

func (r *GormRepository) CountByStatus(ctx context.Context) (map[models.SubscriberStatus]int64, error) {
	var rows []struct {
		Status models.SubscriberStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Subscriber{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.SubscriberStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
