package gdpr

import (
	"context"

	"github.com/folio-space/core/internal/models"
	"gorm.io/gorm"
)

// GormEraser deletes a subscriber row together with its consent audit
// rows in one transaction, so erasure is all-or-nothing.
type GormEraser struct {
	db *gorm.DB
}

func NewGormEraser(db *gorm.DB) *GormEraser { return &GormEraser{db: db} }

func (e *GormEraser) EraseSubscriberData(ctx context.Context, email string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.ConsentLog{}).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", email).Delete(&models.Subscriber{}).Error
	})
}
