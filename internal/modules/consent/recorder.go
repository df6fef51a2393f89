package consent

import (
	"context"

	"github.com/folio-space/core/internal/models"
	"gorm.io/gorm"
)

// GormRecorder appends rows to the consent audit trail. It satisfies
// the ConsentRecorder interfaces declared by the modules that write
// consent events.
type GormRecorder struct {
	db *gorm.DB
}

func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(ctx context.Context, entry models.ConsentLog) error {
	return r.db.WithContext(ctx).Create(&entry).Error
}

// History returns all consent events for an address, newest first.
func (r *GormRecorder) History(ctx context.Context, email string) ([]models.ConsentLog, error) {
	var logs []models.ConsentLog
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
