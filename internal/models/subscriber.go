package models

import "time"

// SubscriberStatus is the newsletter lifecycle state of an email address.
type SubscriberStatus string

const (
	SubscriberPending      SubscriberStatus = "PENDING"
	SubscriberActive       SubscriberStatus = "ACTIVE"
	SubscriberUnsubscribed SubscriberStatus = "UNSUBSCRIBED"
)

// Subscriber holds one row per email address, reused across
// resubscriptions. Soft delete is intentionally absent: GDPR erasure
// must leave nothing behind.
type Subscriber struct {
	Base
	Email  string           `json:"email"  gorm:"uniqueIndex;size:191;not null"`
	Status SubscriberStatus `json:"status" gorm:"size:16;not null;default:PENDING"`

	// ConfirmToken is set only while the row is PENDING and cleared on
	// confirmation, so a consumed confirmation link cannot be replayed.
	ConfirmToken    *string    `json:"-" gorm:"uniqueIndex;size:64"`
	ConfirmTokenExp *time.Time `json:"-"`

	// UnsubToken is issued once at creation and never rotated, keeping
	// unsubscribe links in old emails valid for the row's lifetime.
	UnsubToken string `json:"-" gorm:"uniqueIndex;size:64;not null"`

	SubscribedAt   *time.Time `json:"subscribed_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`

	IPAddress string `json:"-" gorm:"size:64"`
	UserAgent string `json:"-" gorm:"size:512"`

	AllowAnalytics bool `json:"allow_analytics" gorm:"default:false"`
	AllowMarketing bool `json:"allow_marketing" gorm:"default:true"`
}

func (Subscriber) TableName() string { return "subscribers" }
