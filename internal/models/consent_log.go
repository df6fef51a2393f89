package models

import "gorm.io/datatypes"

// Consent event types recorded in the audit trail.
const (
	ConsentNewsletter = "newsletter"
	ConsentAnalytics  = "analytics"
	ConsentMarketing  = "marketing"
)

// ConsentPolicyVersion identifies the privacy policy text every new
// consent event is recorded against. Bump when the policy changes.
const ConsentPolicyVersion = "2025-01"

// ConsentLog is an append-only audit row, one per consent event.
// Email is deliberately not a foreign key: the row outlives subscriber
// deletion for audit purposes, except when the GDPR erasure transaction
// removes both together.
type ConsentLog struct {
	Base
	Email         string         `json:"email"          gorm:"index;size:191;not null"`
	Type          string         `json:"type"           gorm:"size:32;not null"`
	Granted       bool           `json:"granted"`
	PolicyVersion string         `json:"policy_version" gorm:"size:16"`
	IPAddress     string         `json:"-"              gorm:"size:64"`
	UserAgent     string         `json:"-"              gorm:"size:512"`
	Detail        datatypes.JSON `json:"detail,omitempty"`
}

func (ConsentLog) TableName() string { return "consent_logs" }
