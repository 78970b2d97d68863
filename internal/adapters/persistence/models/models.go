package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Browser Sessions
// ============================================================

// BrowserSession represents one durable session key of one browser.
// Key is "<browser id>:<field>".
type BrowserSession struct {
	Key       string     `gorm:"primaryKey;size:191" json:"key"`
	Value     []byte     `gorm:"type:blob" json:"-"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BrowserSession) TableName() string {
	return "browser_sessions"
}

// Expired reports whether the row is past its expiry
func (s *BrowserSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for the session tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BrowserSession{},
	)
}
