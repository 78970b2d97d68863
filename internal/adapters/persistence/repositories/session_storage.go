package repositories

import (
	"context"
	"errors"
	"time"

	"finspark-backoffice/internal/adapters/persistence/models"
	"finspark-backoffice/internal/session"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStorage implements session.Storage on a SQL table through gorm
type SessionStorage struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewSessionStorage creates a new gorm-backed session storage
func NewSessionStorage(db *gorm.DB) *SessionStorage {
	return &SessionStorage{db: db, timeout: 5 * time.Second}
}

// Get returns the value for key, nil when missing or expired
func (r *SessionStorage) Get(key string) ([]byte, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	var row models.BrowserSession
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if row.Expired(time.Now()) {
		return nil, nil
	}
	if row.Value == nil {
		return []byte{}, nil
	}
	return row.Value, nil
}

// Set upserts a value; exp of zero means no expiry
func (r *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	ctx, cancel := r.ctx()
	defer cancel()

	return r.upsert(r.db.WithContext(ctx), []models.BrowserSession{row(key, val, exp)})
}

// Delete removes a key
func (r *SessionStorage) Delete(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	return r.db.WithContext(ctx).Where("`key` = ?", key).Delete(&models.BrowserSession{}).Error
}

// SetMany upserts all values in one transaction
func (r *SessionStorage) SetMany(values map[string][]byte, exp time.Duration) error {
	ctx, cancel := r.ctx()
	defer cancel()

	rows := make([]models.BrowserSession, 0, len(values))
	for key, val := range values {
		rows = append(rows, row(key, val, exp))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.upsert(tx, rows)
	})
}

// DeleteMany removes all keys in one statement
func (r *SessionStorage) DeleteMany(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := r.ctx()
	defer cancel()

	return r.db.WithContext(ctx).Where("`key` IN ?", keys).Delete(&models.BrowserSession{}).Error
}

// DeleteExpired purges expired rows and returns how many were removed
func (r *SessionStorage) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.BrowserSession{})
	return result.RowsAffected, result.Error
}

func (r *SessionStorage) upsert(db *gorm.DB, rows []models.BrowserSession) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&rows).Error
}

func (r *SessionStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func row(key string, val []byte, exp time.Duration) models.BrowserSession {
	s := models.BrowserSession{Key: key, Value: val}
	if exp > 0 {
		expiresAt := time.Now().Add(exp)
		s.ExpiresAt = &expiresAt
	}
	return s
}

var (
	_ session.Storage = (*SessionStorage)(nil)
	_ session.Batch   = (*SessionStorage)(nil)
)
