package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// record is the relational shape of a session. The table is created by
// the schema migrations alongside the application tables.
type record struct {
	ID        string `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex;not null"`
	UserID    *uint  `gorm:"index"`
	IP        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (record) TableName() string { return "sessions" }

// GormStore persists sessions through a gorm handle.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a database-backed session store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, sess *Session) error {
	return s.db.WithContext(ctx).Create(toRecord(sess)).Error
}

func (s *GormStore) Get(ctx context.Context, token string) (*Session, error) {
	var rec record
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess := fromRecord(&rec)
	if sess.IsExpired() {
		// Expired rows are reaped lazily on access and in bulk by
		// DeleteExpired.
		_ = s.Delete(ctx, sess.ID)
		return nil, ErrExpired
	}
	return sess, nil
}

func (s *GormStore) Update(ctx context.Context, sess *Session) error {
	return s.db.WithContext(ctx).
		Model(&record{}).
		Where("id = ?", sess.ID).
		Updates(map[string]any{
			"token":      sess.Token,
			"user_id":    sess.UserID,
			"expires_at": sess.ExpiresAt,
		}).Error
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&record{}, "id = ?", id).Error
}

func (s *GormStore) DeleteExpired(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&record{}).Error
}

// Migrate creates the sessions table. Production uses the SQL
// migrations; tests use this directly.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&record{})
}

func toRecord(sess *Session) *record {
	return &record{
		ID:        sess.ID,
		Token:     sess.Token,
		UserID:    sess.UserID,
		IP:        sess.IP,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
}

func fromRecord(rec *record) *Session {
	return &Session{
		ID:        rec.ID,
		Token:     rec.Token,
		UserID:    rec.UserID,
		IP:        rec.IP,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
}
