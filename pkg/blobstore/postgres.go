package blobstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blob is the row backing the default blob store. Content lives in a
// bytea column, mirroring how uploads were stored before an object
// store was available.
type Blob struct {
	DocumentID  string    `gorm:"primaryKey;column:document_id"`
	ContentType string    `gorm:"column:content_type"`
	Content     []byte    `gorm:"column:content"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Blob) TableName() string {
	return "document_blobs"
}

type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AutoMigrate() error {
	return s.db.AutoMigrate(&Blob{})
}

func (s *PostgresStore) Put(ctx context.Context, documentID, contentType string, data []byte) error {
	now := time.Now().UTC()
	blob := &Blob{
		DocumentID:  documentID,
		ContentType: contentType,
		Content:     data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_type", "content", "updated_at"}),
		}).
		Create(blob).Error
}

func (s *PostgresStore) Get(ctx context.Context, documentID string) ([]byte, error) {
	var blob Blob
	result := s.db.WithContext(ctx).First(&blob, "document_id = ?", documentID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return blob.Content, nil
}

func (s *PostgresStore) Delete(ctx context.Context, documentID string) error {
	return s.db.WithContext(ctx).Delete(&Blob{}, "document_id = ?", documentID).Error
}
