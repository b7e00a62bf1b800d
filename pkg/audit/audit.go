package audit

import (
	"context"
	"time"

	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry records one mutating action for the audit trail.
type Entry struct {
	ID           string            `json:"id" gorm:"primaryKey;column:id"`
	UserID       string            `json:"user_id" gorm:"column:user_id"`
	Action       string            `json:"action" gorm:"column:action"`
	ResourceType string            `json:"resource_type" gorm:"column:resource_type"`
	ResourceID   string            `json:"resource_id" gorm:"column:resource_id"`
	Changes      datatypes.JSONMap `json:"changes,omitempty" gorm:"column:changes"`
	CreatedAt    time.Time         `json:"created_at" gorm:"column:created_at"`
}

func (Entry) TableName() string {
	return "audit_log"
}

type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) AutoMigrate() error {
	return r.db.AutoMigrate(&Entry{})
}

// Record writes an audit entry. Auditing must never fail the action it
// describes, so errors are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, userID, action, resourceType, resourceID string, changes map[string]interface{}) {
	if r == nil || r.db == nil {
		return
	}
	entry := &Entry{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Changes:      datatypes.JSONMap(changes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"action":      action,
			"resource_id": resourceID,
		}).Error("failed to write audit entry")
	}
}

// List returns entries for a resource, newest first.
func (r *Recorder) List(ctx context.Context, resourceType, resourceID string) ([]Entry, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	var entries []Entry
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if resourceType != "" {
		q = q.Where("resource_type = ?", resourceType)
	}
	if resourceID != "" {
		q = q.Where("resource_id = ?", resourceID)
	}
	return entries, q.Find(&entries).Error
}
