package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncStatus string

const (
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusError   SyncStatus = "error"
)

type SyncState struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	OrganizationID string     `gorm:"column:organization_id;not null;uniqueIndex" json:"org_id"`
	Status         SyncStatus `gorm:"not null" json:"status"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastEventCount int        `json:"last_event_count"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (SyncState) TableName() string {
	return "sync_states"
}

func (s *SyncState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type SyncStateRepository interface {
	Get(ctx context.Context, orgID string) (*SyncState, error)
	MarkSyncing(ctx context.Context, orgID string) error
	MarkIdle(ctx context.Context, orgID string, eventCount int) error
	MarkError(ctx context.Context, orgID string, cause error) error
}

type syncStateRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepository{db: db, now: time.Now}
}

func (r *syncStateRepository) Get(ctx context.Context, orgID string) (*SyncState, error) {
	var state SyncState
	err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *syncStateRepository) MarkSyncing(ctx context.Context, orgID string) error {
	return r.upsert(ctx, &SyncState{OrganizationID: orgID, Status: SyncStatusSyncing},
		"status", "updated_at")
}

func (r *syncStateRepository) MarkIdle(ctx context.Context, orgID string, eventCount int) error {
	now := r.now().UTC()
	return r.upsert(ctx, &SyncState{
		OrganizationID: orgID,
		Status:         SyncStatusIdle,
		LastSyncAt:     &now,
		LastEventCount: eventCount,
	}, "status", "last_sync_at", "last_event_count", "error_message", "updated_at")
}

func (r *syncStateRepository) MarkError(ctx context.Context, orgID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.upsert(ctx, &SyncState{
		OrganizationID: orgID,
		Status:         SyncStatusError,
		ErrorMessage:   msg,
	}, "status", "error_message", "updated_at")
}

func (r *syncStateRepository) upsert(ctx context.Context, state *SyncState, columns ...string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(state).Error
}
