package calendar

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Attendee struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status"`
	IsOrganizer    bool   `json:"is_organizer"`
}

// Event is the flat, provider-independent record produced by a sync.
type Event struct {
	ExternalEventID  string     `json:"external_event_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	StartTime        string     `json:"start_time"`
	EndTime          string     `json:"end_time"`
	CreatorEmail     string     `json:"creator_email,omitempty"`
	OrganizerEmail   string     `json:"organizer_email,omitempty"`
	SourceCalendarID string     `json:"source_calendar_id"`
	Attendees        []Attendee `json:"attendees"`
	MeetingLink      string     `json:"meeting_link,omitempty"`
	EventType        string     `json:"event_type,omitempty"`
	Status           string     `json:"status,omitempty"`
	OrgID            string     `json:"org_id"`
}

type StoredEvent struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID   string         `gorm:"column:organization_id;not null;uniqueIndex:idx_event_identity" json:"organization_id"`
	SourceCalendarID string         `gorm:"not null;uniqueIndex:idx_event_identity" json:"source_calendar_id"`
	ExternalEventID  string         `gorm:"not null;uniqueIndex:idx_event_identity" json:"external_event_id"`
	Title            string         `json:"title"`
	Description      string         `gorm:"type:text" json:"description,omitempty"`
	StartTime        string         `json:"start_time"`
	EndTime          string         `json:"end_time"`
	EventType        string         `json:"event_type"`
	Status           string         `json:"status"`
	MeetingLink      string         `json:"meeting_link,omitempty"`
	OrganizerEmail   string         `json:"organizer_email,omitempty"`
	CreatorID        *uuid.UUID     `gorm:"type:uuid" json:"creator_id,omitempty"`
	Attendees        datatypes.JSON `json:"attendees"`
	AttendeeIDs      datatypes.JSON `gorm:"column:attendee_ids" json:"attendee_ids"`
	AcceptedByIDs    datatypes.JSON `gorm:"column:accepted_by_ids" json:"accepted_by_ids"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (StoredEvent) TableName() string {
	return "calendar_events"
}

func (e *StoredEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EventAuthor is one person seen as creator or attendee within an
// organization.
type EventAuthor struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID string    `gorm:"column:organization_id;not null;uniqueIndex:idx_author_org_email" json:"organization_id"`
	Email          string    `gorm:"not null;uniqueIndex:idx_author_org_email" json:"email"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (EventAuthor) TableName() string {
	return "event_authors"
}

func (a *EventAuthor) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
