package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hivel/calendar-service/internal/config"
)

const responseAccepted = "accepted"

type EventRepository interface {
	// SaveEvents stores every event in its own transaction and returns how
	// many were written. Failures are joined into the returned error.
	SaveEvents(ctx context.Context, orgID string, events []Event) (int, error)
	ListByOrganization(ctx context.Context, orgID string) ([]StoredEvent, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) SaveEvents(ctx context.Context, orgID string, events []Event) (int, error) {
	log := config.WithContext(ctx)

	saved := 0
	var errs []error
	for i := range events {
		ev := &events[i]
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return saveEvent(tx, orgID, ev)
		})
		if err != nil {
			log.WithError(err).WithField("event_id", ev.ExternalEventID).Error("Failed to save event")
			errs = append(errs, fmt.Errorf("event %s: %w", ev.ExternalEventID, err))
			continue
		}
		saved++
	}

	log.Infof("Saved %d/%d events", saved, len(events))
	return saved, errors.Join(errs...)
}

func (r *eventRepository) ListByOrganization(ctx context.Context, orgID string) ([]StoredEvent, error) {
	var events []StoredEvent
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("start_time, source_calendar_id").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func saveEvent(tx *gorm.DB, orgID string, ev *Event) error {
	var creatorID *uuid.UUID
	if ev.CreatorEmail != "" {
		id, err := upsertAuthor(tx, orgID, ev.CreatorEmail)
		if err != nil {
			return err
		}
		creatorID = &id
	}

	attendeeIDs := make([]string, 0, len(ev.Attendees))
	acceptedIDs := make([]string, 0)
	for _, a := range ev.Attendees {
		if a.Email == "" {
			continue
		}
		id, err := upsertAuthor(tx, orgID, a.Email)
		if err != nil {
			return err
		}
		attendeeIDs = append(attendeeIDs, id.String())
		if a.ResponseStatus == responseAccepted {
			acceptedIDs = append(acceptedIDs, id.String())
		}
	}

	attendees, err := json.Marshal(ev.Attendees)
	if err != nil {
		return err
	}
	attendeeIDsJSON, err := json.Marshal(attendeeIDs)
	if err != nil {
		return err
	}
	acceptedJSON, err := json.Marshal(acceptedIDs)
	if err != nil {
		return err
	}

	organizer := ev.OrganizerEmail
	if organizer == "" {
		organizer = ev.CreatorEmail
	}
	eventType := ev.EventType
	if eventType == "" {
		eventType = "default"
	}
	status := ev.Status
	if status == "" {
		status = "confirmed"
	}

	row := StoredEvent{
		OrganizationID:   orgID,
		SourceCalendarID: ev.SourceCalendarID,
		ExternalEventID:  ev.ExternalEventID,
		Title:            ev.Title,
		Description:      ev.Description,
		StartTime:        ev.StartTime,
		EndTime:          ev.EndTime,
		EventType:        eventType,
		Status:           status,
		MeetingLink:      ev.MeetingLink,
		OrganizerEmail:   organizer,
		CreatorID:        creatorID,
		Attendees:        datatypes.JSON(attendees),
		AttendeeIDs:      datatypes.JSON(attendeeIDsJSON),
		AcceptedByIDs:    datatypes.JSON(acceptedJSON),
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "organization_id"},
			{Name: "source_calendar_id"},
			{Name: "external_event_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "start_time", "end_time", "event_type", "status",
			"meeting_link", "organizer_email", "creator_id", "attendees",
			"attendee_ids", "accepted_by_ids", "updated_at",
		}),
	}).Create(&row).Error
}

func upsertAuthor(tx *gorm.DB, orgID, email string) (uuid.UUID, error) {
	author := EventAuthor{OrganizationID: orgID, Email: email}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "email"}},
		DoNothing: true,
	}).Create(&author).Error
	if err != nil {
		return uuid.Nil, err
	}

	var existing EventAuthor
	if err := tx.Where("organization_id = ? AND email = ?", orgID, email).First(&existing).Error; err != nil {
		return uuid.Nil, err
	}
	return existing.ID, nil
}
