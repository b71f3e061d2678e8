package calendar

import (
	gcal "google.golang.org/api/calendar/v3"
)

const untitled = "No Title"

func NormalizeEvent(e *gcal.Event, calendarID string) Event {
	out := Event{
		ExternalEventID:  e.Id,
		Title:            e.Summary,
		Description:      e.Description,
		StartTime:        eventTime(e.Start),
		EndTime:          eventTime(e.End),
		SourceCalendarID: calendarID,
		Attendees:        make([]Attendee, 0, len(e.Attendees)),
		MeetingLink:      meetingLink(e),
		EventType:        e.EventType,
		Status:           e.Status,
	}
	if out.Title == "" {
		out.Title = untitled
	}
	if e.Creator != nil {
		out.CreatorEmail = e.Creator.Email
	}
	if e.Organizer != nil {
		out.OrganizerEmail = e.Organizer.Email
	}

	for _, a := range e.Attendees {
		if a == nil {
			continue
		}
		out.Attendees = append(out.Attendees, Attendee{
			Email:          a.Email,
			ResponseStatus: a.ResponseStatus,
			IsOrganizer:    a.Organizer,
		})
	}
	return out
}

// eventTime prefers the timed form; all-day events only carry a date.
func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

func meetingLink(e *gcal.Event) string {
	if e.HangoutLink != "" {
		return e.HangoutLink
	}
	if e.ConferenceData == nil {
		return ""
	}
	for _, ep := range e.ConferenceData.EntryPoints {
		if ep != nil && ep.EntryPointType == "video" && ep.Uri != "" {
			return ep.Uri
		}
	}
	return ""
}
