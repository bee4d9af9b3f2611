// Package domain holds racebot's persistent entities and the invariants
// their constructors enforce.
package domain

import (
	"errors"
	"strings"
	"time"
)

type EventStatus string

const (
	EventUpcoming   EventStatus = "upcoming"
	EventInProgress EventStatus = "in_progress"
	EventFinished   EventStatus = "finished"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventUpcoming, EventInProgress, EventFinished:
		return true
	}
	return false
}

// Event is a scheduled race. Created and updated from the calendar source
// only; the content core treats it as read-only.
type Event struct {
	ID        string
	Name      string
	StartTime time.Time // absolute instant, stored UTC
	Status    EventStatus
	Meta      map[string]string
}

func NewEvent(id, name string, start time.Time, status EventStatus, meta map[string]string) (Event, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Event{}, errors.New("event id is required")
	}
	if strings.TrimSpace(name) == "" {
		return Event{}, errors.New("event name is required")
	}
	if start.IsZero() {
		return Event{}, errors.New("event start time is required")
	}
	if !status.Valid() {
		return Event{}, errors.New("invalid event status: " + string(status))
	}
	return Event{ID: id, Name: name, StartTime: start.UTC(), Status: status, Meta: meta}, nil
}

// Recipient is a subscribed end user. Lang selects which content and bingo
// template variant they see.
type Recipient struct {
	ID        int64
	Lang      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
