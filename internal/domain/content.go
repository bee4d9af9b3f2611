package domain

import (
	"errors"
	"strings"
	"time"
)

type ContentKind string

const (
	KindPreRace  ContentKind = "pre_race"
	KindPostRace ContentKind = "post_race"
)

func (k ContentKind) Valid() bool {
	return k == KindPreRace || k == KindPostRace
}

type ContentStatus string

const (
	StatusDraft           ContentStatus = "draft"
	StatusPendingApproval ContentStatus = "pending_approval"
	StatusApproved        ContentStatus = "approved"
	StatusPublished       ContentStatus = "published"
)

// order returns the position of s in the draft < pending_approval < approved
// < published total order, or -1 for unknown values.
func (s ContentStatus) order() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPendingApproval:
		return 1
	case StatusApproved:
		return 2
	case StatusPublished:
		return 3
	}
	return -1
}

func (s ContentStatus) Valid() bool { return s.order() >= 0 }

// AtLeast reports whether s is equal to or later than other in the status
// order. Status never regresses: every transition must satisfy
// next.AtLeast(current).
func (s ContentStatus) AtLeast(other ContentStatus) bool {
	return s.order() >= other.order()
}

// ContentKey uniquely identifies one content item. At most one row exists
// per key.
type ContentKey struct {
	EventID string
	Kind    ContentKind
	Lang    string
}

func NewContentKey(eventID string, kind ContentKind, lang string) (ContentKey, error) {
	eventID = strings.TrimSpace(eventID)
	lang = strings.TrimSpace(lang)
	if eventID == "" {
		return ContentKey{}, errors.New("content key: event id is required")
	}
	if !kind.Valid() {
		return ContentKey{}, errors.New("content key: invalid kind: " + string(kind))
	}
	if lang == "" {
		return ContentKey{}, errors.New("content key: lang is required")
	}
	return ContentKey{EventID: eventID, Kind: kind, Lang: lang}, nil
}

func (k ContentKey) String() string {
	return k.EventID + "/" + string(k.Kind) + "/" + k.Lang
}

// ContentItem is one generated, per-language, per-kind editorial text tied to
// an event. Status moves draft → pending_approval → approved → published;
// cancel deletes the row instead of adding a terminal state.
type ContentItem struct {
	Key       ContentKey
	Status    ContentStatus
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
