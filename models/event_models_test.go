package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"synchsphere-backend/util"
)

func sampleEvents() []Event {
	return []Event{
		{
			ID:          1,
			Title:       "Standup",
			Description: "Daily sync",
			Location:    "Room A",
			StartTime:   time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC),
		},
		{
			ID:          2,
			Title:       "Review",
			Description: "Quarterly review",
			Location:    "Room B",
			StartTime:   time.Date(2025, 3, 16, 9, 0, 0, 0, time.UTC),
			EndTime:     time.Date(2025, 3, 16, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestProjectEventsUTC(t *testing.T) {
	projected, err := ProjectEvents(sampleEvents(), "", ProjectionUTC)
	if err != nil {
		t.Fatalf("ProjectEvents failed: %v", err)
	}
	if len(projected) != 2 {
		t.Fatalf("expected 2 events, got %d", len(projected))
	}
	if projected[0].Start != "2025-03-15T01:00:00Z" {
		t.Errorf("unexpected UTC start: %q", projected[0].Start)
	}
	if projected[0].End != "2025-03-15T02:00:00Z" {
		t.Errorf("unexpected UTC end: %q", projected[0].End)
	}
}

func TestProjectEventsLocal(t *testing.T) {
	projected, err := ProjectEvents(sampleEvents(), "Asia/Manila", ProjectionLocal)
	if err != nil {
		t.Fatalf("ProjectEvents failed: %v", err)
	}
	if projected[0].Start != "2025-03-15T09:00:00+08:00" {
		t.Errorf("unexpected Manila start: %q", projected[0].Start)
	}
	if projected[0].End != "2025-03-15T10:00:00+08:00" {
		t.Errorf("unexpected Manila end: %q", projected[0].End)
	}
}

func TestProjectEventsPreservesOrder(t *testing.T) {
	projected, err := ProjectEvents(sampleEvents(), "", ProjectionUTC)
	if err != nil {
		t.Fatalf("ProjectEvents failed: %v", err)
	}
	if projected[0].ID != 1 || projected[1].ID != 2 {
		t.Errorf("input order not preserved: got IDs %d, %d", projected[0].ID, projected[1].ID)
	}
}

func TestProjectEventsUnknownZone(t *testing.T) {
	_, err := ProjectEvents(sampleEvents(), "Nowhere/Land", ProjectionLocal)
	if !errors.Is(err, util.ErrUnknownZone) {
		t.Errorf("expected ErrUnknownZone, got %v", err)
	}
}

func TestProjectEventsTruncatesDescription(t *testing.T) {
	events := sampleEvents()
	events[0].Description = strings.Repeat("é", DescriptionPreviewLength+50)

	projected, err := ProjectEvents(events, "", ProjectionUTC)
	if err != nil {
		t.Fatalf("ProjectEvents failed: %v", err)
	}
	got := []rune(projected[0].Description)
	if len(got) != DescriptionPreviewLength {
		t.Errorf("expected description truncated to %d runes, got %d", DescriptionPreviewLength, len(got))
	}
	// Short descriptions pass through untouched.
	if projected[1].Description != "Quarterly review" {
		t.Errorf("short description should be unchanged, got %q", projected[1].Description)
	}
}

func TestProjectEventDetailKeepsFullDescription(t *testing.T) {
	e := sampleEvents()[0]
	e.Description = strings.Repeat("x", DescriptionPreviewLength+100)

	detail, err := ProjectEventDetail(e, "", ProjectionUTC)
	if err != nil {
		t.Fatalf("ProjectEventDetail failed: %v", err)
	}
	if len(detail.Description) != DescriptionPreviewLength+100 {
		t.Errorf("detail projection must keep the full description, got %d chars", len(detail.Description))
	}
}

func TestProjectionIsReadOnly(t *testing.T) {
	events := sampleEvents()
	before := events[0].StartTime

	if _, err := ProjectEvents(events, "Asia/Tokyo", ProjectionLocal); err != nil {
		t.Fatalf("ProjectEvents failed: %v", err)
	}
	if !events[0].StartTime.Equal(before) {
		t.Error("projection must not mutate the stored event")
	}

	// Projecting twice yields identical output.
	first, err := ProjectEvents(events, "Asia/Tokyo", ProjectionLocal)
	if err != nil {
		t.Fatalf("first projection failed: %v", err)
	}
	second, err := ProjectEvents(events, "Asia/Tokyo", ProjectionLocal)
	if err != nil {
		t.Fatalf("second projection failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("projection not stable at index %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
