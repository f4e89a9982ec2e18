package util

import (
	"errors"
	"testing"
)

func TestResolveTimezoneAllChoices(t *testing.T) {
	for _, choice := range TimezoneChoices {
		loc, err := ResolveTimezone(choice.Name)
		if err != nil {
			t.Errorf("ResolveTimezone(%q) returned error: %v", choice.Name, err)
			continue
		}
		if loc == nil {
			t.Errorf("ResolveTimezone(%q) returned nil location", choice.Name)
		}
	}
}

func TestResolveTimezoneUnknown(t *testing.T) {
	_, err := ResolveTimezone("Mars/Olympus_Mons")
	if err == nil {
		t.Fatal("expected error for unknown zone")
	}
	if !errors.Is(err, ErrUnknownZone) {
		t.Errorf("expected ErrUnknownZone, got %v", err)
	}
}

func TestResolveTimezoneMemoized(t *testing.T) {
	first, err := ResolveTimezone("Asia/Tokyo")
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	second, err := ResolveTimezone("Asia/Tokyo")
	if err != nil {
		t.Fatalf("cached lookup failed: %v", err)
	}
	if first != second {
		t.Error("expected cached lookup to return the same *time.Location")
	}
}

func TestIsAllowedTimezone(t *testing.T) {
	if !IsAllowedTimezone("UTC") {
		t.Error("UTC should be allowed")
	}
	if !IsAllowedTimezone("Asia/Manila") {
		t.Error("Asia/Manila should be allowed")
	}
	// Resolvable in the zone database but not on the selectable list.
	if IsAllowedTimezone("Africa/Cairo") {
		t.Error("Africa/Cairo should not be on the selectable list")
	}
	if IsAllowedTimezone("") {
		t.Error("empty name should not be allowed")
	}
}
