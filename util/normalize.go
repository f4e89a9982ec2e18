package util

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedDateTime reports a datetime string that none of the accepted
// layouts can parse.
var ErrMalformedDateTime = errors.New("malformed datetime")

// LocalDateTime is a parsed wall-clock datetime. HasZone records whether the
// input carried an explicit offset; a bare datetime-local string parses with
// HasZone false and its clock digits are meaningless until a zone is chosen.
type LocalDateTime struct {
	Time    time.Time
	HasZone bool
}

// Layouts without an offset come first; the datetime-local input type
// submits "2006-01-02T15:04".
var naiveLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

var zonedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// ParseDateTime parses a user-supplied datetime string, accepting the
// datetime-local form and RFC 3339.
func ParseDateTime(value string) (LocalDateTime, error) {
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return LocalDateTime{Time: t, HasZone: false}, nil
		}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return LocalDateTime{Time: t, HasZone: true}, nil
		}
	}
	return LocalDateTime{}, fmt.Errorf("%w: %q", ErrMalformedDateTime, value)
}

// ToUTC converts a local wall-clock datetime to the UTC instant stored in
// the database.
//
// With treatAsLocal set, any zone the parser attached is discarded and the
// raw clock digits are reinterpreted as wall-clock time in zone. This covers
// transports that deliver a local time tagged with the wrong zone (typically
// UTC). Otherwise the input's own zone annotation is trusted when present
// and zone is only the fallback for naive inputs.
//
// Ambiguous or nonexistent local times at DST transitions resolve to
// whatever the zone database picks; the choice is deterministic for
// identical input.
func ToUTC(dt LocalDateTime, zone string, treatAsLocal bool) (time.Time, error) {
	if !treatAsLocal && dt.HasZone {
		return dt.Time.UTC(), nil
	}

	loc, err := ResolveTimezone(zone)
	if err != nil {
		return time.Time{}, err
	}

	t := dt.Time
	local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return local.UTC(), nil
}

// ToZone projects a stored UTC instant into a zone for display.
func ToZone(instant time.Time, zone string) (time.Time, error) {
	loc, err := ResolveTimezone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return instant.In(loc), nil
}
