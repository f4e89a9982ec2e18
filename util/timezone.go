package util

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnknownZone reports a timezone name the zone database cannot resolve.
var ErrUnknownZone = errors.New("unknown timezone")

// Cache timezone objects to avoid repeated lookups. Losing a race and
// loading the same zone twice is harmless; the map itself must stay intact.
var (
	timezoneCache   = make(map[string]*time.Location)
	timezoneCacheMu sync.RWMutex
)

// ResolveTimezone returns the location for an IANA zone name, memoized for
// the process lifetime. Callers selecting zones through the UI should have
// validated the name against TimezoneChoices first.
func ResolveTimezone(name string) (*time.Location, error) {
	timezoneCacheMu.RLock()
	loc, ok := timezoneCache[name]
	timezoneCacheMu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}

	timezoneCacheMu.Lock()
	timezoneCache[name] = loc
	timezoneCacheMu.Unlock()
	return loc, nil
}

// TimezoneChoice pairs a zone name with the label shown in settings.
type TimezoneChoice struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// TimezoneChoices is the fixed set of zones selectable via profile settings
// or the calendar UI. Zones outside this list that still resolve in the
// zone database are accepted by the normalizer but never offered.
var TimezoneChoices = []TimezoneChoice{
	{"UTC", "UTC (Coordinated Universal Time)"},
	{"Asia/Manila", "Philippines (Manila)"},
	{"America/New_York", "United States (Eastern Time)"},
	{"America/Chicago", "United States (Central Time)"},
	{"America/Denver", "United States (Mountain Time)"},
	{"America/Los_Angeles", "United States (Pacific Time)"},
	{"Europe/London", "United Kingdom (London)"},
	{"Europe/Paris", "France (Paris)"},
	{"Europe/Berlin", "Germany (Berlin)"},
	{"Europe/Rome", "Italy (Rome)"},
	{"Europe/Madrid", "Spain (Madrid)"},
	{"Asia/Tokyo", "Japan (Tokyo)"},
	{"Asia/Shanghai", "China (Shanghai)"},
	{"Asia/Hong_Kong", "Hong Kong"},
	{"Asia/Singapore", "Singapore"},
	{"Asia/Bangkok", "Thailand (Bangkok)"},
	{"Asia/Jakarta", "Indonesia (Jakarta)"},
	{"Asia/Kuala_Lumpur", "Malaysia (Kuala Lumpur)"},
	{"Asia/Seoul", "South Korea (Seoul)"},
	{"Asia/Dubai", "United Arab Emirates (Dubai)"},
	{"Asia/Riyadh", "Saudi Arabia (Riyadh)"},
	{"Asia/Kolkata", "India (Mumbai/Delhi)"},
	{"Australia/Sydney", "Australia (Sydney)"},
	{"Australia/Melbourne", "Australia (Melbourne)"},
	{"Pacific/Auckland", "New Zealand (Auckland)"},
	{"America/Toronto", "Canada (Toronto)"},
	{"America/Vancouver", "Canada (Vancouver)"},
	{"America/Mexico_City", "Mexico (Mexico City)"},
	{"America/Sao_Paulo", "Brazil (São Paulo)"},
	{"America/Buenos_Aires", "Argentina (Buenos Aires)"},
}

// IsAllowedTimezone reports whether name is on the selectable list.
func IsAllowedTimezone(name string) bool {
	for _, c := range TimezoneChoices {
		if c.Name == name {
			return true
		}
	}
	return false
}
