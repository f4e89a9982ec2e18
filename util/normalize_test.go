package util

import (
	"errors"
	"testing"
	"time"
)

func TestParseDateTimeNaive(t *testing.T) {
	dt, err := ParseDateTime("2025-03-15T09:00")
	if err != nil {
		t.Fatalf("ParseDateTime failed: %v", err)
	}
	if dt.HasZone {
		t.Error("datetime-local input should parse with HasZone false")
	}
	if dt.Time.Hour() != 9 || dt.Time.Minute() != 0 {
		t.Errorf("unexpected clock digits: %v", dt.Time)
	}
}

func TestParseDateTimeZoned(t *testing.T) {
	dt, err := ParseDateTime("2025-03-15T09:00:00+08:00")
	if err != nil {
		t.Fatalf("ParseDateTime failed: %v", err)
	}
	if !dt.HasZone {
		t.Error("RFC 3339 input should parse with HasZone true")
	}
	if got := dt.Time.UTC().Hour(); got != 1 {
		t.Errorf("expected 01:00 UTC, got hour %d", got)
	}
}

func TestParseDateTimeMalformed(t *testing.T) {
	for _, value := range []string{"", "not-a-date", "15/03/2025 09:00", "2025-13-40T99:99"} {
		_, err := ParseDateTime(value)
		if err == nil {
			t.Errorf("ParseDateTime(%q) should fail", value)
			continue
		}
		if !errors.Is(err, ErrMalformedDateTime) {
			t.Errorf("ParseDateTime(%q): expected ErrMalformedDateTime, got %v", value, err)
		}
	}
}

func TestToUTCNaiveInManila(t *testing.T) {
	dt, err := ParseDateTime("2025-03-15T09:00")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got, err := ToUTC(dt, "Asia/Manila", false)
	if err != nil {
		t.Fatalf("ToUTC failed: %v", err)
	}
	want := time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestToUTCTreatAsLocalOverridesZone(t *testing.T) {
	// A UTC-tagged payload whose digits are actually New York wall-clock
	// time. treatAsLocal discards the bogus tag.
	dt, err := ParseDateTime("2025-03-15T09:00:00Z")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got, err := ToUTC(dt, "America/New_York", true)
	if err != nil {
		t.Fatalf("ToUTC failed: %v", err)
	}
	want := time.Date(2025, 3, 15, 13, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestToUTCTrustsExplicitOffset(t *testing.T) {
	dt, err := ParseDateTime("2025-03-15T09:00:00+08:00")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	// Without treatAsLocal, the fallback zone is ignored for zoned input.
	got, err := ToUTC(dt, "America/New_York", false)
	if err != nil {
		t.Fatalf("ToUTC failed: %v", err)
	}
	want := time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestToUTCUnknownZone(t *testing.T) {
	dt, err := ParseDateTime("2025-03-15T09:00")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = ToUTC(dt, "Nowhere/Land", false)
	if !errors.Is(err, ErrUnknownZone) {
		t.Errorf("expected ErrUnknownZone, got %v", err)
	}
}

func TestToUTCDSTGapDeterministic(t *testing.T) {
	// 02:30 on 2025-03-09 does not exist in New York; the clocks jump from
	// 02:00 to 03:00. The resolution must not error and must be stable.
	dt, err := ParseDateTime("2025-03-09T02:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	first, err := ToUTC(dt, "America/New_York", false)
	if err != nil {
		t.Fatalf("ToUTC failed on DST gap: %v", err)
	}
	second, err := ToUTC(dt, "America/New_York", false)
	if err != nil {
		t.Fatalf("ToUTC failed on repeat: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("DST gap resolution not deterministic: %v vs %v", first, second)
	}
}

func TestToUTCDSTOverlapDeterministic(t *testing.T) {
	// 01:30 on 2025-11-02 occurs twice in New York.
	dt, err := ParseDateTime("2025-11-02T01:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	first, err := ToUTC(dt, "America/New_York", false)
	if err != nil {
		t.Fatalf("ToUTC failed on DST overlap: %v", err)
	}
	second, err := ToUTC(dt, "America/New_York", false)
	if err != nil {
		t.Fatalf("ToUTC failed on repeat: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("DST overlap resolution not deterministic: %v vs %v", first, second)
	}
}

func TestRoundTripAllChoices(t *testing.T) {
	// A mid-January instant avoids DST edges in every listed zone, so
	// wall-clock round trips must be exact.
	instant := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, choice := range TimezoneChoices {
		local, err := ToZone(instant, choice.Name)
		if err != nil {
			t.Errorf("ToZone(%q) failed: %v", choice.Name, err)
			continue
		}
		back, err := ToUTC(LocalDateTime{Time: local, HasZone: true}, choice.Name, false)
		if err != nil {
			t.Errorf("ToUTC(%q) failed: %v", choice.Name, err)
			continue
		}
		if !back.Equal(instant) {
			t.Errorf("round trip through %q drifted: %v != %v", choice.Name, back, instant)
		}
	}
}

func TestToZone(t *testing.T) {
	instant := time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC)
	local, err := ToZone(instant, "Asia/Manila")
	if err != nil {
		t.Fatalf("ToZone failed: %v", err)
	}
	if local.Hour() != 9 {
		t.Errorf("expected 09:00 in Manila, got %d:00", local.Hour())
	}
	if !local.Equal(instant) {
		t.Error("ToZone must not change the instant")
	}
}
