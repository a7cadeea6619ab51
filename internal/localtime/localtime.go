// Package localtime converts a user's wall-clock schedule into absolute
// instants. Offset resolution sits behind a small interface so the sweep
// logic stays independent of how the zone database is accessed.
package localtime

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// OffsetResolver reports the UTC offset, in minutes, that a timezone applies
// at a given instant.
type OffsetResolver interface {
	OffsetMinutes(tz string, at time.Time) (int, error)
}

// IANAResolver resolves offsets through the system zone database.
type IANAResolver struct{}

func (IANAResolver) OffsetMinutes(tz string, at time.Time) (int, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("load location %q: %w", tz, err)
	}
	_, offsetSeconds := at.In(loc).Zone()
	return offsetSeconds / 60, nil
}

// FixedOffsetResolver ignores the zone name and applies one constant offset.
// Used when a user has only a stored raw offset, no IANA name.
type FixedOffsetResolver struct {
	Minutes int
}

func (r FixedOffsetResolver) OffsetMinutes(string, time.Time) (int, error) {
	return r.Minutes, nil
}

var ymdPattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// ParseYMD validates and splits a YYYY-MM-DD calendar day.
func ParseYMD(ymd string) (year, month, day int, err error) {
	m := ymdPattern.FindStringSubmatch(ymd)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("malformed date %q, want YYYY-MM-DD", ymd)
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	day, _ = strconv.Atoi(m[3])
	return year, month, day, nil
}

// ZonedLocalToUTC converts local wall-clock (ymd, hour, minute) in tz to an
// absolute instant. Two-pass fixed point: resolve the offset against a first
// guess, build a candidate instant, re-resolve at the candidate and recompute
// once if the offset moved (a DST boundary between guess and candidate).
func ZonedLocalToUTC(ymd string, hour, minute int, tz string, resolver OffsetResolver) (time.Time, error) {
	year, month, day, err := ParseYMD(ymd)
	if err != nil {
		return time.Time{}, err
	}
	asUTC := func(offsetMinutes int) time.Time {
		return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC).
			Add(-time.Duration(offsetMinutes) * time.Minute)
	}

	guess := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	off1, err := resolver.OffsetMinutes(tz, guess)
	if err != nil {
		return time.Time{}, err
	}
	candidate := asUTC(off1)
	off2, err := resolver.OffsetMinutes(tz, candidate)
	if err != nil {
		return time.Time{}, err
	}
	if off2 == off1 {
		return candidate, nil
	}
	return asUTC(off2), nil
}

// UTCFromYMD interprets the day directly as UTC, defaulting to 09:00 when no
// clock time is known. Last-resort path for users with no stored timezone.
func UTCFromYMD(ymd string, hour, minute *int) (time.Time, error) {
	year, month, day, err := ParseYMD(ymd)
	if err != nil {
		return time.Time{}, err
	}
	h, m := 9, 0
	if hour != nil {
		h = *hour
	}
	if minute != nil {
		m = *minute
	}
	return time.Date(year, time.Month(month), day, h, m, 0, 0, time.UTC), nil
}
