// internal/daily/daily.go
//
// Calendar helpers for the daily puzzle.
//   - DateKey: YYYY-MM-DD in America/New_York (the puzzle day boundary).
//   - Number:  1-based puzzle number counted from the launch day.
//   - Index:   deterministic puzzle index for a date (HMAC(salt, date) % n).
//   - IsArchive: any date other than today in ET.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
	_ "time/tzdata"
)

// Layout is the wire format of a puzzle date.
const Layout = "2006-01-02"

// LaunchDate is puzzle #1.
const LaunchDate = "2024-01-01"

var eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("daily: load %s: %v", name, err))
	}
	return loc
}

// Location returns the zone that defines a puzzle day.
func Location() *time.Location { return eastern }

// DateKey returns YYYY-MM-DD for t in America/New_York.
func DateKey(t time.Time) string {
	return t.In(eastern).Format(Layout)
}

// ParseDate validates a YYYY-MM-DD key and returns midnight ET of that day.
func ParseDate(key string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, key, eastern)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", key, err)
	}
	return t, nil
}

// IsArchive reports whether date is anything other than today's puzzle day.
func IsArchive(date string, now time.Time) bool {
	return date != DateKey(now)
}

// Number returns the puzzle number for date, counting LaunchDate as 1.
// Dates before launch return 0.
func Number(date string) int {
	d, err := ParseDate(date)
	if err != nil {
		return 0
	}
	launch, _ := ParseDate(LaunchDate)
	// Calendar days, immune to DST-length days.
	days := int(civilDays(d) - civilDays(launch))
	if days < 0 {
		return 0
	}
	return days + 1
}

func civilDays(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Index returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func Index(date, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(date))
	sum := h.Sum(nil)
	// take first 8 bytes to uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}
