package daily

import (
	"testing"
	"time"
)

func TestDateKeyUsesEasternTime(t *testing.T) {
	// 03:30 UTC on Mar 10 is still Mar 9 in New York.
	utc := time.Date(2025, 3, 10, 3, 30, 0, 0, time.UTC)
	if got := DateKey(utc); got != "2025-03-09" {
		t.Fatalf("expected 2025-03-09, got %s", got)
	}

	later := time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC)
	if got := DateKey(later); got != "2025-03-10" {
		t.Fatalf("expected 2025-03-10, got %s", got)
	}
}

func TestNumberCountsFromLaunch(t *testing.T) {
	cases := map[string]int{
		LaunchDate:   1,
		"2024-01-02": 2,
		"2024-03-11": 71, // crosses DST start
		"2023-12-31": 0,
		"not-a-date": 0,
	}
	for date, want := range cases {
		if got := Number(date); got != want {
			t.Errorf("Number(%q) = %d, want %d", date, got, want)
		}
	}
}

func TestIndexDeterministic(t *testing.T) {
	a := Index("2025-05-05", "salt", 17)
	b := Index("2025-05-05", "salt", 17)
	if a != b {
		t.Fatalf("expected same index, got %d and %d", a, b)
	}
	if a < 0 || a >= 17 {
		t.Fatalf("index out of range: %d", a)
	}
	if Index("2025-05-05", "salt", 0) != 0 {
		t.Fatal("expected 0 for empty range")
	}
}

func TestIsArchive(t *testing.T) {
	now := time.Date(2025, 7, 4, 16, 0, 0, 0, time.UTC)
	if IsArchive("2025-07-04", now) {
		t.Fatal("today should not be archive")
	}
	if !IsArchive("2025-07-03", now) {
		t.Fatal("yesterday should be archive")
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := ParseDate("2025-13-01"); err == nil {
		t.Fatal("expected error for invalid month")
	}
}
