package entity

import (
	"testing"
	"time"
)

func TestIntervalsOverlap(t *testing.T) {
	base := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	h := func(hours int) time.Time { return base.Add(time.Duration(hours) * time.Hour) }

	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", h(0), h(2), h(0), h(2), true},
		{"partial", h(0), h(2), h(1), h(3), true},
		{"contained", h(0), h(4), h(1), h(2), true},
		{"touching is allowed", h(0), h(2), h(2), h(4), false},
		{"touching reversed", h(2), h(4), h(0), h(2), false},
		{"disjoint", h(0), h(1), h(3), h(4), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IntervalsOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("IntervalsOverlap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEndsAtDerivedFromRuntime(t *testing.T) {
	film := &Film{Runtime: 90}
	show := &Showtime{StartsAt: time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)}

	want := show.StartsAt.Add(90 * time.Minute)
	if got := show.EndsAt(film); !got.Equal(want) {
		t.Errorf("EndsAt = %v, want %v", got, want)
	}
}
