package utils

import (
	"testing"
	"time"
)

func TestFormatIdleTime(t *testing.T) {
	cases := []struct {
		since time.Duration
		want  string
	}{
		{0, "Just now"},
		{45 * time.Second, "Just now"},
		{time.Minute, "1m"},
		{59 * time.Minute, "59m"},
		{time.Hour, "1h 0m"},
		{135 * time.Minute, "2h 15m"},
	}

	for _, tc := range cases {
		if got := FormatIdleTime(tc.since); got != tc.want {
			t.Errorf("FormatIdleTime(%v) = %q, want %q", tc.since, got, tc.want)
		}
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()

	cases := []struct {
		at   time.Time
		want string
	}{
		{now, "Just now"},
		{now.Add(-5 * time.Minute), "5 min ago"},
		{now.Add(-time.Hour - time.Minute), "1 hour ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-25 * time.Hour), "1 day ago"},
		{now.Add(-72*time.Hour - time.Minute), "3 days ago"},
	}

	for _, tc := range cases {
		if got := RelativeTime(tc.at); got != tc.want {
			t.Errorf("RelativeTime(%v ago) = %q, want %q", now.Sub(tc.at), got, tc.want)
		}
	}
}
