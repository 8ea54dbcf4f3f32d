package utils

import (
	"fmt"
	"time"
)

// FormatIdleTime buckets the duration since an alert's last accepted
// location update for dashboard display.
func FormatIdleTime(since time.Duration) string {
	minutes := int(since.Minutes())
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return "Just now"
}

// RelativeTime renders how long ago an event happened.
func RelativeTime(t time.Time) string {
	diff := time.Since(t)
	minutes := int(diff.Minutes())
	hours := int(diff.Hours())
	days := hours / 24

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%d min ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	default:
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	}
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
