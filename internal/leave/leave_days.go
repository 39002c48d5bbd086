package leave

import (
	"math"
	"strings"
	"time"

	leaveerrors "github.com/himanshukumarraut/Leave-It/internal/leave/errors"
)

const DateLayout = "2006-01-02"

// CountDays returns ceil((to-from)/24h)+1. Inverted ranges yield zero or negative counts.
func CountDays(from, to time.Time) int {
	span := float64(to.Sub(from)) / float64(24*time.Hour)
	return int(math.Ceil(span)) + 1
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.ParseInLocation(DateLayout, v, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, leaveerrors.ErrInvalidDateFormat
}
