package helper_util

import (
	"time"
)

// ParseOptionalTime parses an RFC3339 timestamp. An empty string yields the
// zero time.
func ParseOptionalTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
