package protocol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the wire format of modified_gmt values.
const TimeLayout = "2006-01-02T15:04:05Z"

var ErrInvalidModifiedSince = errors.New("invalid date format for modified_since, use ISO8601 (YYYY-MM-DDTHH:MM:SS)")

var modifiedSincePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z?$`)

// ParseModifiedSince validates and parses a modified_since cursor. An empty
// value means no filter and yields nil. Values without a zone are UTC.
func ParseModifiedSince(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !modifiedSincePattern.MatchString(raw) {
		return nil, ErrInvalidModifiedSince
	}

	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", strings.TrimSuffix(raw, "Z"), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModifiedSince, err)
	}
	return &t, nil
}

// FormatTime renders a stamp for the wire, nil stays nil.
func FormatTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(TimeLayout)
	return &s
}

var timeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTime reads a modified_gmt value. Providers have emitted both the
// ISO form and a space separated GMT form, so both are accepted.
func ParseTime(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", v)
}
