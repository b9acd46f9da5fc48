package models

import (
	"strings"
	"time"
)

// TimestampLayout is the layout used for every timestamp faultdrill writes.
const TimestampLayout = "2006-01-02 15:04:05"

var isoLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var ctimeLayouts = []string{
	"Mon Jan 2 15:04:05 2006",
	"Mon Jan _2 15:04:05 2006",
}

// FormatTimestamp renders t in local time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// ParseTimestamp accepts ISO-like timestamps (space or T separator, seconds
// optional) and ctime strings. Values are interpreted in local time.
func ParseTimestamp(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}

	iso := strings.Replace(v, "T", " ", 1)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, iso, time.Local); err == nil {
			return t, true
		}
	}
	for _, layout := range ctimeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeMinutes returns the whole minutes between created and now, clamped at
// zero, or -1 when created is not a recognised timestamp.
func AgeMinutes(created string, now time.Time) int {
	t, ok := ParseTimestamp(created)
	if !ok {
		return -1
	}
	mins := int(now.Sub(t) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}
