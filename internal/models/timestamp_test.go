package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2026, time.February, 9, 0, 13, 12, 0, time.Local)

	tests := []struct {
		name  string
		value string
		want  time.Time
		ok    bool
	}{
		{"iso", "2026-02-09 00:13:12", want, true},
		{"iso with T", "2026-02-09T00:13:12", want, true},
		{"iso without seconds", "2026-02-09 00:13", want.Truncate(time.Minute), true},
		{"iso T without seconds", "2026-02-09T00:13", want.Truncate(time.Minute), true},
		{"ctime double space", "Mon Feb  9 00:13:12 2026", want, true},
		{"ctime single space", "Mon Feb 9 00:13:12 2026", want, true},
		{"surrounding whitespace", "  2026-02-09 00:13:12 ", want, true},
		{"empty", "", time.Time{}, false},
		{"garbage", "yesterday-ish", time.Time{}, false},
		{"rfc3339 with zone", "2026-02-09T00:13:12Z", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.value)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgeMinutes(t *testing.T) {
	created := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.Local)
	stamp := FormatTimestamp(created)

	assert.Equal(t, 0, AgeMinutes(stamp, created))
	assert.Equal(t, 15, AgeMinutes(stamp, created.Add(15*time.Minute+59*time.Second)))
	assert.Equal(t, 0, AgeMinutes(stamp, created.Add(-10*time.Minute)), "future timestamps clamp to zero")
	assert.Equal(t, -1, AgeMinutes("not a time", created))
	assert.Equal(t, -1, AgeMinutes("", created))
}

func TestFormatTimestampRoundTrip(t *testing.T) {
	now := time.Date(2026, time.October, 19, 14, 5, 9, 0, time.Local)
	got, ok := ParseTimestamp(FormatTimestamp(now))
	require.True(t, ok)
	assert.True(t, now.Equal(got))
}

func TestStatusActive(t *testing.T) {
	assert.True(t, StatusOpen.Active())
	assert.True(t, StatusInProgress.Active())
	assert.True(t, StatusBreached.Active())
	assert.False(t, StatusClosed.Active())
	assert.False(t, Status("").Active())
}
