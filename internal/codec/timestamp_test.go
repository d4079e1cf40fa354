package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	utc := func(y int, mo time.Month, d, h, mi, s, ns int) time.Time {
		return time.Date(y, mo, d, h, mi, s, ns, time.UTC)
	}
	local := func(y int, mo time.Month, d, h, mi, s int) time.Time {
		return time.Date(y, mo, d, h, mi, s, 0, time.Local)
	}

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-10-19T12:00:00Z", utc(2026, 10, 19, 12, 0, 0, 0)},
		{"2026-10-19T12:00:00.5Z", utc(2026, 10, 19, 12, 0, 0, 500000000)},
		{"2026-10-19T14:00:00+02:00", utc(2026, 10, 19, 12, 0, 0, 0)},
		{"2026-10-19 14:00:00+02:00", utc(2026, 10, 19, 12, 0, 0, 0)},
		{"2026-10-19T14:00+02:00", utc(2026, 10, 19, 12, 0, 0, 0)},
		{"2026-10-19T12:00:00", local(2026, 10, 19, 12, 0, 0)},
		{"2026-10-19 12:00:00.000001", local(2026, 10, 19, 12, 0, 0).Add(time.Microsecond)},
		{"2026-10-19T12:30", local(2026, 10, 19, 12, 30, 0)},
		{"2026-10-19", local(2026, 10, 19, 0, 0, 0)},
		{"  2026-10-19  ", local(2026, 10, 19, 0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "not-a-date", "19/10/2026", "2026-13-01", "2026-10-19T25:00:00Z", "tomorrow"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTimestamp(input)
			assert.Error(t, err)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 0, 0, 1, time.UTC)
	assert.Equal(t, "2026-10-19T12:00:00.000000001Z", FormatTimestamp(ts))

	back, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))
}
