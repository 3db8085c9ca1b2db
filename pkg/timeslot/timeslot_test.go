package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeOfDay(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "00:00", want: "12:00 AM"},
		{in: "09:05", want: "9:05 AM"},
		{in: "12:00", want: "12:00 PM"},
		{in: "14:30", want: "2:30 PM"},
		{in: "23:59", want: "11:59 PM"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "9am", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := FormatTimeOfDay(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatDateRange(t *testing.T) {
	day := func(s string) *time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return &d
	}

	assert.Equal(t, "", FormatDateRange(nil, nil))
	assert.Equal(t, "Mar 5, 2026", FormatDateRange(day("2026-03-05"), nil))
	assert.Equal(t, "Mar 5, 2026", FormatDateRange(day("2026-03-05"), day("2026-03-05")))
	assert.Equal(t, "Mar 5, 2026 – Mar 9, 2026", FormatDateRange(day("2026-03-05"), day("2026-03-09")))
}

func TestFormatSlot(t *testing.T) {
	date, err := time.Parse("2006-01-02", "2026-03-05")
	require.NoError(t, err)

	got, err := FormatSlot(date, "09:00", "13:00", "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, "Mar 5, 2026, 9:00 AM – 1:00 PM (America/New_York)", got)

	_, err = FormatSlot(date, "09:00", "13:00", "Mars/Olympus_Mons")
	require.Error(t, err)

	_, err = FormatSlot(date, "25:00", "13:00", "UTC")
	require.Error(t, err)
}
