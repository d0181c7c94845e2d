package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"14:00", 14 * 60},
		{"09:30", 9*60 + 30},
		{"0:00", 0},
		{"2pm", 14 * 60},
		{"2 pm", 14 * 60},
		{"2:30 pm", 14*60 + 30},
		{"2.30pm", 14*60 + 30},
		{"12pm", 12 * 60},
		{"12am", 0},
		{"12:15 a.m.", 15},
		{"11 صباحا", 11 * 60},
		{"5 مساء", 17 * 60},
		{"23:59", 23*60 + 59},
	}
	for _, tc := range cases {
		got, err := ParseClockTime(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseClockTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "25:00", "14:75", "13pm"} {
		_, err := ParseClockTime(in)
		assert.Error(t, err, in)
	}
}

func TestMinutesToClock(t *testing.T) {
	assert.Equal(t, "00:00", MinutesToClock(0))
	assert.Equal(t, "14:30", MinutesToClock(14*60+30))
	assert.Equal(t, "09:05", MinutesToClock(9*60+5))
}

func TestRequiredSlots(t *testing.T) {
	assert.Equal(t, 0, RequiredSlots(0, 30))
	assert.Equal(t, 1, RequiredSlots(1, 30))
	assert.Equal(t, 1, RequiredSlots(30, 30))
	assert.Equal(t, 2, RequiredSlots(31, 30))
	assert.Equal(t, 3, RequiredSlots(75, 30))
	assert.Equal(t, 4, RequiredSlots(120, 30))
}
