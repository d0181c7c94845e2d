package scheduling

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// clockRE accepts "14:00", "2pm", "2:30 pm", "2.30pm" and Arabic meridiem
// words. All comparisons downstream happen in minutes since midnight.
var clockRE = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.|صباحا|صباحاً|مساء|مساءً)?\s*$`)

// ParseClockTime converts a wall-clock string to minutes since midnight.
// 12-hour input is normalized: 12 AM maps to 0, PM adds 12 except 12 PM.
func ParseClockTime(s string) (int, error) {
	m := clockRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unrecognized time %q", s)
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour > 23 {
		return 0, fmt.Errorf("unrecognized time %q", s)
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil || minute > 59 {
			return 0, fmt.Errorf("unrecognized time %q", s)
		}
	}

	switch normalizeMeridiem(m[3]) {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	if hour > 23 {
		return 0, fmt.Errorf("unrecognized time %q", s)
	}
	return hour*60 + minute, nil
}

func normalizeMeridiem(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "am", "a.m.", "صباحا", "صباحاً":
		return "am"
	case "pm", "p.m.", "مساء", "مساءً":
		return "pm"
	}
	return ""
}

// MinutesToClock renders minutes since midnight as HH:MM.
func MinutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// RequiredSlots is the number of fixed-width slots a total duration
// occupies: ceil(total / width).
func RequiredSlots(totalMinutes, slotWidth int) int {
	if totalMinutes <= 0 {
		return 0
	}
	return (totalMinutes + slotWidth - 1) / slotWidth
}
