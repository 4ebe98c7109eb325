package countdown

import (
	"strconv"
	"strings"
)

const (
	maxHoursField   = 23
	maxMinutesField = 59
	maxSecondsField = 59
)

// ClampSeconds maps negative durations to zero.
func ClampSeconds(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}

// SanitizeSeconds parses user input as a whole number of seconds.
// Non-numeric and negative input yields zero.
func SanitizeSeconds(raw string) int {
	return ClampSeconds(parseLeadingInt(raw))
}

// FromClock combines hour, minute and second input fields into seconds.
// Each field is sanitized and capped at its clock-face maximum.
func FromClock(hours, minutes, seconds string) int {
	h := capField(SanitizeSeconds(hours), maxHoursField)
	m := capField(SanitizeSeconds(minutes), maxMinutesField)
	s := capField(SanitizeSeconds(seconds), maxSecondsField)
	return h*3600 + m*60 + s
}

func capField(value, limit int) int {
	if value > limit {
		return limit
	}
	return value
}

// parseLeadingInt reads an optional sign followed by leading digits, so "12abc" is 12
// and "abc" is 0.
func parseLeadingInt(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	value, err := strconv.Atoi(raw[:end])
	if err != nil {
		return 0
	}
	return value
}
