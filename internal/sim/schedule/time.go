package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultDayLength is the number of minutes in one simulated day.
const DefaultDayLength = 24 * 60

// ParseHHMM converts a 24-hour wall-clock string to minutes since day start.
func ParseHHMM(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes since day start as HH:MM, wrapping at 24h.
func FormatMinutes(minutes int) string {
	minutes %= DefaultDayLength
	if minutes < 0 {
		minutes += DefaultDayLength
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDuration accepts an "HH:MM" span or a bare minute count. Empty input
// is a zero duration.
func ParseDuration(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if !strings.Contains(value, ":") {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		return n, nil
	}
	return ParseHHMM(value)
}
