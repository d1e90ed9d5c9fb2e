package campus

import (
	"math"

	"campussim/internal/sim/schedule"
)

// Clock tracks simulated wall time. Minutes advance fractionally so a tick
// can represent less than a minute; wrapping happens at the configured day
// length.
type Clock struct {
	MinutesPerTick float64
	DayLength      int
	Minute         float64
}

func NewClock(minutesPerTick float64, dayLength, startMinute int) *Clock {
	if minutesPerTick <= 0 {
		minutesPerTick = 1
	}
	if dayLength <= 0 {
		dayLength = schedule.DefaultDayLength
	}
	return &Clock{
		MinutesPerTick: minutesPerTick,
		DayLength:      dayLength,
		Minute:         math.Mod(float64(startMinute), float64(dayLength)),
	}
}

func (c *Clock) Tick() {
	c.Minute = math.Mod(c.Minute+c.MinutesPerTick, float64(c.DayLength))
}

// CurrentMinutes returns the whole-minute reading of the clock.
func (c *Clock) CurrentMinutes() int {
	return int(c.Minute) % c.DayLength
}

func (c *Clock) TimeString() string {
	return schedule.FormatMinutes(c.CurrentMinutes())
}

// MinutesUntil reports the forward distance to an HH:MM time, wrapping
// past midnight when the target is earlier than now.
func (c *Clock) MinutesUntil(hhmm string) (float64, error) {
	target, err := schedule.ParseHHMM(hhmm)
	if err != nil {
		return 0, err
	}
	delta := float64(target) - c.Minute
	if delta < 0 {
		delta += float64(c.DayLength)
	}
	return delta, nil
}
