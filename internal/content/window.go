package content

import "time"

// Pre-race posts go out roughly two hours before lights out. The window is
// wider than the job interval so a tick cannot slip past it.
const (
	preRaceWindowMin = 1.8
	preRaceWindowMax = 2.2
)

// ShouldRunPreRace reports whether now falls inside the pre-race generation
// window for an event starting at start. Both bounds are inclusive.
func ShouldRunPreRace(start, now time.Time) bool {
	h := start.Sub(now).Hours()
	return h >= preRaceWindowMin && h <= preRaceWindowMax
}
