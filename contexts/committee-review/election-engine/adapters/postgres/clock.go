package postgresadapter

import "time"

// SystemClock reads wall-clock time in UTC. All persisted timestamps go
// through a Clock port so tests can pin time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
