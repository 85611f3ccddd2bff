package engine

import "time"

// SystemClock reports wall-clock time in milliseconds, the production Clock
// implementation; tests use a manual fake instead to pin timestamps.
type SystemClock struct{}

// NowMillis returns time.Now() in Unix milliseconds.
func (SystemClock) NowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
