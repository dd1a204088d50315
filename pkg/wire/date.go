package wire

import "time"

// Dates travel as a signed 64-bit count of 100-nanosecond ticks since the
// proleptic Gregorian epoch 0001-01-01T00:00:00 UTC, the same fixed epoch
// every generator runtime documents.
const (
	ticksPerSecond = 10_000_000

	// epochSeconds is the Unix time of 0001-01-01T00:00:00 UTC.
	epochSeconds = -62135596800
)

// ticksOf converts a time to wire ticks.
func ticksOf(t time.Time) int64 {
	t = t.UTC()
	secs := t.Unix() - epochSeconds
	return secs*ticksPerSecond + int64(t.Nanosecond())/100
}

// timeOf converts wire ticks back to a time in UTC. Sub-tick precision
// (fractions of 100 ns) is not representable on the wire, so conversion
// through ticksOf truncates to the containing tick.
func timeOf(ticks int64) time.Time {
	secs := ticks / ticksPerSecond
	rem := ticks % ticksPerSecond
	if rem < 0 {
		secs--
		rem += ticksPerSecond
	}
	return time.Unix(secs+epochSeconds, rem*100).UTC()
}
