// Package clock abstracts wall-clock time so that day boundaries can be simulated in tests.
package clock

import "time"

// DateLayout is the ISO 8601 calendar-date layout used as the activity partition key.
const DateLayout = "2006-01-02"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock. Construct it only at process entry points.
type Real struct{}

// Now returns time.Now.
func (Real) Now() time.Time { return time.Now() }

// Fixed always reports the same instant.
type Fixed struct {
	T time.Time
}

// Now returns the fixed instant.
func (f Fixed) Now() time.Time { return f.T }

// Func adapts a function to Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time { return f() }

// Today formats the clock's current date in loc. A nil loc means UTC.
func Today(c Clock, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return c.Now().In(loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date. Out-of-range days such as 2025-02-30 are rejected.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

var (
	_ Clock = Real{}
	_ Clock = Fixed{}
	_ Clock = Func(nil)
)
