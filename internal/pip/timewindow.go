package pip

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedWindow = errors.New("malformed time window")
	ErrUnsupportedUnit = errors.New("unsupported time window unit")
)

// Unit is a time window unit.
type Unit string

const (
	UnitSecond Unit = "second"
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
	UnitWeek   Unit = "week"
	UnitMonth  Unit = "month"
	UnitYear   Unit = "year"
)

// unitSpan is the longest a single unit can last; calendar units use their
// upper bound.
var unitSpan = map[Unit]time.Duration{
	UnitSecond: time.Second,
	UnitMinute: time.Minute,
	UnitHour:   time.Hour,
	UnitDay:    24 * time.Hour,
	UnitWeek:   7 * 24 * time.Hour,
	UnitMonth:  31 * 24 * time.Hour,
	UnitYear:   366 * 24 * time.Hour,
}

// TimeWindow is a look-back period such as 10 minutes.
type TimeWindow struct {
	Value int
	Unit  Unit
}

// ParseTimeWindow extracts the window from an issuer ending in
// "tw:<integer>:<unit>". The unit is case-insensitive. Windows longer than
// a time.Duration can hold are rejected as malformed.
func ParseTimeWindow(issuer string) (TimeWindow, error) {
	parts := strings.Split(issuer, ":")
	n := len(parts)
	if n < 3 || parts[n-3] != "tw" {
		return TimeWindow{}, fmt.Errorf("%w: %q", ErrMalformedWindow, issuer)
	}
	value, err := strconv.Atoi(parts[n-2])
	if err != nil || value < 0 {
		return TimeWindow{}, fmt.Errorf("%w: bad value %q", ErrMalformedWindow, parts[n-2])
	}
	unit := Unit(strings.ToLower(parts[n-1]))
	span, ok := unitSpan[unit]
	if !ok {
		return TimeWindow{}, fmt.Errorf("%w: %q", ErrUnsupportedUnit, parts[n-1])
	}
	if int64(value) > math.MaxInt64/int64(span) {
		return TimeWindow{}, fmt.Errorf("%w: %d %s is too long", ErrMalformedWindow, value, unit)
	}
	return TimeWindow{Value: value, Unit: unit}, nil
}

// Start returns the beginning of the window ending at now. Calendar units
// use calendar arithmetic.
func (w TimeWindow) Start(now time.Time) time.Time {
	n := w.Value
	switch w.Unit {
	case UnitSecond:
		return now.Add(-time.Duration(n) * time.Second)
	case UnitMinute:
		return now.Add(-time.Duration(n) * time.Minute)
	case UnitHour:
		return now.Add(-time.Duration(n) * time.Hour)
	case UnitDay:
		return now.AddDate(0, 0, -n)
	case UnitWeek:
		return now.AddDate(0, 0, -7*n)
	case UnitMonth:
		return now.AddDate(0, -n, 0)
	case UnitYear:
		return now.AddDate(-n, 0, 0)
	}
	return now
}

func (w TimeWindow) String() string {
	return strconv.Itoa(w.Value) + " " + string(w.Unit)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
