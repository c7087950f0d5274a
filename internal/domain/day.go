package domain

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a calendar day without a time-of-day component. The zero value is
// "unset". Days marshal to and from the textual form YYYY-MM-DD, which is
// also the persisted representation.
type Day struct {
	t time.Time
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Day{t: t.UTC()}, nil
}

// DayOf truncates an instant to its UTC calendar day.
func DayOf(t time.Time) Day {
	t = t.UTC()
	return Day{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC calendar day.
func Today() Day {
	return DayOf(time.Now())
}

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

func (d Day) After(o Day) bool { return d.t.After(o.t) }

// Within reports whether d falls in the inclusive range [start, end]. With
// day granularity this is equivalent to normalizing start to 00:00:00 and
// end to 23:59:59 before comparing timestamps.
func (d Day) Within(start, end Day) bool {
	return !d.Before(start) && !d.After(end)
}

func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// Time returns midnight UTC of the day, for callers that need a time.Time
// (e.g. SQL parameters).
func (d Day) Time() time.Time { return d.t }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dayLayout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
