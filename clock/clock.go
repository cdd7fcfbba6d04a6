// Package clock keeps the displayed time of day.
//
// The clock is advanced by a one-second scheduler timer rather than read
// from a hardware RTC, and is set whenever the network collaborator fetches
// wall-clock time.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/constraints"
)

// wrap is a counter modulo mod.
type wrap[T constraints.Unsigned] struct {
	v, mod T
}

// inc advances the counter and reports whether it rolled over to zero.
func (w *wrap[T]) inc() bool {
	w.v++
	if w.v >= w.mod {
		w.v = 0
		return true
	}
	return false
}

func (w *wrap[T]) set(v T) { w.v = v % w.mod }

// Clock is a time of day plus calendar date. It is not safe for concurrent
// use; it lives in the scheduling-pass context.
type Clock struct {
	sec  wrap[uint8]
	min  wrap[uint8]
	hour wrap[uint8]

	year  int
	month time.Month
	day   int

	loc    *time.Location
	synced bool
}

// New returns a UTC clock at midnight on 1 January 2000, not yet synced.
func New() *Clock {
	return &Clock{
		sec:   wrap[uint8]{mod: 60},
		min:   wrap[uint8]{mod: 60},
		hour:  wrap[uint8]{mod: 24},
		year:  2000,
		month: time.January,
		day:   1,
		loc:   time.UTC,
	}
}

// Tick advances the clock by one second, rolling seconds and minutes at 60
// and hours at 24. Crossing midnight advances the date.
func (c *Clock) Tick() {
	if !c.sec.inc() {
		return
	}
	if !c.min.inc() {
		return
	}
	if !c.hour.inc() {
		return
	}
	d := time.Date(c.year, c.month, c.day+1, 0, 0, 0, 0, time.UTC)
	c.year, c.month, c.day = d.Date()
}

// Set loads t, converted to the clock's zone.
func (c *Clock) Set(t time.Time) {
	t = t.In(c.loc)
	c.hour.set(uint8(t.Hour()))
	c.min.set(uint8(t.Minute()))
	c.sec.set(uint8(t.Second()))
	c.year, c.month, c.day = t.Date()
	c.synced = true
}

// SetHMS sets the time of day without touching the date.
func (c *Clock) SetHMS(h, m, s int) error {
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return fmt.Errorf("clock: %02d:%02d:%02d out of range", h, m, s)
	}
	c.hour.set(uint8(h))
	c.min.set(uint8(m))
	c.sec.set(uint8(s))
	return nil
}

// HMS returns the time of day.
func (c *Clock) HMS() (h, m, s int) {
	return int(c.hour.v), int(c.min.v), int(c.sec.v)
}

// Date returns the calendar date.
func (c *Clock) Date() (year int, month time.Month, day int) {
	return c.year, c.month, c.day
}

// Synced reports whether the clock was ever set from a time source.
func (c *Clock) Synced() bool { return c.synced }

// Time returns the clock as a time.Time in its zone.
func (c *Clock) Time() time.Time {
	h, m, s := c.HMS()
	return time.Date(c.year, c.month, c.day, h, m, s, 0, c.loc)
}

// Zone returns the display zone.
func (c *Clock) Zone() *time.Location { return c.loc }

// SetZone switches the display zone. A synced clock keeps the same instant
// and is re-read in loc; an unsynced one keeps its face.
func (c *Clock) SetZone(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	if c.synced {
		h, m, s := c.HMS()
		t := time.Date(c.year, c.month, c.day, h, m, s, 0, c.loc).In(loc)
		c.hour.set(uint8(t.Hour()))
		c.min.set(uint8(t.Minute()))
		c.sec.set(uint8(t.Second()))
		c.year, c.month, c.day = t.Date()
	}
	c.loc = loc
}

// Style selects how the time and date are rendered.
type Style struct {
	Hour24   bool
	Seconds  bool
	ShowDay  bool
	ShowDate bool
}

// Format renders the time of day: "15:04" or "3:04 PM", with ":05" seconds
// when requested.
func (c *Clock) Format(st Style) string {
	h, m, s := c.HMS()
	var b strings.Builder
	if st.Hour24 {
		fmt.Fprintf(&b, "%02d:%02d", h, m)
	} else {
		h12 := h % 12
		if h12 == 0 {
			h12 = 12
		}
		fmt.Fprintf(&b, "%d:%02d", h12, m)
	}
	if st.Seconds {
		fmt.Fprintf(&b, ":%02d", s)
	}
	if !st.Hour24 {
		if h < 12 {
			b.WriteString(" AM")
		} else {
			b.WriteString(" PM")
		}
	}
	return b.String()
}

// DateLine renders the weekday and/or date, e.g. "Wednesday 14 October 2026".
// It is empty when neither is requested.
func (c *Clock) DateLine(st Style) string {
	t := c.Time()
	switch {
	case st.ShowDay && st.ShowDate:
		return t.Format("Monday 2 January 2006")
	case st.ShowDay:
		return t.Weekday().String()
	case st.ShowDate:
		return t.Format("2 January 2006")
	default:
		return ""
	}
}

// LoadZone resolves a zone name. Empty and "UTC" give UTC; fixed offsets of
// the form "+02:00" or "UTC-05:30" work without a zone database; anything
// else goes through time.LoadLocation.
func LoadZone(name string) (*time.Location, error) {
	switch name {
	case "", "UTC", "Z":
		return time.UTC, nil
	}
	off := strings.TrimPrefix(name, "UTC")
	if len(off) > 0 && (off[0] == '+' || off[0] == '-') {
		return parseOffset(name, off)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clock: zone %q: %w", name, err)
	}
	return loc, nil
}

func parseOffset(name, off string) (*time.Location, error) {
	sign := 1
	if off[0] == '-' {
		sign = -1
	}
	hh, mm, _ := strings.Cut(off[1:], ":")
	h, err := strconv.Atoi(hh)
	if err != nil || h > 14 {
		return nil, fmt.Errorf("clock: zone %q: bad hour offset", name)
	}
	m := 0
	if mm != "" {
		if m, err = strconv.Atoi(mm); err != nil || m > 59 {
			return nil, fmt.Errorf("clock: zone %q: bad minute offset", name)
		}
	}
	return time.FixedZone(name, sign*(h*3600+m*60)), nil
}
