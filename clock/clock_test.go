package clock

import (
	"testing"
	"time"
)

func TestTickRollsOverAtMidnight(t *testing.T) {
	c := New()
	c.Set(time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC))
	c.Tick()

	if h, m, s := c.HMS(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("HMS() = %02d:%02d:%02d, want 00:00:00", h, m, s)
	}
	if y, mo, d := c.Date(); y != 2027 || mo != time.January || d != 1 {
		t.Fatalf("Date() = %d-%v-%d, want 2027-January-1", y, mo, d)
	}
}

func TestTickWithinMinute(t *testing.T) {
	c := New()
	if err := c.SetHMS(10, 20, 58); err != nil {
		t.Fatalf("SetHMS() = %v", err)
	}
	c.Tick()
	if h, m, s := c.HMS(); h != 10 || m != 20 || s != 59 {
		t.Fatalf("HMS() = %02d:%02d:%02d, want 10:20:59", h, m, s)
	}
	c.Tick()
	if h, m, s := c.HMS(); h != 10 || m != 21 || s != 0 {
		t.Fatalf("HMS() = %02d:%02d:%02d, want 10:21:00", h, m, s)
	}
}

func TestTickFullDay(t *testing.T) {
	c := New()
	for i := 0; i < 24*60*60; i++ {
		c.Tick()
	}
	if h, m, s := c.HMS(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("HMS() = %02d:%02d:%02d after a day, want 00:00:00", h, m, s)
	}
	if _, _, d := c.Date(); d != 2 {
		t.Fatalf("day = %d, want 2", d)
	}
}

func TestSetHMSRejectsOutOfRange(t *testing.T) {
	c := New()
	for _, v := range [][3]int{{24, 0, 0}, {0, 60, 0}, {0, 0, 60}, {-1, 0, 0}} {
		if err := c.SetHMS(v[0], v[1], v[2]); err == nil {
			t.Fatalf("SetHMS(%v) = nil, want error", v)
		}
	}
}

func TestFormat(t *testing.T) {
	c := New()
	for _, tc := range []struct {
		h, m, s int
		st      Style
		want    string
	}{
		{9, 5, 7, Style{Hour24: true}, "09:05"},
		{9, 5, 7, Style{Hour24: true, Seconds: true}, "09:05:07"},
		{0, 30, 0, Style{}, "12:30 AM"},
		{12, 0, 0, Style{}, "12:00 PM"},
		{23, 59, 59, Style{Seconds: true}, "11:59:59 PM"},
	} {
		_ = c.SetHMS(tc.h, tc.m, tc.s)
		if got := c.Format(tc.st); got != tc.want {
			t.Fatalf("Format(%+v) at %02d:%02d:%02d = %q, want %q", tc.st, tc.h, tc.m, tc.s, got, tc.want)
		}
	}
}

func TestDateLine(t *testing.T) {
	c := New()
	c.Set(time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC))
	for _, tc := range []struct {
		st   Style
		want string
	}{
		{Style{ShowDay: true, ShowDate: true}, "Wednesday 14 October 2026"},
		{Style{ShowDay: true}, "Wednesday"},
		{Style{ShowDate: true}, "14 October 2026"},
		{Style{}, ""},
	} {
		if got := c.DateLine(tc.st); got != tc.want {
			t.Fatalf("DateLine(%+v) = %q, want %q", tc.st, got, tc.want)
		}
	}
	if !c.Synced() {
		t.Fatalf("Synced() = false after Set")
	}
}

func TestLoadZone(t *testing.T) {
	for _, tc := range []struct {
		name   string
		offset int
		ok     bool
	}{
		{"", 0, true},
		{"UTC", 0, true},
		{"+02:00", 2 * 3600, true},
		{"UTC-05:30", -(5*3600 + 30*60), true},
		{"+3", 3 * 3600, true},
		{"+99:00", 0, false},
		{"Not/AZone", 0, false},
	} {
		loc, err := LoadZone(tc.name)
		if (err == nil) != tc.ok {
			t.Fatalf("LoadZone(%q) error = %v, want ok=%v", tc.name, err, tc.ok)
		}
		if !tc.ok {
			continue
		}
		_, off := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
		if off != tc.offset {
			t.Fatalf("LoadZone(%q) offset = %d, want %d", tc.name, off, tc.offset)
		}
	}
}

func TestSetZoneKeepsInstant(t *testing.T) {
	plus2, _ := LoadZone("+02:00")
	plus5, _ := LoadZone("+05:00")

	c := New()
	c.SetZone(plus2)
	c.Set(time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC))
	if h, m, _ := c.HMS(); h != 14 || m != 0 {
		t.Fatalf("HMS() in +02:00 = %d:%02d, want 14:00", h, m)
	}

	c.SetZone(plus5)
	if h, m, _ := c.HMS(); h != 17 || m != 0 {
		t.Fatalf("HMS() in +05:00 = %d:%02d, want 17:00", h, m)
	}
	want := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	if got := c.Time(); !got.Equal(want) {
		t.Fatalf("Time() = %v, want %v", got, want)
	}
}

func TestSetZoneCrossesMidnight(t *testing.T) {
	minus3, _ := LoadZone("-03:00")

	c := New()
	c.Set(time.Date(2026, time.January, 1, 1, 30, 0, 0, time.UTC))
	c.SetZone(minus3)
	if h, m, _ := c.HMS(); h != 22 || m != 30 {
		t.Fatalf("HMS() = %d:%02d, want 22:30", h, m)
	}
	if y, mo, d := c.Date(); y != 2025 || mo != time.December || d != 31 {
		t.Fatalf("Date() = %d-%v-%d, want 2025-December-31", y, mo, d)
	}
}

func TestSetZoneUnsyncedKeepsFace(t *testing.T) {
	plus5, _ := LoadZone("+05:00")

	c := New()
	if err := c.SetHMS(9, 15, 0); err != nil {
		t.Fatal(err)
	}
	c.SetZone(plus5)
	if h, m, _ := c.HMS(); h != 9 || m != 15 {
		t.Fatalf("HMS() = %d:%02d, want 9:15", h, m)
	}
	if c.Zone() != plus5 {
		t.Fatalf("Zone() = %v, want %v", c.Zone(), plus5)
	}
}
