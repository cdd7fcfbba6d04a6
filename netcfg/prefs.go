package netcfg

import "errors"

// PrefsNamespace holds the display preferences.
const PrefsNamespace = "clock"

const (
	prefHour24   = "24h"
	prefSeconds  = "secs"
	prefShowDay  = "day"
	prefShowDate = "date"
	prefTimezone = "tz"
)

// Prefs are the display preferences.
type Prefs struct {
	Hour24   bool
	Seconds  bool
	ShowDay  bool
	ShowDate bool
	// Timezone is an IANA zone name; empty means UTC.
	Timezone string
}

// DefaultPrefs matches the factory display: 24-hour HH:MM with day and date.
func DefaultPrefs() Prefs {
	return Prefs{Hour24: true, ShowDay: true, ShowDate: true}
}

func loadPrefs(s Store) (Prefs, []Issue) {
	p := DefaultPrefs()
	if s == nil {
		return p, nil
	}
	var issues []Issue
	for _, b := range []struct {
		key string
		dst *bool
	}{
		{prefHour24, &p.Hour24},
		{prefSeconds, &p.Seconds},
		{prefShowDay, &p.ShowDay},
		{prefShowDate, &p.ShowDate},
	} {
		v, err := s.Get(PrefsNamespace, b.key)
		if err != nil {
			continue
		}
		switch string(v) {
		case "1":
			*b.dst = true
		case "0":
			*b.dst = false
		default:
			issues = append(issues, Issue{Key: PrefsNamespace + "/" + b.key, Code: CodeBadPref, Detail: "want 0 or 1"})
		}
	}
	if v, err := s.Get(PrefsNamespace, prefTimezone); err == nil {
		p.Timezone = string(v)
	}
	return p, issues
}

func savePrefs(s Store, p Prefs) error {
	if s == nil {
		return nil
	}
	flag := func(b bool) []byte {
		if b {
			return []byte("1")
		}
		return []byte("0")
	}
	return errors.Join(
		s.Set(PrefsNamespace, prefHour24, flag(p.Hour24)),
		s.Set(PrefsNamespace, prefSeconds, flag(p.Seconds)),
		s.Set(PrefsNamespace, prefShowDay, flag(p.ShowDay)),
		s.Set(PrefsNamespace, prefShowDate, flag(p.ShowDate)),
		s.Set(PrefsNamespace, prefTimezone, []byte(p.Timezone)),
	)
}
