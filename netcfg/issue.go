package netcfg

import "fmt"

// Code classifies a problem found while reading persisted credentials.
// It is a comparable string newtype and implements error, so
// errors.Is(issue, CodeMalformed) works.
type Code string

func (c Code) Error() string { return string(c) }

const (
	CodeBadKey         Code = "bad_key"
	CodeMalformed      Code = "malformed_value"
	CodeEmptySSID      Code = "empty_ssid"
	CodeTooLong        Code = "field_too_long"
	CodeTooManyServers Code = "too_many_servers"
	CodeDuplicateKey   Code = "duplicate_key"
	CodeBadPref        Code = "bad_pref"
)

// Issue reports one problem with one persisted entry. Issues are never
// fatal: the entry is skipped or repaired and resolution continues.
type Issue struct {
	Key    string
	Code   Code
	Detail string
}

func (i Issue) Error() string {
	if i.Detail == "" {
		return fmt.Sprintf("entry %s: %s", i.Key, i.Code)
	}
	return fmt.Sprintf("entry %s: %s: %s", i.Key, i.Code, i.Detail)
}

func (i Issue) Unwrap() error { return i.Code }

// Skipped reports whether the entry was dropped rather than repaired.
func (i Issue) Skipped() bool {
	return i.Code != CodeTooManyServers && i.Code != CodeDuplicateKey && i.Code != CodeBadPref
}
