// Package netcfg turns the persisted WiFi/NTP credential entries into the
// ordered list of connection candidates and holds the configuration the
// clock is currently using.
//
// Each entry in the "WiFi" namespace has a four-digit decimal key giving its
// priority (lower is tried first) and a value of the form
//
//	SSID<FF>PASSWORD[<FF>NTP1[;NTP2[;NTP3]]]
//
// where <FF> is the byte 0xFF. Key 0000 is the default: its server list is
// inherited by entries that carry none, and pool.ntp.org is used when there
// is no default list either.
package netcfg

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"wallclock/internal/dlist"
)

const (
	// Namespace holds the credential entries.
	Namespace = "WiFi"
	// Separator splits the fields of an entry value.
	Separator byte = 0xFF
	// DefaultServer is used when no entry supplies a server list.
	DefaultServer = "pool.ntp.org"

	MaxSSIDLen     = 32
	MaxPasswordLen = 64
	MaxServers     = 3
	MaxHostLen     = 253
	MaxKey         = 9999
	// DefaultKey is the priority of the default record.
	DefaultKey = 0
)

// Record is one parsed credential entry.
type Record struct {
	node dlist.Node[Record]

	Key      int
	SSID     string
	Password string
	// Servers is nil when the entry carries no server list.
	Servers []string
}

// IsDefault reports whether r is the default record.
func (r *Record) IsDefault() bool { return r.Key == DefaultKey }

// FormatKey renders a priority as a store key.
func FormatKey(key int) string {
	return fmt.Sprintf("%04d", key)
}

// ParseKey parses a four-digit store key.
func ParseKey(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// FormatValue encodes r as a store value.
func FormatValue(r *Record) []byte {
	var b bytes.Buffer
	b.WriteString(r.SSID)
	b.WriteByte(Separator)
	b.WriteString(r.Password)
	if len(r.Servers) > 0 {
		b.WriteByte(Separator)
		b.WriteString(strings.Join(r.Servers, ";"))
	}
	return b.Bytes()
}

// Parse decodes one persisted entry. A nil record means the entry was
// skipped; issues describe why, or what was repaired in a returned record.
func Parse(key string, value []byte) (*Record, []Issue) {
	k, ok := ParseKey(key)
	if !ok {
		return nil, []Issue{{Key: key, Code: CodeBadKey, Detail: "want four decimal digits"}}
	}

	fields := bytes.Split(value, []byte{Separator})
	if n := len(fields) - 1; n != 1 && n != 2 {
		return nil, []Issue{{Key: key, Code: CodeMalformed, Detail: fmt.Sprintf("%d separators", n)}}
	}

	ssid, password := string(fields[0]), string(fields[1])
	switch {
	case ssid == "":
		return nil, []Issue{{Key: key, Code: CodeEmptySSID}}
	case len(ssid) > MaxSSIDLen:
		return nil, []Issue{{Key: key, Code: CodeTooLong, Detail: fmt.Sprintf("ssid is %d bytes", len(ssid))}}
	case len(password) > MaxPasswordLen:
		return nil, []Issue{{Key: key, Code: CodeTooLong, Detail: fmt.Sprintf("password is %d bytes", len(password))}}
	}

	r := &Record{Key: k, SSID: ssid, Password: password}
	if len(fields) < 3 {
		return r, nil
	}

	var issues []Issue
	for _, s := range strings.Split(string(fields[2]), ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) > MaxHostLen {
			return nil, []Issue{{Key: key, Code: CodeTooLong, Detail: fmt.Sprintf("server is %d bytes", len(s))}}
		}
		r.Servers = append(r.Servers, s)
	}
	if len(r.Servers) > MaxServers {
		issues = append(issues, Issue{Key: key, Code: CodeTooManyServers,
			Detail: fmt.Sprintf("%d servers, keeping %d", len(r.Servers), MaxServers)})
		r.Servers = r.Servers[:MaxServers]
	}
	return r, issues
}
