// Package buildinfo carries build metadata stamped in with -ldflags, e.g.
//
//	-ldflags "-X wallclock/internal/buildinfo.Version=v1.2.0"
package buildinfo

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

// Short returns a compact build identifier for the window title and the
// boot log line.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String returns every known field, e.g. "v1.2.0 (3f2a9c1, 2026-10-14)".
func String() string {
	s := Short()
	switch {
	case Commit != "" && Commit != "unknown" && s != Commit:
		s += " (" + Commit
	case Date != "" && Date != "unknown":
		return s + " (" + Date + ")"
	default:
		return s
	}
	if Date != "" && Date != "unknown" {
		s += ", " + Date
	}
	return s + ")"
}
