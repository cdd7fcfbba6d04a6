//go:build !tinygo

// Command mknvs builds a host flash image for the wall clock from a text
// file of ns/key=value lines, e.g.
//
//	WiFi/0000=Office[FF]secret[FF]time.example.com;pool.ntp.org
//	clock/tz=Europe/Berlin
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"wallclock/netcfg"
	"wallclock/nvs"
)

const (
	defaultFlashPath = "wallclock.nvs"
	defaultFlashSize = 64 * 1024
	defaultEraseSize = 4096
)

func main() {
	var (
		srcPath   string
		outPath   string
		flashSize int64
		eraseSize int64
		strict    bool
	)
	flag.StringVar(&srcPath, "src", "-", "Entry file (- for stdin).")
	flag.StringVar(&outPath, "out", defaultFlashPath, "Output flash image path.")
	flag.Int64Var(&flashSize, "size", defaultFlashSize, "Flash image size (bytes).")
	flag.Int64Var(&eraseSize, "erase", defaultEraseSize, "Erase block size (bytes).")
	flag.BoolVar(&strict, "strict", false, "Fail on WiFi entries the clock would skip.")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "error: -out is required")
		os.Exit(2)
	}

	var in io.Reader = os.Stdin
	if srcPath != "-" {
		f, err := os.Open(srcPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	if err := run(in, os.Stderr, outPath, flashSize, eraseSize, strict); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, warn io.Writer, outPath string, flashSize, eraseSize int64, strict bool) error {
	entries, err := parseEntries(in)
	if err != nil {
		return err
	}
	if err := check(entries, warn, strict); err != nil {
		return err
	}

	ff, err := openFlashFile(outPath, flashSize, eraseSize)
	if err != nil {
		return err
	}
	defer func() { _ = ff.Close() }()

	st, err := nvs.Open(ff)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := st.Set(e.ns, e.key, e.value); err != nil {
			return fmt.Errorf("line %d: %s/%s: %w", e.line, e.ns, e.key, err)
		}
	}
	stats := st.Stats()
	fmt.Fprintf(warn, "wrote %d entries in %d namespaces, %d bytes free\n", stats.Live, stats.Namespaces, stats.Free)
	return nil
}

// check runs WiFi entries through the same parser the clock uses at boot.
func check(entries []entry, warn io.Writer, strict bool) error {
	bad := 0
	for _, e := range entries {
		if e.ns != netcfg.Namespace {
			continue
		}
		_, issues := netcfg.Parse(e.key, e.value)
		for _, is := range issues {
			fmt.Fprintf(warn, "line %d: %v\n", e.line, is)
			if is.Skipped() {
				bad++
			}
		}
	}
	if strict && bad > 0 {
		return fmt.Errorf("%d WiFi entries would be skipped", bad)
	}
	return nil
}
