//go:build !tinygo

package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// separatorToken stands for the 0xFF field separator in source files.
const separatorToken = "[FF]"

type entry struct {
	line  int
	ns    string
	key   string
	value []byte
}

// parseEntries reads "ns/key=value" lines. Blank lines and lines starting
// with '#' are ignored. A later line for the same ns/key overrides an earlier
// one.
func parseEntries(r io.Reader) ([]entry, error) {
	var out []entry
	index := map[string]int{}

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if t := strings.TrimSpace(line); t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '='", n)
		}
		ns, key, ok := strings.Cut(strings.TrimSpace(name), "/")
		if !ok || ns == "" || key == "" {
			return nil, fmt.Errorf("line %d: name %q is not ns/key", n, name)
		}
		e := entry{
			line:  n,
			ns:    ns,
			key:   key,
			value: bytes.ReplaceAll([]byte(value), []byte(separatorToken), []byte{0xFF}),
		}
		if i, dup := index[ns+"/"+key]; dup {
			out[i] = e
			continue
		}
		index[ns+"/"+key] = len(out)
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return out, nil
}
