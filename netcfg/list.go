package netcfg

import "wallclock/internal/dlist"

// List keeps records ordered by ascending priority.
type List struct {
	l dlist.List[Record]
}

// Insert links r at its priority position. A record already holding the
// same key is unlinked and returned.
func (l *List) Insert(r *Record) (replaced *Record) {
	r.node.Init(r)
	for n := l.l.First(); n != nil; n = l.l.After(n) {
		cur := n.Owner()
		switch {
		case cur.Key == r.Key:
			dlist.InsertBefore(n, &r.node)
			dlist.Remove(n)
			return cur
		case cur.Key > r.Key:
			dlist.InsertBefore(n, &r.node)
			return nil
		}
	}
	l.l.PushBack(&r.node)
	return nil
}

// Remove unlinks r.
func (l *List) Remove(r *Record) { dlist.Remove(&r.node) }

// Lookup returns the record with key, or nil.
func (l *List) Lookup(key int) *Record {
	var found *Record
	l.l.Each(func(r *Record) bool {
		if r.Key == key {
			found = r
		}
		return found == nil && r.Key < key
	})
	return found
}

// BySSID returns the lowest-priority-number record for ssid, or nil.
func (l *List) BySSID(ssid string) *Record {
	var found *Record
	l.l.Each(func(r *Record) bool {
		if r.SSID == ssid {
			found = r
			return false
		}
		return true
	})
	return found
}

// Default returns the priority-0 record, or nil.
func (l *List) Default() *Record {
	if r := l.l.Front(); r != nil && r.IsDefault() {
		return r
	}
	return nil
}

// Records returns the records in priority order.
func (l *List) Records() []*Record {
	var out []*Record
	l.l.Each(func(r *Record) bool {
		out = append(out, r)
		return true
	})
	return out
}

// Len returns the number of records.
func (l *List) Len() int { return l.l.Len() }

// NextKey returns the lowest free key above every key in use, or the lowest
// free non-default key when the top key is taken.
func (l *List) NextKey() (int, bool) {
	last := l.l.Back()
	if last == nil {
		return DefaultKey + 1, true
	}
	if last.Key < MaxKey {
		return last.Key + 1, true
	}
	want := DefaultKey + 1
	for _, r := range l.Records() {
		if r.Key < want {
			continue
		}
		if r.Key > want {
			return want, true
		}
		want++
	}
	return 0, false
}

// Candidate is a record with its effective server list.
type Candidate struct {
	Key      int
	SSID     string
	Password string
	Servers  []string
}

// Candidates returns every record in ascending priority order with the
// server list it would use: its own, else the default record's, else
// DefaultServer. The default record is itself a candidate.
func (l *List) Candidates() []Candidate {
	fallback := []string{DefaultServer}
	if d := l.Default(); d != nil && len(d.Servers) > 0 {
		fallback = d.Servers
	}
	var out []Candidate
	l.l.Each(func(r *Record) bool {
		servers := r.Servers
		if len(servers) == 0 {
			servers = fallback
		}
		out = append(out, Candidate{
			Key:      r.Key,
			SSID:     r.SSID,
			Password: r.Password,
			Servers:  append([]string(nil), servers...),
		})
		return true
	})
	return out
}
