package netcfg

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"wallclock/internal/logx"
	"wallclock/nvs"
)

// Store is the persisted key/value store the resolver reads and writes.
type Store interface {
	Entries(ns string) ([]nvs.Entry, error)
	Get(ns, key string) ([]byte, error)
	Set(ns, key string, val []byte) error
}

// Resolved is the configuration in use. It is replaced whole, never
// modified in place.
type Resolved struct {
	Candidate
	// Accepted reports whether the network collaborator confirmed this
	// candidate. Before that it is the optimistic first pick.
	Accepted bool
	Prefs    Prefs
}

// Configured reports whether any credentials exist.
func (r *Resolved) Configured() bool { return r.SSID != "" }

// Resolver owns the credential list and the active configuration.
//
// Load, SavePassword and SetPrefs run in the scheduling-pass context.
// Candidates, Accept and Active may be called from any goroutine.
type Resolver struct {
	store Store
	log   *logx.Logger

	mu    sync.Mutex
	list  List
	prefs Prefs

	active atomic.Pointer[Resolved]
}

// NewResolver returns a Resolver over store. A nil store yields the
// hardwired defaults and discards edits.
func NewResolver(store Store, log *logx.Logger) *Resolver {
	if log == nil {
		log = logx.Discard
	}
	r := &Resolver{store: store, log: log, prefs: DefaultPrefs()}
	r.active.Store(r.fallback())
	return r
}

func (r *Resolver) fallback() *Resolved {
	return &Resolved{
		Candidate: Candidate{Key: -1, Servers: []string{DefaultServer}},
		Prefs:     r.prefs,
	}
}

// Load rebuilds the list from the store and selects the optimistic initial
// configuration. Issues are logged and returned; they never stop loading.
// The error is non-nil only when the store itself could not be read, in
// which case the hardwired defaults are active.
func (r *Resolver) Load() ([]Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.list = List{}
	var issues []Issue
	var readErr error

	if r.store != nil {
		entries, err := r.store.Entries(Namespace)
		if err != nil {
			readErr = fmt.Errorf("netcfg: load: %w", err)
		}
		// A store may hand back the same key twice; the later entry wins.
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		for _, e := range entries {
			rec, is := Parse(e.Key, e.Value)
			issues = append(issues, is...)
			if rec == nil {
				continue
			}
			if old := r.list.Insert(rec); old != nil {
				issues = append(issues, Issue{Key: e.Key, Code: CodeDuplicateKey,
					Detail: fmt.Sprintf("replaces %q", old.SSID)})
			}
		}

		p, pis := loadPrefs(r.store)
		r.prefs = p
		issues = append(issues, pis...)
	}

	for _, is := range issues {
		if is.Skipped() {
			r.log.Warnf("entry %s skipped: %s", is.Key, describe(is))
		} else {
			r.log.Warnf("entry %s: %s", is.Key, describe(is))
		}
	}
	if readErr != nil {
		r.log.Errorf("%v; using defaults", readErr)
	}

	r.pickLocked(-1, false)
	r.log.Infof("%d candidates, active %s", r.list.Len(), describeActive(r.active.Load()))
	return issues, readErr
}

func describe(is Issue) string {
	if is.Detail == "" {
		return string(is.Code)
	}
	return string(is.Code) + " (" + is.Detail + ")"
}

func describeActive(a *Resolved) string {
	if !a.Configured() {
		return "defaults"
	}
	return fmt.Sprintf("%s %q", FormatKey(a.Key), a.SSID)
}

// pickLocked installs the candidate with key, or the first candidate when key
// is negative or gone.
func (r *Resolver) pickLocked(key int, accepted bool) bool {
	cands := r.list.Candidates()
	for _, c := range cands {
		if key < 0 || c.Key == key {
			r.active.Store(&Resolved{Candidate: c, Accepted: accepted, Prefs: r.prefs})
			return true
		}
	}
	if len(cands) == 0 {
		r.active.Store(r.fallback())
	} else {
		r.active.Store(&Resolved{Candidate: cands[0], Prefs: r.prefs})
	}
	return false
}

// Candidates returns the connection candidates in the order they should be
// tried.
func (r *Resolver) Candidates() []Candidate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list.Candidates()
}

// Active returns the configuration in use.
func (r *Resolver) Active() *Resolved { return r.active.Load() }

// Prefs returns the display preferences.
func (r *Resolver) Prefs() Prefs {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prefs
}

// Accept records that the network collaborator connected with the candidate
// holding key. It reports false if no such candidate exists.
func (r *Resolver) Accept(key int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := r.pickLocked(key, true)
	if ok {
		r.log.Infof("accepted %s", describeActive(r.active.Load()))
	}
	return ok
}

// ErrNoFreeKey is returned when every credential key is in use.
var ErrNoFreeKey = errors.New("netcfg: no free key")

// SavePassword stores password for ssid, updating the record that names it
// or appending a new lowest-precedence record. The active configuration is
// pinned to that record, pending acceptance.
func (r *Resolver) SavePassword(ssid, password string) (Candidate, error) {
	switch {
	case ssid == "":
		return Candidate{}, fmt.Errorf("netcfg: save: %w", CodeEmptySSID)
	case len(ssid) > MaxSSIDLen || len(password) > MaxPasswordLen:
		return Candidate{}, fmt.Errorf("netcfg: save %q: %w", ssid, CodeTooLong)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.list.BySSID(ssid)
	if rec != nil {
		upd := *rec
		upd.Password = password
		upd.Servers = append([]string(nil), rec.Servers...)
		rec = &upd
	} else {
		key, ok := r.list.NextKey()
		if !ok {
			return Candidate{}, ErrNoFreeKey
		}
		rec = &Record{Key: key, SSID: ssid, Password: password}
	}

	if r.store != nil {
		if err := r.store.Set(Namespace, FormatKey(rec.Key), FormatValue(rec)); err != nil {
			return Candidate{}, fmt.Errorf("netcfg: save %q: %w", ssid, err)
		}
	}
	r.list.Insert(rec)
	r.pickLocked(rec.Key, false)
	r.log.Infof("saved %s %q", FormatKey(rec.Key), ssid)
	return r.active.Load().Candidate, nil
}

// SetPrefs persists p and republishes the active configuration with it.
func (r *Resolver) SetPrefs(p Prefs) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := savePrefs(r.store, p); err != nil {
		return fmt.Errorf("netcfg: save prefs: %w", err)
	}
	r.prefs = p
	cur := *r.active.Load()
	cur.Prefs = p
	r.active.Store(&cur)
	return nil
}
