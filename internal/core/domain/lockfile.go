package domain

import (
	"sort"
)

// LockfileVersion is the current lockfile format version.
const LockfileVersion = 1

// LockEntry is the durable record of one installed mod. Everything needed to
// reconcile the mod directory after a crash is derivable from the entry
// alone.
type LockEntry struct {
	Ref       ModReference `json:"ref"`
	VersionID string       `json:"version"`
	FileName  string       `json:"file"`
	Checksum  string       `json:"checksum"`
	Disabled  bool         `json:"disabled,omitempty"`
}

// InstalledName is the file name the entry occupies in the mod directory.
// Disabled mods keep their artifact under a ".disabled" suffix.
func (e LockEntry) InstalledName() string {
	if e.Disabled {
		return e.FileName + DisabledSuffix
	}
	return e.FileName
}

// Lockfile is the ordered collection of LockEntries, keyed by ModReference.
// It is the sole source of truth for what the engine believes is installed.
type Lockfile struct {
	Version int                  `json:"version"`
	Mods    map[string]LockEntry `json:"mods"`
}

// NewLockfile returns an empty lockfile at the current format version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version: LockfileVersion,
		Mods:    make(map[string]LockEntry),
	}
}

// Entry returns the entry for ref, if installed.
func (l *Lockfile) Entry(ref ModReference) (LockEntry, bool) {
	e, ok := l.Mods[ref.Key()]
	return e, ok
}

// Put records or replaces the entry for its reference.
func (l *Lockfile) Put(e LockEntry) {
	if l.Mods == nil {
		l.Mods = make(map[string]LockEntry)
	}
	l.Mods[e.Ref.Key()] = e
}

// Remove drops the entry for ref, if present.
func (l *Lockfile) Remove(ref ModReference) {
	delete(l.Mods, ref.Key())
}

// SortedEntries returns all entries ordered by reference key, the stable
// iteration order used by planning and serialization.
func (l *Lockfile) SortedEntries() []LockEntry {
	keys := make([]string, 0, len(l.Mods))
	for k := range l.Mods {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]LockEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, l.Mods[k])
	}
	return entries
}

// Checksums returns the set of checksums referenced by the lockfile. The
// artifact cache must never evict these.
func (l *Lockfile) Checksums() map[string]struct{} {
	set := make(map[string]struct{}, len(l.Mods))
	for _, e := range l.Mods {
		if e.Checksum != "" {
			set[e.Checksum] = struct{}{}
		}
	}
	return set
}

// Clone returns a deep copy, so a dry-run plan can be computed without
// touching the live state.
func (l *Lockfile) Clone() *Lockfile {
	c := &Lockfile{Version: l.Version, Mods: make(map[string]LockEntry, len(l.Mods))}
	for k, v := range l.Mods {
		c.Mods[k] = v
	}
	return c
}
