package domain

import "time"

// Limits bounds the engine's network and concurrency behavior. Zero fields
// fall back to the defaults below.
type Limits struct {
	DownloadConcurrency int
	RetryAttempts       int
	RequestTimeout      time.Duration
	// ResolveTimeout bounds a whole resolution run; zero means unbounded.
	ResolveTimeout time.Duration
}

// Default limit values applied by Normalized.
const (
	DefaultDownloadConcurrency = 4
	DefaultRetryAttempts       = 4
	DefaultRequestTimeout      = 30 * time.Second
)

// Normalized returns a copy with defaults substituted for zero fields.
func (l Limits) Normalized() Limits {
	if l.DownloadConcurrency <= 0 {
		l.DownloadConcurrency = DefaultDownloadConcurrency
	}
	if l.RetryAttempts <= 0 {
		l.RetryAttempts = DefaultRetryAttempts
	}
	if l.RequestTimeout <= 0 {
		l.RequestTimeout = DefaultRequestTimeout
	}
	return l
}

// Profile is the validated desired state for one server: target runtime,
// desired mods and engine tuning. Produced by the configuration loader.
type Profile struct {
	Loader      Loader
	GameVersion GameVersion
	// ModDir is the directory holding one artifact file per installed mod.
	ModDir string
	// LockfilePath is where the lockfile lives; defaults to
	// DefaultLockfileName next to ModDir.
	LockfilePath string
	Mods         []DesiredMod
	// Disabled mods stay resolved and locked but their artifacts are parked
	// under the ".disabled" suffix.
	Disabled []ModReference
	// Overrides redirects declared dependencies by project identifier.
	Overrides map[string]ModReference
	Limits    Limits
}

// Request builds the immutable resolution request for this profile.
func (p *Profile) Request() ResolutionRequest {
	mods := make([]DesiredMod, len(p.Mods))
	copy(mods, p.Mods)
	return ResolutionRequest{
		Loader:      p.Loader,
		GameVersion: p.GameVersion,
		Mods:        mods,
		Overrides:   p.Overrides,
	}
}

// DisabledSet returns the disabled references as a set.
func (p *Profile) DisabledSet() map[ModReference]bool {
	set := make(map[ModReference]bool, len(p.Disabled))
	for _, ref := range p.Disabled {
		set[ref] = true
	}
	return set
}
