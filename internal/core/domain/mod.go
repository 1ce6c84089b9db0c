// Package domain contains the core domain models and business logic for mod
// resolution and installation.
package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Platform identifies a mod distribution platform.
type Platform string

const (
	// PlatformModrinth is the community mod hub.
	PlatformModrinth Platform = "modrinth"
	// PlatformCurseForge is the commercial mod hub.
	PlatformCurseForge Platform = "curseforge"
	// PlatformGitHub sources artifacts from GitHub release pages.
	PlatformGitHub Platform = "github"
)

// KnownPlatforms lists every supported platform in a stable order.
var KnownPlatforms = []Platform{PlatformModrinth, PlatformCurseForge, PlatformGitHub}

// ParsePlatform converts a configuration string to a Platform.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range KnownPlatforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrUnknownPlatform, "parse failed"), "platform", s)
}

// Loader is the server-side mod-loading runtime variant. A server instance
// targets exactly one Loader for the lifetime of a resolution run.
type Loader string

const (
	LoaderQuilt    Loader = "quilt"
	LoaderFabric   Loader = "fabric"
	LoaderForge    Loader = "forge"
	LoaderNeoForge Loader = "neoforge"
	LoaderVelocity Loader = "velocity"
)

// KnownLoaders lists every supported loader in a stable order.
var KnownLoaders = []Loader{LoaderQuilt, LoaderFabric, LoaderForge, LoaderNeoForge, LoaderVelocity}

// ParseLoader converts a configuration string to a Loader.
func ParseLoader(s string) (Loader, error) {
	for _, l := range KnownLoaders {
		if string(l) == s {
			return l, nil
		}
	}
	return "", zerr.With(zerr.Wrap(ErrUnknownLoader, "parse failed"), "loader", s)
}

// GameVersion is the target game release identifier mods must declare
// compatibility with (e.g. "1.21.1").
type GameVersion string

// ModReference identifies a mod independent of version. Immutable once
// created.
type ModReference struct {
	Platform  Platform `json:"platform" yaml:"platform"`
	ProjectID string   `json:"project" yaml:"id"`
}

// Key returns the canonical map key for the reference.
func (r ModReference) Key() string {
	return string(r.Platform) + ":" + r.ProjectID
}

func (r ModReference) String() string {
	return r.Key()
}

// IsZero reports whether the reference is unset.
func (r ModReference) IsZero() bool {
	return r.Platform == "" && r.ProjectID == ""
}

// Relation classifies a dependency declared by a ModVersion.
type Relation string

const (
	RelationRequired     Relation = "required"
	RelationOptional     Relation = "optional"
	RelationIncompatible Relation = "incompatible"
)

// Dependency is one declared edge from a ModVersion to another project.
type Dependency struct {
	Ref        ModReference
	Constraint Constraint
	Relation   Relation
}

// ModVersion is one concrete, immutable release of a mod with its
// compatibility and dependency metadata, as reported by its platform.
type ModVersion struct {
	Ref      ModReference
	ID       string
	FileName string
	// ReleasedAt is the platform-reported release time, used as the primary
	// ordering for "prefer newest".
	ReleasedAt time.Time
	// Loaders the release declares support for. An empty set means the
	// platform publishes no loader metadata and the release is treated as
	// loader-agnostic.
	Loaders []Loader
	// GameVersions the release declares support for. Empty has the same
	// meaning as for Loaders.
	GameVersions []GameVersion
	ArtifactURL  string
	// Checksum is "algo:hex", or empty when the platform provides no
	// integrity hash.
	Checksum     string
	Dependencies []Dependency
}

// SupportsLoader reports whether the release is installable under l.
func (v ModVersion) SupportsLoader(l Loader) bool {
	if len(v.Loaders) == 0 {
		return true
	}
	for _, have := range v.Loaders {
		if have == l {
			return true
		}
	}
	return false
}

// SupportsGameVersion reports whether the release is installable on gv.
func (v ModVersion) SupportsGameVersion(gv GameVersion) bool {
	if len(v.GameVersions) == 0 {
		return true
	}
	for _, have := range v.GameVersions {
		if have == gv {
			return true
		}
	}
	return false
}

// InstallFileName is the artifact file name used in the mod directory. It
// falls back to "<project>-<version>.jar" when the platform reports none, so
// a name is always derivable from resolution data alone.
func (v ModVersion) InstallFileName() string {
	if v.FileName != "" {
		return v.FileName
	}
	return v.Ref.ProjectID + "-" + v.ID + ".jar"
}

// DesiredMod is one entry of the user's desired set: a reference, optionally
// pinned to a version constraint.
type DesiredMod struct {
	Ref        ModReference
	Constraint Constraint
}

// ResolutionRequest is the immutable input of a single resolve-and-install
// operation.
type ResolutionRequest struct {
	Loader      Loader
	GameVersion GameVersion
	Mods        []DesiredMod
	// Overrides maps a project identifier that appears as a declared
	// dependency to the reference that should be resolved in its place.
	Overrides map[string]ModReference
}

// ResolutionResult maps each reference to the single selected version. It is
// internally consistent: one entry per reference, every selection compatible
// with the request's loader and game version, no Incompatible pair, and every
// Required dependency present and satisfied.
type ResolutionResult map[ModReference]ModVersion
