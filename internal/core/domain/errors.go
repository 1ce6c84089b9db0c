package domain

import (
	"fmt"
	"time"

	"go.trai.ch/zerr"
)

var (
	// ErrNotFound is returned when a project identifier is unknown to its
	// platform.
	ErrNotFound = zerr.New("project not found")

	// ErrRateLimited is returned when a platform throttles the caller. It is
	// usually wrapped in a RateLimitError carrying the retry-after hint.
	ErrRateLimited = zerr.New("platform rate limited")

	// ErrUnreachable is returned for network or transport failures.
	ErrUnreachable = zerr.New("platform unreachable")

	// ErrNoCompatibleVersion is returned when a mod has no release valid for
	// the target loader and game version.
	ErrNoCompatibleVersion = zerr.New("no compatible version")

	// ErrUnresolvableConflict is returned when the dependency search space is
	// exhausted without a consistent joint selection.
	ErrUnresolvableConflict = zerr.New("unresolvable dependency conflict")

	// ErrChecksumUnavailable is returned when a platform provides no
	// integrity hash for an artifact.
	ErrChecksumUnavailable = zerr.New("checksum unavailable")

	// ErrIntegrityViolation is returned when artifact bytes do not match
	// their declared checksum. Always fatal, never bypassed.
	ErrIntegrityViolation = zerr.New("artifact integrity violation")

	// ErrInstallFailed is returned when the filesystem apply fails after
	// best-effort rollback.
	ErrInstallFailed = zerr.New("install failed")

	// ErrUnknownPlatform is returned for a platform name outside the
	// supported set.
	ErrUnknownPlatform = zerr.New("unknown platform")

	// ErrUnknownLoader is returned for a loader name outside the supported
	// set.
	ErrUnknownLoader = zerr.New("unknown loader")

	// ErrInvalidConstraint is returned when a version constraint string does
	// not parse.
	ErrInvalidConstraint = zerr.New("invalid version constraint")

	// ErrInvalidChecksum is returned when a checksum string is malformed or
	// names an unsupported algorithm.
	ErrInvalidChecksum = zerr.New("invalid checksum")

	// ErrDirectoryLocked is returned when another apply already holds the
	// mod directory lock.
	ErrDirectoryLocked = zerr.New("mod directory locked by another apply")
)

// RateLimitError carries the platform's retry-after hint alongside
// ErrRateLimited so the retry layer can wait the right amount of time.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("platform rate limited (retry after %s)", e.RetryAfter)
}

// Unwrap returns ErrRateLimited so callers can use errors.Is for
// programmatic detection.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
