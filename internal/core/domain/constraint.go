package domain

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// ConstraintOp is the comparison operator of a version constraint.
type ConstraintOp string

const (
	OpAny   ConstraintOp = ""
	OpEqual ConstraintOp = "="
	OpCaret ConstraintOp = "^"
	OpTilde ConstraintOp = "~"
	OpGT    ConstraintOp = ">"
	OpGTE   ConstraintOp = ">="
	OpLT    ConstraintOp = "<"
	OpLTE   ConstraintOp = "<="
)

// Constraint restricts the acceptable versions of a mod. The zero value
// matches everything.
type Constraint struct {
	Op      ConstraintOp
	Version string
}

var constraintRe = regexp.MustCompile(`^(\^|~|>=|<=|>|<|=)?\s*(.+)$`)

// ParseConstraint parses a constraint string such as "^1.2.0", "~1.0.0",
// ">=1.0.0", "1.4.2" (equality) or "" (any).
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return Constraint{}, nil
	}

	m := constraintRe.FindStringSubmatch(s)
	if m == nil {
		return Constraint{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "parse failed"), "constraint", s)
	}

	op := ConstraintOp(m[1])
	version := strings.TrimSpace(m[2])
	if op == OpAny {
		op = OpEqual
	}
	if version == "" {
		return Constraint{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "operator without version"), "constraint", s)
	}

	// Caret and tilde ranges only make sense over semantic versions.
	if (op == OpCaret || op == OpTilde) && !semver.IsValid(canonical(version)) {
		return Constraint{}, zerr.With(zerr.Wrap(ErrInvalidConstraint, "range operator needs a semantic version"), "constraint", s)
	}

	return Constraint{Op: op, Version: version}, nil
}

// MustConstraint is a test helper that panics on parse failure.
func MustConstraint(s string) Constraint {
	c, err := ParseConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// IsAny reports whether the constraint matches every version.
func (c Constraint) IsAny() bool {
	return c.Op == OpAny
}

func (c Constraint) String() string {
	if c.IsAny() {
		return "*"
	}
	if c.Op == OpEqual {
		return c.Version
	}
	return string(c.Op) + c.Version
}

// Matches reports whether the given version identifier satisfies the
// constraint. Semantic comparison is used when both sides parse as semver,
// literal string comparison otherwise.
func (c Constraint) Matches(version string) bool {
	switch c.Op {
	case OpAny:
		return true
	case OpEqual:
		return CompareVersions(version, c.Version) == 0
	case OpGT:
		return CompareVersions(version, c.Version) > 0
	case OpGTE:
		return CompareVersions(version, c.Version) >= 0
	case OpLT:
		return CompareVersions(version, c.Version) < 0
	case OpLTE:
		return CompareVersions(version, c.Version) <= 0
	case OpCaret:
		v, base := canonical(version), canonical(c.Version)
		if !semver.IsValid(v) {
			return false
		}
		if semver.Major(v) != semver.Major(base) {
			return false
		}
		// For 0.x the minor acts as the compatibility boundary.
		if semver.Major(base) == "v0" && semver.MajorMinor(v) != semver.MajorMinor(base) {
			return false
		}
		return semver.Compare(v, base) >= 0
	case OpTilde:
		v, base := canonical(version), canonical(c.Version)
		if !semver.IsValid(v) {
			return false
		}
		if semver.MajorMinor(v) != semver.MajorMinor(base) {
			return false
		}
		return semver.Compare(v, base) >= 0
	}
	return false
}

// CompareVersions orders two version identifiers: semantic comparison when
// both parse as semver, bytewise comparison otherwise.
func CompareVersions(a, b string) int {
	ca, cb := canonical(a), canonical(b)
	if semver.IsValid(ca) && semver.IsValid(cb) {
		return semver.Compare(ca, cb)
	}
	return strings.Compare(a, b)
}

// canonical normalizes a version identifier to the "vMAJOR[.MINOR[.PATCH]]"
// form x/mod/semver expects. Build metadata after '+' is kept; semver.IsValid
// rejects anything that still does not conform.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
