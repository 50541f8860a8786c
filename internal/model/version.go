// SPDX-License-Identifier: MPL-2.0

package model

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// snapshotQualifier marks development versions between two releases.
const snapshotQualifier = "SNAPSHOT"

// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
var ErrInvalidVersion = errors.New("invalid version")

type (
	// Version is the release version of one module. The zero value is the
	// "no version" marker and is never valid for a module of a train.
	Version struct {
		v *semver.Version
	}

	// InvalidVersionError is returned when a version string cannot be parsed.
	InvalidVersionError struct {
		Value string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// ParseVersion parses a semantic version such as "3.3.0", "3.3" or "3.3.0-M1".
func ParseVersion(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, &InvalidVersionError{Value: s, Cause: err}
	}
	return Version{v: v}, nil
}

// MustParseVersion is like ParseVersion but panics on error. Intended for tests
// and constants.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.v == nil }

// String returns the normalized version (e.g., "3.3.0").
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Equal reports whether both versions denote the same semantic version.
func (v Version) Equal(other Version) bool {
	if v.v == nil || other.v == nil {
		return v.v == other.v
	}
	return v.v.Equal(other.v)
}

// NextMinor returns the next minor version (3.3.1 -> 3.4.0) without qualifier.
func (v Version) NextMinor() Version {
	if v.v == nil {
		return v
	}
	next := v.v.IncMinor()
	return Version{v: &next}
}

// NextPatch returns the next patch version (3.3.0 -> 3.3.1) without qualifier.
// Qualified versions move on as well (3.3.0-M1 -> 3.3.1).
func (v Version) NextPatch() Version {
	if v.v == nil {
		return v
	}
	// semver's IncPatch only drops a pre-release instead of incrementing.
	next := v.WithQualifier("").v.IncPatch()
	return Version{v: &next}
}

// WithQualifier returns the version with the given pre-release qualifier
// (e.g., "M1", "RC2", "SNAPSHOT"). An empty qualifier strips the existing one.
func (v Version) WithQualifier(qualifier string) Version {
	if v.v == nil {
		return v
	}
	next, err := v.v.SetPrerelease(qualifier)
	if err != nil {
		// Qualifiers produced by this package are always valid pre-release identifiers.
		panic(fmt.Sprintf("model: invalid version qualifier %q: %v", qualifier, err))
	}
	return Version{v: &next}
}

// WithSnapshot returns the development version ("3.4.0-SNAPSHOT").
func (v Version) WithSnapshot() Version { return v.WithQualifier(snapshotQualifier) }

// IsSnapshot reports whether v carries the development qualifier.
func (v Version) IsSnapshot() bool {
	return v.v != nil && v.v.Prerelease() == snapshotQualifier
}
