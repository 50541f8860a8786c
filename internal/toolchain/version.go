// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidJavaVersion is the sentinel error wrapped by InvalidJavaVersionError.
var ErrInvalidJavaVersion = errors.New("invalid java version")

// distributionPrefix matches jenv and asdf spellings such as "openjdk64-17.0.2"
// or "temurin-17.0.9+9".
var distributionPrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*-(\d)`)

type (
	// JavaVersion is a detected Java toolchain version. It keeps the raw spelling
	// (e.g., "17.0.10-tem") so distribution suffixes survive round trips.
	// The zero value means "not bound".
	JavaVersion struct {
		raw string
		v   *semver.Version
	}

	// InvalidJavaVersionError is returned when a version string cannot be parsed.
	InvalidJavaVersionError struct {
		Value string
		Cause error
	}
)

// Error implements the error interface.
func (e *InvalidJavaVersionError) Error() string {
	return fmt.Sprintf("invalid java version %q: %v", e.Value, e.Cause)
}

// Unwrap returns ErrInvalidJavaVersion for errors.Is() compatibility.
func (e *InvalidJavaVersionError) Unwrap() error { return ErrInvalidJavaVersion }

// ParseJavaVersion parses "17", "21.0.2", SDKMAN style "17.0.10-tem" or a
// distribution-prefixed "temurin-17.0.9+9". String keeps the prefix.
func ParseJavaVersion(s string) (JavaVersion, error) {
	raw := strings.TrimSpace(s)
	v, err := semver.NewVersion(distributionPrefix.ReplaceAllString(raw, "$1"))
	if err != nil {
		return JavaVersion{}, &InvalidJavaVersionError{Value: s, Cause: err}
	}
	return JavaVersion{raw: raw, v: v}, nil
}

// MustParseJavaVersion is like ParseJavaVersion but panics on error.
func MustParseJavaVersion(s string) JavaVersion {
	v, err := ParseJavaVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero reports whether no version is bound.
func (v JavaVersion) IsZero() bool { return v.v == nil }

// Major returns the feature release number (17, 21, ...).
func (v JavaVersion) Major() uint64 {
	if v.v == nil {
		return 0
	}
	return v.v.Major()
}

// String returns the version as it was spelled.
func (v JavaVersion) String() string { return v.raw }
