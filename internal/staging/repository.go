// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"errors"
	"strings"
)

// ErrBlankRepositoryID is returned when a repository is created from a blank id.
var ErrBlankRepositoryID = errors.New("staging repository id must not be blank")

// Empty is the distinguished "no staging repository" value.
var Empty = Repository{}

// Repository identifies a staging repository on the remote staging service.
// The zero value is Empty.
type Repository struct {
	id string
}

// NewRepository creates a present Repository from the id assigned by the remote service.
func NewRepository(id string) (Repository, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Empty, ErrBlankRepositoryID
	}
	return Repository{id: id}, nil
}

// ID returns the remote repository id, or "" for Empty.
func (r Repository) ID() string { return r.id }

// IsPresent reports whether r refers to an actual remote repository.
func (r Repository) IsPresent() bool { return r.id != "" }

// String returns the repository id, or "(none)" for Empty.
func (r Repository) String() string {
	if !r.IsPresent() {
		return "(none)"
	}
	return r.id
}
