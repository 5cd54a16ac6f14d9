package repository

import (
	"errors"
	"fmt"
	"strings"
)

const (
	identitySeparatorConstant            = "/"
	invalidIdentityMessageConstant       = "repository identity must have the form owner/name"
	invalidIdentityErrorTemplateConstant = "%w: %q"
)

// ErrInvalidIdentity indicates a repository identifier without an owner/name pair.
var ErrInvalidIdentity = errors.New(invalidIdentityMessageConstant)

// Identity names a GitHub repository as owner/name.
type Identity struct {
	owner string
	name  string
}

// ParseIdentity validates an owner/name identifier.
func ParseIdentity(value string) (Identity, error) {
	trimmedValue := strings.TrimSpace(value)
	owner, name, separated := strings.Cut(trimmedValue, identitySeparatorConstant)
	if !separated || len(owner) == 0 || len(name) == 0 || strings.Contains(name, identitySeparatorConstant) {
		return Identity{}, fmt.Errorf(invalidIdentityErrorTemplateConstant, ErrInvalidIdentity, value)
	}
	return Identity{owner: owner, name: name}, nil
}

// Owner returns the account owning the repository.
func (identity Identity) Owner() string {
	return identity.owner
}

// RepositoryName returns the part after the separator.
func (identity Identity) RepositoryName() string {
	return identity.name
}

// String renders owner/name.
func (identity Identity) String() string {
	return identity.owner + identitySeparatorConstant + identity.name
}
