// Package tenant maps tenant identifiers to storage locators.
//
// The registry is the single chokepoint where tenant ids are validated;
// every locator and federation alias in the system is derived from an id
// that passed through here.
package tenant

import (
	"regexp"

	"github.com/burrowcms/burrow/errors"
)

// Kind identifies how a tenant's store is reached.
type Kind int

const (
	// KindEmbedded is a file-backed SQLite store under the base directory
	KindEmbedded Kind = iota
	// KindNetworked is a database on the configured MySQL endpoint
	KindNetworked
)

func (k Kind) String() string {
	switch k {
	case KindEmbedded:
		return "embedded"
	case KindNetworked:
		return "networked"
	default:
		return "unknown"
	}
}

// Descriptor describes one registered tenant. Immutable after registration.
type Descriptor struct {
	ID      string
	Locator string
	Kind    Kind
}

// idPattern is the allow-listed tenant identifier grammar. Ids end up in
// file paths and in generated SQL, so anything outside this charset is
// rejected before a locator is ever constructed. Lowercase only: embedded
// locators are file paths and case-insensitive filesystems would let
// "Blog" and "blog" collide on one store file.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidateID checks a tenant id against the identifier grammar.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return errors.Wrapf(errors.ErrInvalidTenantID,
			"%q (want [a-z0-9][a-z0-9_-]{0,63})", id)
	}
	return nil
}
