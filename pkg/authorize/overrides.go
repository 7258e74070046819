package authorize

import (
	"maps"
	"slices"
)

// Set is a set of permissions. Wildcards are kept as written; Policy gives
// them meaning at enforcement time.
type Set map[Permission]struct{}

func NewSet(perms ...Permission) Set {
	s := Set{}
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Sorted lists the permissions in lexical order.
func (s Set) Sorted() []Permission {
	return slices.Sorted(maps.Keys(s))
}

// Overrides layers sparse per-staff changes on a role's base permissions.
type Overrides struct {
	Base    Set
	Added   Set
	Removed Set
}

// Resolve returns (Base ∪ Added) \ Removed. A permission both added and
// removed is removed.
func (o Overrides) Resolve() Set {
	out := Set{}
	for p := range o.Base {
		out[p] = struct{}{}
	}
	for p := range o.Added {
		out[p] = struct{}{}
	}
	for p := range o.Removed {
		delete(out, p)
	}
	return out
}
