package permission

import (
	"sort"
)

// Wildcard permission strings. Either one grants blanket authority to
// consumers that honour wildcards (the menu assembler); the guard does not.
const (
	Wildcard      = "*"
	WildcardAlias = "all"
)

// Scope is resolved once when a Set is built.
type Scope int

const (
	ScopeScoped Scope = iota
	ScopeUnrestricted
)

func (s Scope) String() string {
	if s == ScopeUnrestricted {
		return "unrestricted"
	}
	return "scoped"
}

// Set is an immutable set of permission strings.
type Set struct {
	perms map[string]struct{}
	scope Scope
}

func NewSet(perms []string) Set {
	s := Set{perms: make(map[string]struct{}, len(perms)), scope: ScopeScoped}
	for _, p := range perms {
		if p == "" {
			continue
		}
		s.perms[p] = struct{}{}
		if p == Wildcard || p == WildcardAlias {
			s.scope = ScopeUnrestricted
		}
	}
	return s
}

// Has is a strict membership test; wildcards are not expanded.
func (s Set) Has(permission string) bool {
	_, ok := s.perms[permission]
	return ok
}

func (s Set) Scope() Scope {
	return s.scope
}

func (s Set) Unrestricted() bool {
	return s.scope == ScopeUnrestricted
}

func (s Set) Len() int {
	return len(s.perms)
}

// Strings returns the permissions sorted, never nil.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s.perms))
	for p := range s.perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s Set) Equal(other Set) bool {
	if len(s.perms) != len(other.perms) {
		return false
	}
	for p := range s.perms {
		if _, ok := other.perms[p]; !ok {
			return false
		}
	}
	return true
}
