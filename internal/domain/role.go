package domain

import (
	"sort"
	"time"
)

// Role is a named capability grant.
type Role struct {
	ID        int64
	Name      string
	Type      string
	Color     string
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleAssignment links a user to a role.
type RoleAssignment struct {
	UserID UserID
	RoleID int64
}

// RoleSet is a set of role names.
type RoleSet map[string]struct{}

// NewRoleSet builds a set from one or more role names. Empty names are ignored.
func NewRoleSet(names ...string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether name is in the set.
func (s RoleSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the role names in sorted order.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
