// Package privilege enumerates the privileges that can be granted through
// ACLs on a cell or box and the implication relation between them.
//
// The implication relation is data, not a type hierarchy: root and all imply
// every other privilege, while the -read variants are siblings of their base
// privilege (read does not follow from write, nor acl-read from acl).
package privilege

import "github.com/samber/lo"

// Privilege is the name of a grantable privilege, as it appears inside an
// ACL grant element.
type Privilege string

const (
	Read        Privilege = "read"
	Write       Privilege = "write"
	Auth        Privilege = "auth"
	AuthRead    Privilege = "auth-read"
	Message     Privilege = "message"
	MessageRead Privilege = "message-read"
	Event       Privilege = "event"
	EventRead   Privilege = "event-read"
	Log         Privilege = "log"
	LogRead     Privilege = "log-read"
	ACL         Privilege = "acl"
	ACLRead     Privilege = "acl-read"
	Box         Privilege = "box"
	BoxRead     Privilege = "box-read"
	BarInstall  Privilege = "bar-install"
	Social      Privilege = "social"
	SocialRead  Privilege = "social-read"
	Sign        Privilege = "sign"
	Root        Privilege = "root"
	All         Privilege = "all"
)

var ordered = []Privilege{
	Read, Write,
	Auth, AuthRead,
	Message, MessageRead,
	Event, EventRead,
	Log, LogRead,
	ACL, ACLRead,
	Box, BoxRead,
	BarInstall,
	Social, SocialRead,
	Sign,
	Root, All,
}

// implied maps a privilege to the set of privileges it carries besides
// itself. New privileges are additive configuration here, nothing else has
// to change.
var implied = map[Privilege][]Privilege{
	Root: ordered,
	All:  ordered,
}

// Known reports whether p is a privilege this unit understands.
func Known(p Privilege) bool {
	return lo.Contains(ordered, p)
}

// Ordered returns every known privilege in declaration order.
func Ordered() []Privilege {
	out := make([]Privilege, len(ordered))
	copy(out, ordered)

	return out
}

// Set is an expanded privilege set.
type Set map[Privilege]struct{}

// NewSet builds a Set from the given privileges without expanding them.
func NewSet(ps ...Privilege) Set {
	s := make(Set, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}

	return s
}

// Contains reports direct membership, without implication.
func (s Set) Contains(p Privilege) bool {
	_, ok := s[p]
	return ok
}

// Expand returns the closure of s under the implication table.
func (s Set) Expand() Set {
	out := make(Set, len(s))

	for p := range s {
		out[p] = struct{}{}

		for _, imp := range implied[p] {
			out[imp] = struct{}{}
		}
	}

	return out
}

// Implies reports whether the granted set s, once expanded, carries the
// required privilege.
func (s Set) Implies(required Privilege) bool {
	if s.Contains(required) {
		return true
	}

	for p := range s {
		if lo.Contains(implied[p], required) {
			return true
		}
	}

	return false
}

// List returns the members of s in declaration order.
func (s Set) List() []Privilege {
	return lo.Filter(ordered, func(p Privilege, _ int) bool {
		return s.Contains(p)
	})
}
