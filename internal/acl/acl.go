// Package acl models access control lists on cells and boxes and decides
// whether a caller's role set grants a required privilege.
//
// An Acl is attached to exactly one resource. A box with at least one ACE
// fully shadows the cell ACL for requests under that box; a box with none
// falls through to the cell ACL. Evaluation is a pure function over an
// already-loaded Acl and the caller's resolved roles.
package acl

import (
	"github.com/samber/lo"

	"github.com/looplj/cellhub/internal/privilege"
)

// RequireSchemaAuthz is the schema-authorization policy attached to an ACL.
// The empty value and "none" behave identically.
type RequireSchemaAuthz string

const (
	SchemaAuthzUnset        RequireSchemaAuthz = ""
	SchemaAuthzNone         RequireSchemaAuthz = "none"
	SchemaAuthzPublic       RequireSchemaAuthz = "public"
	SchemaAuthzConfidential RequireSchemaAuthz = "confidential"
)

// Valid reports whether the policy value is one this unit understands.
func (r RequireSchemaAuthz) Valid() bool {
	switch r {
	case SchemaAuthzUnset, SchemaAuthzNone, SchemaAuthzPublic, SchemaAuthzConfidential:
		return true
	default:
		return false
	}
}

// PrincipalKind distinguishes the two principal forms an ACE can carry.
type PrincipalKind int

const (
	PrincipalAll PrincipalKind = iota
	PrincipalHref
)

// Principal is the grantee of an ACE: either every authenticated caller, or
// the holders of one role identified by href.
type Principal struct {
	Kind PrincipalKind
	Href string
}

// Ace grants a set of privileges to one principal.
type Ace struct {
	Principal Principal
	Grant     []privilege.Privilege
}

// Acl is the access control list of a cell root or box root collection.
// Base is the xml:base the hrefs resolve against, stored in localunit form
// when it addresses this unit.
type Acl struct {
	Base               string
	RequireSchemaAuthz RequireSchemaAuthz
	Aces               []Ace
}

// Empty reports whether the ACL carries no ACEs. An empty box ACL does not
// shadow the cell ACL.
func (a *Acl) Empty() bool {
	return a == nil || len(a.Aces) == 0
}

// GrantsFor unions the grant sets of every ACE whose principal matches,
// using the supplied matcher for href principals.
func (a *Acl) GrantsFor(hrefMatches func(resolvedHref string) bool) privilege.Set {
	grants := privilege.NewSet()
	if a == nil {
		return grants
	}

	for _, ace := range a.Aces {
		switch ace.Principal.Kind {
		case PrincipalAll:
		case PrincipalHref:
			if !hrefMatches(a.ResolveHref(ace.Principal.Href)) {
				continue
			}
		}

		for _, p := range ace.Grant {
			grants[p] = struct{}{}
		}
	}

	return grants
}

// ResolveHref resolves an ACE href against the ACL base. Absolute hrefs
// (http or localunit) pass through untouched.
func (a *Acl) ResolveHref(href string) string {
	if isAbsolute(href) || a.Base == "" {
		return href
	}

	return ensureSlash(a.Base) + href
}

// Roles returns the distinct resolved role hrefs referenced by the ACL.
func (a *Acl) Roles() []string {
	if a == nil {
		return nil
	}

	hrefs := lo.FilterMap(a.Aces, func(ace Ace, _ int) (string, bool) {
		if ace.Principal.Kind != PrincipalHref {
			return "", false
		}

		return a.ResolveHref(ace.Principal.Href), true
	})

	return lo.Uniq(hrefs)
}
