package acl

import (
	"github.com/samber/lo"

	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/privilege"
)

// Chain is the resource's ACL lookup chain: the owning Cell's ACL and, for
// requests under a Box, that Box's ACL.
type Chain struct {
	Cell *Acl
	Box  *Acl
}

// Effective selects the ACL that governs the request. A Box ACL with at
// least one ACE shadows the Cell ACL entirely; an absent or empty Box ACL
// falls through to the Cell.
func (c Chain) Effective() *Acl {
	if c.Box != nil && !c.Box.Empty() {
		return c.Box
	}

	if c.Cell != nil && !c.Cell.Empty() {
		return c.Cell
	}

	return nil
}

// Evaluator decides whether a caller's role set carries a privilege under a
// resource's ACL chain.
type Evaluator struct {
	unitBase string
}

func NewEvaluator(unitBase string) *Evaluator {
	return &Evaluator{unitBase: unitBase}
}

// Decide reports whether callerRoles grant required under chain.
//
// Matching principals union their grants; the union is then expanded through
// the implication table before the membership check. Hrefs that resolve to
// nothing a caller holds contribute no grants; there is no error path here,
// an unmatched caller is denied.
func (e *Evaluator) Decide(chain Chain, required privilege.Privilege, callerRoles []string) bool {
	effective := chain.Effective()
	if effective == nil {
		return false
	}

	grants := effective.GrantsFor(func(resolvedHref string) bool {
		return lo.SomeBy(callerRoles, func(role string) bool {
			return xuri.Equivalent(e.unitBase, resolvedHref, role)
		})
	})

	return grants.Implies(required)
}
