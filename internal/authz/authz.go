// Package authz gates requests on the resource's schema-authorization
// policy: whether the application cell that vouched for the caller's token
// is trusted enough for the resource.
package authz

import (
	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/token"
)

// SchemaKind classifies how the token's schema cell authenticated the app.
type SchemaKind int

const (
	// SchemaNone means the token carries no schema at all.
	SchemaNone SchemaKind = iota
	// SchemaPublic means the app authenticated without a client secret.
	SchemaPublic
	// SchemaConfidential means the app authenticated as a confidential
	// client.
	SchemaConfidential
)

// KindOf classifies a token's schema claim.
func KindOf(claims *token.Claims) SchemaKind {
	switch {
	case claims == nil || claims.Schema == "":
		return SchemaNone
	case claims.Confidential():
		return SchemaConfidential
	default:
		return SchemaPublic
	}
}

// Gate decides schema-authorization admission for one resource policy.
type Gate struct {
	unitBase string
}

func NewGate(unitBase string) *Gate {
	return &Gate{unitBase: unitBase}
}

// Admit reports whether a token of the given schema kind satisfies the
// policy. The unset policy behaves as none.
func (g *Gate) Admit(policy acl.RequireSchemaAuthz, kind SchemaKind) bool {
	switch policy {
	case acl.SchemaAuthzUnset, acl.SchemaAuthzNone:
		return true
	case acl.SchemaAuthzPublic:
		return kind != SchemaNone
	case acl.SchemaAuthzConfidential:
		return kind == SchemaConfidential
	default:
		return false
	}
}

// Check enforces the policy against the claims, plus the optional explicit
// schema URL from the request. Unit admins bypass both checks.
//
// requestSchema, when non-empty and the policy demands a schema, must be
// the same cell as the token's schema; http and localunit forms compare
// equal.
func (g *Gate) Check(policy acl.RequireSchemaAuthz, claims *token.Claims, requestSchema string) error {
	if claims != nil && claims.UnitAdmin {
		return nil
	}

	kind := KindOf(claims)

	if !g.Admit(policy, kind) {
		if kind == SchemaNone {
			return errcode.SchemaAuthRequired
		}

		return errcode.SchemaAuthzLevelInsufficient
	}

	if requestSchema == "" || policy == acl.SchemaAuthzUnset || policy == acl.SchemaAuthzNone {
		return nil
	}

	if !xuri.Equivalent(g.unitBase, requestSchema, claims.SchemaURL()) {
		return errcode.SchemaMismatch.WithParams(requestSchema)
	}

	return nil
}
