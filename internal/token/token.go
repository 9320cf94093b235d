// Package token models bearer tokens as already-verified claim sets. The
// core never checks signatures itself; a Verifier collaborator turns a raw
// token into Claims or an error, and everything downstream trusts the
// result.
package token

import (
	"context"
	"strings"
)

// ConfidentialMarker is appended to the schema URL inside a token when the
// schema cell vouched for the client as a confidential one.
const ConfidentialMarker = "#c"

// Claims is the claim bag of a verified trans-cell access token.
type Claims struct {
	Issuer   string   `json:"iss"`
	Subject  string   `json:"sub"`
	Audience string   `json:"aud"`
	Schema   string   `json:"schema,omitempty"`
	Roles    []string `json:"roles,omitempty"`

	// UnitAdmin marks unit-level tokens that bypass cell-scoped
	// authorization entirely.
	UnitAdmin bool `json:"unit_admin,omitempty"`
}

// SchemaURL returns the schema cell URL without the confidential marker,
// or "" when the token carries no schema.
func (c *Claims) SchemaURL() string {
	return strings.TrimSuffix(c.Schema, ConfidentialMarker)
}

// Confidential reports whether the schema vouched for the client as
// confidential.
func (c *Claims) Confidential() bool {
	return strings.HasSuffix(c.Schema, ConfidentialMarker)
}

// HasSchema reports whether the token was issued through app (schema)
// authentication at all.
func (c *Claims) HasSchema() bool {
	return c.Schema != ""
}

// Verifier validates a raw bearer token and returns its claims.
type Verifier interface {
	VerifyToken(ctx context.Context, raw string) (*Claims, error)
}
