package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplj/cellhub/internal/errcode"
)

func TestClaims_Schema(t *testing.T) {
	t.Run("no schema", func(t *testing.T) {
		c := &Claims{}
		assert.False(t, c.HasSchema())
		assert.False(t, c.Confidential())
		assert.Empty(t, c.SchemaURL())
	})

	t.Run("public schema", func(t *testing.T) {
		c := &Claims{Schema: "https://unit.example/app/"}
		assert.True(t, c.HasSchema())
		assert.False(t, c.Confidential())
		assert.Equal(t, "https://unit.example/app/", c.SchemaURL())
	})

	t.Run("confidential schema", func(t *testing.T) {
		c := &Claims{Schema: "https://unit.example/app/#c"}
		assert.True(t, c.HasSchema())
		assert.True(t, c.Confidential())
		assert.Equal(t, "https://unit.example/app/", c.SchemaURL())
	})
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := NewJWTVerifier("unit-secret")

	in := &Claims{
		Issuer:   "https://unit.example/cell-a/",
		Subject:  "https://unit.example/cell-a/#account1",
		Audience: "https://unit.example/cell-b/",
		Schema:   "https://unit.example/app/#c",
		Roles: []string{
			"https://unit.example/cell-b/__role/__/member",
		},
	}

	raw, err := v.SignToken(in)
	require.NoError(t, err)

	out, err := v.VerifyToken(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJWTVerifier_RejectsBadToken(t *testing.T) {
	v := NewJWTVerifier("unit-secret")

	_, err := v.VerifyToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, errcode.TokenInvalid)

	other := NewJWTVerifier("different-secret")
	raw, err := other.SignToken(&Claims{Subject: "x"})
	require.NoError(t, err)

	_, err = v.VerifyToken(context.Background(), raw)
	assert.ErrorIs(t, err, errcode.TokenInvalid)
}
