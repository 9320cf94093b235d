package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/looplj/cellhub/internal/errcode"
)

func TestAccountSignIn(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	_, err := env.accounts.CreateAccount(ctx, cell, "staff", "s3cret")
	require.NoError(t, err)

	_, err = env.graph.CreateRole(ctx, cell, "", "admin")
	require.NoError(t, err)
	require.NoError(t, env.accounts.LinkRole(ctx, cell, "staff", "", "admin"))

	raw, err := env.accounts.SignIn(ctx, cell, "staff", "s3cret")
	require.NoError(t, err)

	claims, err := newTestVerifier().VerifyToken(ctx, raw)
	require.NoError(t, err)
	require.Equal(t, "https://unit.example/bob/", claims.Issuer)
	require.Equal(t, []string{"https://unit.example/bob/__role/__/admin"}, claims.Roles)
	require.False(t, claims.UnitAdmin)
}

func TestAccountSignIn_BadCredentials(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	_, err := env.accounts.CreateAccount(ctx, cell, "staff", "s3cret")
	require.NoError(t, err)

	_, err = env.accounts.SignIn(ctx, cell, "staff", "wrong")
	require.ErrorIs(t, err, errcode.AuthnRequired)

	_, err = env.accounts.SignIn(ctx, cell, "nobody", "s3cret")
	require.ErrorIs(t, err, errcode.AuthnRequired)
}

func TestAccountRoleUnlink(t *testing.T) {
	env, _ := newTestEnv(t)
	ctx := context.Background()
	cell := env.mustCell(t, "bob")

	_, err := env.accounts.CreateAccount(ctx, cell, "staff", "s3cret")
	require.NoError(t, err)
	_, err = env.graph.CreateRole(ctx, cell, "", "admin")
	require.NoError(t, err)

	require.NoError(t, env.accounts.LinkRole(ctx, cell, "staff", "", "admin"))
	require.NoError(t, env.accounts.UnlinkRole(ctx, cell, "staff", "", "admin"))
	// Unlinking again is a no-op.
	require.NoError(t, env.accounts.UnlinkRole(ctx, cell, "staff", "", "admin"))

	raw, err := env.accounts.SignIn(ctx, cell, "staff", "s3cret")
	require.NoError(t, err)

	claims, err := newTestVerifier().VerifyToken(ctx, raw)
	require.NoError(t, err)
	require.Empty(t, claims.Roles)
}

func TestAdminSignIn(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	auth := NewAuthService(AuthServiceParams{
		Verifier: newTestVerifier(),
		Config: Config{
			Unit: UnitConfig{BaseURL: testUnitBase},
			Auth: AuthConfig{
				JWTSecret: "test-secret",
				Admins:    []AdminAccount{{Username: "root", PasswordHash: string(hash)}},
			},
		},
	})

	ctx := context.Background()

	raw, err := auth.SignInAdmin(ctx, "root", "letmein")
	require.NoError(t, err)

	claims, err := auth.Authenticate(ctx, raw)
	require.NoError(t, err)
	require.True(t, claims.UnitAdmin)

	_, err = auth.SignInAdmin(ctx, "root", "wrong")
	require.ErrorIs(t, err, errcode.AuthnRequired)
}
