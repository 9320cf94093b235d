package biz

import (
	"context"

	"go.uber.org/fx"
	"golang.org/x/crypto/bcrypt"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/token"
)

type AuthServiceParams struct {
	fx.In

	Verifier token.Verifier
	Config   Config
}

// AuthService verifies bearer tokens and signs unit-administrator tokens
// for the configured admin accounts.
type AuthService struct {
	verifier token.Verifier
	signer   *token.JWTVerifier
	config   AuthConfig
	unitBase string
}

func NewAuthService(params AuthServiceParams) *AuthService {
	return &AuthService{
		verifier: params.Verifier,
		signer:   token.NewJWTVerifier(params.Config.Auth.JWTSecret),
		config:   params.Config.Auth,
		unitBase: params.Config.Unit.BaseURL,
	}
}

// Authenticate verifies a raw bearer token.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*token.Claims, error) {
	return s.verifier.VerifyToken(ctx, raw)
}

// SignInAdmin checks the credentials against the configured admin accounts
// and returns a signed unit-admin token.
func (s *AuthService) SignInAdmin(_ context.Context, username, password string) (string, error) {
	for _, admin := range s.config.Admins {
		if admin.Username != username {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
			break
		}

		return s.signer.SignToken(&token.Claims{
			Issuer:    s.unitBase,
			Subject:   username,
			UnitAdmin: true,
		})
	}

	return "", errcode.AuthnRequired
}
