package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/server/biz"
)

type AuthHandlersParams struct {
	fx.In

	Auth     *biz.AuthService
	Accounts *biz.AccountService
}

// AuthHandlers issues tokens: unit administrator sign-in at the unit root and
// account sign-in under each cell.
type AuthHandlers struct {
	auth     *biz.AuthService
	accounts *biz.AccountService
}

func NewAuthHandlers(params AuthHandlersParams) *AuthHandlers {
	return &AuthHandlers{
		auth:     params.Auth,
		accounts: params.Accounts,
	}
}

type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AdminToken answers POST /__token with a unit administrator token.
func (h *AuthHandlers) AdminToken(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	signed, err := h.auth.SignInAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: signed, TokenType: "Bearer"})
}

// CellToken answers POST /:cell/__token with a token for one of the cell's
// accounts. The signed-in subject carries the account's role URLs.
func (h *AuthHandlers) CellToken(c *gin.Context) {
	cell, ok := currentCell(c)
	if !ok {
		return
	}

	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	signed, err := h.accounts.SignIn(c.Request.Context(), cell, req.Username, req.Password)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: signed, TokenType: "Bearer"})
}
