// Package api holds the gin handlers of the cell platform's HTTP surface.
// Handlers bind requests, call the biz services and map errors to the
// standard JSON shape; authorization runs through the guard helper so every
// cell-scoped route goes through the same admission sequence.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/contexts"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/server/biz"
	"github.com/looplj/cellhub/internal/token"
)

// guard runs the admission sequence for the resolved cell and required
// privilege. It returns the cell on success and writes the error response
// itself on failure.
func guard(c *gin.Context, acls *biz.AclService, boxName string, required privilege.Privilege) (*graph.Cell, bool) {
	cell, ok := contexts.GetCell(c.Request.Context())
	if !ok {
		JSONError(c, errcode.CellNotFound.WithParams(c.Param("cell")))

		return nil, false
	}

	claims, _ := contexts.GetClaims(c.Request.Context())

	err := acls.Authorize(c.Request.Context(), cell, boxName, claims, required, c.Query("schema"))
	if err != nil {
		JSONError(c, err)

		return nil, false
	}

	return cell, true
}

func currentCell(c *gin.Context) (*graph.Cell, bool) {
	cell, ok := contexts.GetCell(c.Request.Context())
	if !ok {
		JSONError(c, errcode.CellNotFound.WithParams(c.Param("cell")))
	}

	return cell, ok
}

func currentClaims(c *gin.Context) *token.Claims {
	claims, _ := contexts.GetClaims(c.Request.Context())

	return claims
}
