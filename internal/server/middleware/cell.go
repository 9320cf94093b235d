package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/contexts"
	"github.com/looplj/cellhub/internal/server/biz"
)

// WithCellResolution resolves the :cell path segment into the cell entity
// on the request context. Unknown cells are 404 before any handler runs.
func WithCellResolution(cells *biz.CellService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cell, err := cells.ResolveCell(c.Request.Context(), c.Param("cell"))
		if err != nil {
			AbortWithError(c, err)

			return
		}

		c.Request = c.Request.WithContext(contexts.WithCell(c.Request.Context(), cell))
		c.Next()
	}
}
