package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/looplj/cellhub/internal/build"
)

// SystemHandlers answers the unauthenticated unit endpoints.
type SystemHandlers struct{}

func NewSystemHandlers() *SystemHandlers {
	return &SystemHandlers{}
}

func (h *SystemHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, build.GetBuildInfo())
}
