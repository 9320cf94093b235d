package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/server/biz"
)

type AclHandlersParams struct {
	fx.In

	Acls *biz.AclService
}

type AclHandlers struct {
	acls *biz.AclService
}

func NewAclHandlers(params AclHandlersParams) *AclHandlers {
	return &AclHandlers{acls: params.Acls}
}

// SetCellAcl stores the cell root ACL document.
func (h *AclHandlers) SetCellAcl(c *gin.Context) {
	h.setAcl(c, "")
}

// SetBoxAcl stores a box root ACL document.
func (h *AclHandlers) SetBoxAcl(c *gin.Context) {
	h.setAcl(c, c.Param("box"))
}

func (h *AclHandlers) setAcl(c *gin.Context, boxName string) {
	cell, ok := guard(c, h.acls, boxName, privilege.ACL)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		JSONError(c, errcode.AclMalformed.WithParams("empty body"))

		return
	}

	if err := h.acls.SetAcl(c.Request.Context(), cell, boxName, body); err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusOK)
}

// GetCellAcl returns the cell root ACL document as XML.
func (h *AclHandlers) GetCellAcl(c *gin.Context) {
	h.getAcl(c, "")
}

// GetBoxAcl returns a box root ACL document as XML.
func (h *AclHandlers) GetBoxAcl(c *gin.Context) {
	h.getAcl(c, c.Param("box"))
}

func (h *AclHandlers) getAcl(c *gin.Context, boxName string) {
	cell, ok := guard(c, h.acls, boxName, privilege.ACLRead)
	if !ok {
		return
	}

	a, err := h.acls.GetAcl(c.Request.Context(), cell, boxName, false)
	if err != nil {
		JSONError(c, err)

		return
	}

	if a == nil {
		c.Status(http.StatusNotFound)

		return
	}

	body, err := acl.MarshalXML(a)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Data(http.StatusOK, "application/xml", body)
}
