package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/server/biz"
)

type PropHandlersParams struct {
	fx.In

	Acls   *biz.AclService
	Graph  *biz.GraphService
	Config biz.Config
}

type PropHandlers struct {
	acls     *biz.AclService
	graph    *biz.GraphService
	unitBase string
}

func NewPropHandlers(params PropHandlersParams) *PropHandlers {
	return &PropHandlers{
		acls:     params.Acls,
		graph:    params.Graph,
		unitBase: params.Config.Unit.BaseURL,
	}
}

// PropResponse is the resolved property view of a cell or box. Acl is only
// present when the caller holds acl-read on the resource.
type PropResponse struct {
	Name   string   `json:"Name"`
	URL    string   `json:"Url"`
	Schema string   `json:"Schema,omitempty"`
	Acl    *acl.Acl `json:"Acl,omitempty"`
}

// GetCellProp returns the cell's resolved properties.
func (h *PropHandlers) GetCellProp(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Read)
	if !ok {
		return
	}

	resp := PropResponse{
		Name: cell.Name,
		URL:  cell.URL(h.unitBase),
	}

	h.attachAcl(c, &resp, "")

	c.JSON(http.StatusOK, resp)
}

// GetBoxProp returns a box's resolved properties.
func (h *PropHandlers) GetBoxProp(c *gin.Context) {
	boxName := c.Param("box")

	cell, ok := guard(c, h.acls, boxName, privilege.Read)
	if !ok {
		return
	}

	box, err := h.graph.GetBox(c.Request.Context(), cell, boxName)
	if err != nil {
		JSONError(c, err)

		return
	}

	resp := PropResponse{
		Name:   box.Name,
		URL:    cell.URL(h.unitBase) + box.Name + "/",
		Schema: xuri.ToHTTP(h.unitBase, box.Schema),
	}

	h.attachAcl(c, &resp, boxName)

	c.JSON(http.StatusOK, resp)
}

// attachAcl adds the resolved ACL when the caller is allowed to see it.
// Lacking acl-read trims the field rather than failing the request.
func (h *PropHandlers) attachAcl(c *gin.Context, resp *PropResponse, boxName string) {
	ctx := c.Request.Context()

	cell, ok := currentCell(c)
	if !ok {
		return
	}

	if err := h.acls.Authorize(ctx, cell, boxName, currentClaims(c), privilege.ACLRead, c.Query("schema")); err != nil {
		return
	}

	a, err := h.acls.GetAcl(ctx, cell, boxName, false)
	if err != nil {
		return
	}

	resp.Acl = a
}
