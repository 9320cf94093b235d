package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/pkg/xuri"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/server/biz"
)

type CellCtlHandlersParams struct {
	fx.In

	Cells    *biz.CellService
	Graph    *biz.GraphService
	Accounts *biz.AccountService
	Acls     *biz.AclService
	Config   biz.Config
}

// CellCtlHandlers exposes the control surface: cell management at the unit
// level and Box/Role/Relation/ExtCell/Account management under a cell.
type CellCtlHandlers struct {
	cells    *biz.CellService
	graph    *biz.GraphService
	accounts *biz.AccountService
	acls     *biz.AclService
	unitBase string
}

func NewCellCtlHandlers(params CellCtlHandlersParams) *CellCtlHandlers {
	return &CellCtlHandlers{
		cells:    params.Cells,
		graph:    params.Graph,
		accounts: params.Accounts,
		acls:     params.Acls,
		unitBase: params.Config.Unit.BaseURL,
	}
}

// --- cells (unit level, behind RequireUnitAdmin) ---

type CreateCellRequest struct {
	Name     string `json:"Name"     binding:"required"`
	OwnerURL string `json:"OwnerUrl"`
}

type CellResponse struct {
	Name     string `json:"Name"`
	URL      string `json:"Url"`
	OwnerURL string `json:"OwnerUrl,omitempty"`
}

func (h *CellCtlHandlers) cellResponse(cell *graph.Cell) CellResponse {
	return CellResponse{
		Name:     cell.Name,
		URL:      cell.URL(h.unitBase),
		OwnerURL: cell.OwnerURL,
	}
}

func (h *CellCtlHandlers) CreateCell(c *gin.Context) {
	var req CreateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	cell, err := h.cells.CreateCell(c.Request.Context(), req.Name, req.OwnerURL)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, h.cellResponse(cell))
}

func (h *CellCtlHandlers) ListCells(c *gin.Context) {
	cells, err := h.cells.ListCells(c.Request.Context())
	if err != nil {
		JSONError(c, err)

		return
	}

	out := make([]CellResponse, 0, len(cells))
	for _, cell := range cells {
		out = append(out, h.cellResponse(cell))
	}

	c.JSON(http.StatusOK, gin.H{"Cells": out})
}

func (h *CellCtlHandlers) DeleteCell(c *gin.Context) {
	if err := h.cells.DeleteCell(c.Request.Context(), c.Param("cell")); err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// --- boxes ---

type CreateBoxRequest struct {
	Name   string `json:"Name"   binding:"required"`
	Schema string `json:"Schema"`
}

type BoxResponse struct {
	Name   string `json:"Name"`
	URL    string `json:"Url"`
	Schema string `json:"Schema,omitempty"`
}

func (h *CellCtlHandlers) boxResponse(cell *graph.Cell, box *graph.Box) BoxResponse {
	return BoxResponse{
		Name:   box.Name,
		URL:    cell.URL(h.unitBase) + box.Name + "/",
		Schema: xuri.ToHTTP(h.unitBase, box.Schema),
	}
}

func (h *CellCtlHandlers) CreateBox(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Box)
	if !ok {
		return
	}

	var req CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	box, err := h.graph.CreateBox(c.Request.Context(), cell, req.Name, req.Schema)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, h.boxResponse(cell, box))
}

func (h *CellCtlHandlers) ListBoxes(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.BoxRead)
	if !ok {
		return
	}

	boxes, err := h.graph.ListBoxes(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	out := make([]BoxResponse, 0, len(boxes))
	for _, box := range boxes {
		out = append(out, h.boxResponse(cell, box))
	}

	c.JSON(http.StatusOK, gin.H{"Boxes": out})
}

func (h *CellCtlHandlers) DeleteBox(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Box)
	if !ok {
		return
	}

	if err := h.graph.DeleteBox(c.Request.Context(), cell, c.Param("box")); err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// --- roles ---

type CreateScopedRequest struct {
	Name    string `json:"Name" binding:"required"`
	BoxName string `json:"_Box.Name"`
}

// ScopedResponse is the wire shape of a role or relation.
type ScopedResponse struct {
	Name    string `json:"Name"`
	BoxName string `json:"_Box.Name,omitempty"`
	URL     string `json:"Url"`
}

func (h *CellCtlHandlers) CreateRole(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Auth)
	if !ok {
		return
	}

	var req CreateScopedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	role, err := h.graph.CreateRole(c.Request.Context(), cell, req.BoxName, req.Name)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, ScopedResponse{
		Name:    role.Name,
		BoxName: role.BoxName,
		URL:     role.URL(cell.URL(h.unitBase)),
	})
}

func (h *CellCtlHandlers) ListRoles(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.AuthRead)
	if !ok {
		return
	}

	roles, err := h.graph.ListRoles(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	cellURL := cell.URL(h.unitBase)
	out := make([]ScopedResponse, 0, len(roles))

	for _, role := range roles {
		out = append(out, ScopedResponse{Name: role.Name, BoxName: role.BoxName, URL: role.URL(cellURL)})
	}

	c.JSON(http.StatusOK, gin.H{"Roles": out})
}

func (h *CellCtlHandlers) DeleteRole(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Auth)
	if !ok {
		return
	}

	err := h.graph.DeleteRole(c.Request.Context(), cell, boxSegment(c.Param("box")), c.Param("name"))
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// --- relations ---

func (h *CellCtlHandlers) CreateRelation(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	var req CreateScopedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	rel, err := h.graph.CreateRelation(c.Request.Context(), cell, req.BoxName, req.Name)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, ScopedResponse{
		Name:    rel.Name,
		BoxName: rel.BoxName,
		URL:     rel.URL(cell.URL(h.unitBase)),
	})
}

func (h *CellCtlHandlers) ListRelations(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.SocialRead)
	if !ok {
		return
	}

	rels, err := h.graph.ListRelations(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	cellURL := cell.URL(h.unitBase)
	out := make([]ScopedResponse, 0, len(rels))

	for _, rel := range rels {
		out = append(out, ScopedResponse{Name: rel.Name, BoxName: rel.BoxName, URL: rel.URL(cellURL)})
	}

	c.JSON(http.StatusOK, gin.H{"Relations": out})
}

func (h *CellCtlHandlers) DeleteRelation(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	err := h.graph.DeleteRelation(c.Request.Context(), cell, boxSegment(c.Param("box")), c.Param("name"))
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// --- ext cells ---

type CreateExtCellRequest struct {
	URL string `json:"Url" binding:"required"`
}

func (h *CellCtlHandlers) CreateExtCell(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	var req CreateExtCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	ec, err := h.graph.CreateExtCell(c.Request.Context(), cell, req.URL)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, ExtCellResponse{URL: ec.URL})
}

type ExtCellResponse struct {
	URL string `json:"Url"`
}

func (h *CellCtlHandlers) ListExtCells(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.SocialRead)
	if !ok {
		return
	}

	ecs, err := h.graph.ListExtCells(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	out := make([]ExtCellResponse, 0, len(ecs))
	for _, ec := range ecs {
		out = append(out, ExtCellResponse{URL: ec.URL})
	}

	c.JSON(http.StatusOK, gin.H{"ExtCells": out})
}

func (h *CellCtlHandlers) DeleteExtCell(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	if err := h.graph.DeleteExtCell(c.Request.Context(), cell, c.Query("url")); err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// --- $links ---

// ListRelationExtCellLinks answers
// GET /:cell/__ctl/Relation/:box/:name/$links/ExtCell.
func (h *CellCtlHandlers) ListRelationExtCellLinks(c *gin.Context) {
	h.listLinks(c, graph.LinkRelationExtCell)
}

// ListRoleExtCellLinks answers the Role form of the $links listing.
func (h *CellCtlHandlers) ListRoleExtCellLinks(c *gin.Context) {
	h.listLinks(c, graph.LinkRoleExtCell)
}

func (h *CellCtlHandlers) listLinks(c *gin.Context, kind graph.LinkKind) {
	cell, ok := guard(c, h.acls, "", privilege.SocialRead)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	boxName := boxSegment(c.Param("box"))
	name := c.Param("name")

	var fromID string

	if kind == graph.LinkRelationExtCell {
		rel, err := h.graph.GetRelation(ctx, cell, boxName, name)
		if err != nil {
			JSONError(c, err)

			return
		}

		fromID = rel.ID
	} else {
		role, err := h.graph.GetRole(ctx, cell, boxName, name)
		if err != nil {
			JSONError(c, err)

			return
		}

		fromID = role.ID
	}

	urls, err := h.graph.LinkedExtCellURLs(ctx, cell, kind, fromID)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"ExtCells": urls})
}

// ListRelationRoleLinks answers
// GET /:cell/__ctl/Relation/:box/:name/$links/Role.
func (h *CellCtlHandlers) ListRelationRoleLinks(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.SocialRead)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	rel, err := h.graph.GetRelation(ctx, cell, boxSegment(c.Param("box")), c.Param("name"))
	if err != nil {
		JSONError(c, err)

		return
	}

	urls, err := h.graph.LinkedRoleURLs(ctx, cell, rel.ID)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"Roles": urls})
}

type RelationRoleLinkRequest struct {
	RoleName string `json:"RoleName" binding:"required"`
	BoxName  string `json:"_Box.Name"`
}

// LinkRelationRole links a relation to a role of the cell.
func (h *CellCtlHandlers) LinkRelationRole(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	var req RelationRoleLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	err := h.graph.LinkRelationRole(c.Request.Context(), cell,
		boxSegment(c.Param("box")), c.Param("name"), req.BoxName, req.RoleName)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// UnlinkRelationRole removes a relation to role link.
func (h *CellCtlHandlers) UnlinkRelationRole(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	var req RelationRoleLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	err := h.graph.UnlinkRelationRole(c.Request.Context(), cell,
		boxSegment(c.Param("box")), c.Param("name"), req.BoxName, req.RoleName)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

type LinkExtCellRequest struct {
	URL string `json:"Url" binding:"required"`
}

// LinkRelationExtCell creates a Relation to ExtCell link.
func (h *CellCtlHandlers) LinkRelationExtCell(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	var req LinkExtCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	err := h.graph.LinkRelationExtCell(c.Request.Context(), cell, boxSegment(c.Param("box")), c.Param("name"), req.URL)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// UnlinkRelationExtCell removes a Relation to ExtCell link.
func (h *CellCtlHandlers) UnlinkRelationExtCell(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Social)
	if !ok {
		return
	}

	err := h.graph.UnlinkRelationExtCell(c.Request.Context(), cell, boxSegment(c.Param("box")), c.Param("name"), c.Query("url"))
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// --- accounts ---

type CreateAccountRequest struct {
	Name     string `json:"Name"     binding:"required"`
	Password string `json:"Password" binding:"required"`
}

type AccountResponse struct {
	Name string `json:"Name"`
	URL  string `json:"Url"`
}

func (h *CellCtlHandlers) CreateAccount(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Auth)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), cell, req.Name, req.Password)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, AccountResponse{
		Name: account.Name,
		URL:  account.URL(cell.URL(h.unitBase)),
	})
}

func (h *CellCtlHandlers) ListAccounts(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.AuthRead)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	cellURL := cell.URL(h.unitBase)
	out := make([]AccountResponse, 0, len(accounts))

	for _, a := range accounts {
		out = append(out, AccountResponse{Name: a.Name, URL: a.URL(cellURL)})
	}

	c.JSON(http.StatusOK, gin.H{"Accounts": out})
}

func (h *CellCtlHandlers) DeleteAccount(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Auth)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), cell, c.Param("name")); err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

type AccountRoleLinkRequest struct {
	RoleName string `json:"RoleName" binding:"required"`
	BoxName  string `json:"_Box.Name"`
}

// LinkAccountRole grants a role to an account.
func (h *CellCtlHandlers) LinkAccountRole(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Auth)
	if !ok {
		return
	}

	var req AccountRoleLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	err := h.accounts.LinkRole(c.Request.Context(), cell, c.Param("name"), req.BoxName, req.RoleName)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// UnlinkAccountRole revokes a role from an account.
func (h *CellCtlHandlers) UnlinkAccountRole(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Auth)
	if !ok {
		return
	}

	var req AccountRoleLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	err := h.accounts.UnlinkRole(c.Request.Context(), cell, c.Param("name"), req.BoxName, req.RoleName)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// boxSegment maps the "__" path segment to the unscoped form.
func boxSegment(segment string) string {
	if segment == "__" {
		return ""
	}

	return segment
}
