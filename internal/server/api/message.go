package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/errcode"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/privilege"
	"github.com/looplj/cellhub/internal/server/biz"
)

type MessageHandlersParams struct {
	fx.In

	Messages *biz.MessageService
	Approval *biz.ApprovalService
	Acls     *biz.AclService
}

type MessageHandlers struct {
	messages *biz.MessageService
	approval *biz.ApprovalService
	acls     *biz.AclService
}

func NewMessageHandlers(params MessageHandlersParams) *MessageHandlers {
	return &MessageHandlers{
		messages: params.Messages,
		approval: params.Approval,
		acls:     params.Acls,
	}
}

// Receive is the inter-cell inbound port. Delivering units call it without
// a local token; validation of the payload is the admission control.
func (h *MessageHandlers) Receive(c *gin.Context) {
	cell, ok := currentCell(c)
	if !ok {
		return
	}

	var m message.Received
	if err := c.ShouldBindJSON(&m); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	stored, err := h.messages.Receive(c.Request.Context(), cell, &m)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, stored)
}

// CommandRequest is the body of a lifecycle command on a received message.
type CommandRequest struct {
	Command string `json:"Command"`
}

// Command applies read/unread/approved/rejected to a received message.
func (h *MessageHandlers) Command(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Message)
	if !ok {
		return
	}

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, errcode.MessageCommandInvalid.WithParams("Command"))

		return
	}

	err := h.approval.Command(c.Request.Context(), cell, c.Param("id"), message.Command(req.Command))
	if err != nil {
		JSONError(c, err)

		return
	}

	c.Status(http.StatusNoContent)
}

// Send fans a message out to its recipients.
func (h *MessageHandlers) Send(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.Message)
	if !ok {
		return
	}

	var m message.Sent
	if err := c.ShouldBindJSON(&m); err != nil {
		JSONError(c, errcode.RequestMalformed.WithParams("body"))

		return
	}

	sent, err := h.messages.Send(c.Request.Context(), cell, &m)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusCreated, sent)
}

func (h *MessageHandlers) ListReceived(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.MessageRead)
	if !ok {
		return
	}

	msgs, err := h.messages.ListReceived(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"Messages": msgs})
}

func (h *MessageHandlers) GetReceived(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.MessageRead)
	if !ok {
		return
	}

	m, err := h.messages.GetReceived(c.Request.Context(), cell, c.Param("id"))
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, m)
}

func (h *MessageHandlers) ListSent(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.MessageRead)
	if !ok {
		return
	}

	msgs, err := h.messages.ListSent(c.Request.Context(), cell)
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"Messages": msgs})
}

func (h *MessageHandlers) GetSent(c *gin.Context) {
	cell, ok := guard(c, h.acls, "", privilege.MessageRead)
	if !ok {
		return
	}

	m, err := h.messages.GetSent(c.Request.Context(), cell, c.Param("id"))
	if err != nil {
		JSONError(c, err)

		return
	}

	c.JSON(http.StatusOK, m)
}
