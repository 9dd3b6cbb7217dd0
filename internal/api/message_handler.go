package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) Send(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	msg, err := h.messages.Send(c.Request().Context(), channelID, auth.GetUserID(c), req.Content)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// List returns one page of messages, newest first. Optional before and
// after query params are exclusive snowflake cursors.
func (h *MessageHandler) List(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}

	var before, after *int64
	if v := c.QueryParam("before"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "INVALID_CURSOR", "before must be a snowflake")
		}
		before = &id
	}
	if v := c.QueryParam("after"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "INVALID_CURSOR", "after must be a snowflake")
		}
		after = &id
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	msgs, err := h.messages.List(c.Request().Context(), channelID, auth.GetUserID(c), before, after, limit)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) Get(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	messageID, err := pathID(c, "message_id")
	if err != nil {
		return err
	}
	msg, err := h.messages.Get(c.Request().Context(), channelID, messageID, auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) Edit(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	messageID, err := pathID(c, "message_id")
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	msg, err := h.messages.Edit(c.Request().Context(), channelID, messageID, auth.GetUserID(c), req.Content)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) Delete(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	messageID, err := pathID(c, "message_id")
	if err != nil {
		return err
	}
	if err := h.messages.Delete(c.Request().Context(), channelID, messageID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
