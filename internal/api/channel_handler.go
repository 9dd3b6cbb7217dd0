package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/service"
)

type ChannelHandler struct {
	channels *service.ChannelService
}

func NewChannelHandler(channels *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

type createChannelRequest struct {
	Name  string             `json:"name"`
	Type  models.ChannelType `json:"type"`
	Topic *string            `json:"topic"`
}

func (h *ChannelHandler) Create(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	var req createChannelRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	channel, err := h.channels.Create(c.Request().Context(), auth.GetUserID(c), service.CreateChannelParams{
		GuildID: guildID,
		Name:    req.Name,
		Type:    req.Type,
		Topic:   req.Topic,
	})
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, channel)
}

func (h *ChannelHandler) Get(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	channel, err := h.channels.Get(c.Request().Context(), channelID, auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, channel)
}

type updateChannelRequest struct {
	Name     *string `json:"name"`
	Topic    *string `json:"topic"`
	Position *int    `json:"position"`
}

func (h *ChannelHandler) Update(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	var req updateChannelRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	channel, err := h.channels.Update(c.Request().Context(), channelID, auth.GetUserID(c), service.UpdateChannelParams{
		Name:     req.Name,
		Topic:    req.Topic,
		Position: req.Position,
	})
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, channel)
}

func (h *ChannelHandler) Delete(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	if err := h.channels.Delete(c.Request().Context(), channelID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type setOverwriteRequest struct {
	TargetKind models.OverwriteTarget `json:"target_kind"`
	Allow      int64                  `json:"allow,string"`
	Deny       int64                  `json:"deny,string"`
}

func (h *ChannelHandler) SetOverwrite(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "target_id")
	if err != nil {
		return err
	}
	var req setOverwriteRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	ow, err := h.channels.SetOverwrite(c.Request().Context(), channelID, auth.GetUserID(c), service.SetOverwriteParams{
		TargetID:   targetID,
		TargetKind: req.TargetKind,
		Allow:      req.Allow,
		Deny:       req.Deny,
	})
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, ow)
}

func (h *ChannelHandler) DeleteOverwrite(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "target_id")
	if err != nil {
		return err
	}
	if err := h.channels.DeleteOverwrite(c.Request().Context(), channelID, auth.GetUserID(c), targetID); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type openDMRequest struct {
	RecipientID int64 `json:"recipient_id,string"`
}

func (h *ChannelHandler) OpenDM(c echo.Context) error {
	var req openDMRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	channel, err := h.channels.OpenDM(c.Request().Context(), auth.GetUserID(c), req.RecipientID)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, channel)
}

type bulkDeleteRequest struct {
	MessageIDs []int64 `json:"message_ids"`
}

// BulkDeleteMessages removes a batch of messages from the channel. The
// request carries up to 200 message IDs.
func (h *ChannelHandler) BulkDeleteMessages(c echo.Context) error {
	channelID, err := pathID(c, "channel_id")
	if err != nil {
		return err
	}
	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	if len(req.MessageIDs) == 0 {
		return errorJSON(c, http.StatusBadRequest, "EMPTY_BATCH", "message_ids is required")
	}
	if len(req.MessageIDs) > 200 {
		return errorJSON(c, http.StatusBadRequest, "BATCH_TOO_LARGE", "at most 200 messages per request")
	}
	if err := h.channels.DeleteMessages(c.Request().Context(), channelID, auth.GetUserID(c), req.MessageIDs); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
