package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/service"
)

type GuildHandler struct {
	guilds *service.GuildService
}

func NewGuildHandler(guilds *service.GuildService) *GuildHandler {
	return &GuildHandler{guilds: guilds}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
	}
	return id, nil
}

type createGuildRequest struct {
	Name string `json:"name"`
}

func (h *GuildHandler) Create(c echo.Context) error {
	var req createGuildRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	guild, err := h.guilds.Create(c.Request().Context(), auth.GetUserID(c), req.Name)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, guild)
}

func (h *GuildHandler) List(c echo.Context) error {
	guilds, err := h.guilds.ListForUser(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, guilds)
}

func (h *GuildHandler) Get(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	guild, err := h.guilds.Get(c.Request().Context(), guildID, auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, guild)
}

func (h *GuildHandler) Delete(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	if err := h.guilds.Delete(c.Request().Context(), guildID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuildHandler) ListChannels(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	channels, err := h.guilds.ListChannels(c.Request().Context(), guildID, auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, channels)
}

func (h *GuildHandler) Join(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	member, err := h.guilds.Join(c.Request().Context(), guildID, auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *GuildHandler) Leave(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	if err := h.guilds.Leave(c.Request().Context(), guildID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuildHandler) ListMembers(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	members, err := h.guilds.ListMembers(c.Request().Context(), guildID, auth.GetUserID(c), limit, offset)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *GuildHandler) KickMember(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	if err := h.guilds.Kick(c.Request().Context(), guildID, auth.GetUserID(c), targetID); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type roleRequest struct {
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions int64  `json:"permissions,string"`
	Position    int    `json:"position"`
}

func (h *GuildHandler) CreateRole(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	role, err := h.guilds.CreateRole(c.Request().Context(), guildID, auth.GetUserID(c), service.RoleParams{
		Name:        req.Name,
		Color:       req.Color,
		Permissions: req.Permissions,
		Position:    req.Position,
	})
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, role)
}

func (h *GuildHandler) ListRoles(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	roles, err := h.guilds.ListRoles(c.Request().Context(), guildID, auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, roles)
}

func (h *GuildHandler) UpdateRole(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return err
	}
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	role, err := h.guilds.UpdateRole(c.Request().Context(), guildID, roleID, auth.GetUserID(c), service.RoleParams{
		Name:        req.Name,
		Color:       req.Color,
		Permissions: req.Permissions,
		Position:    req.Position,
	})
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, role)
}

func (h *GuildHandler) DeleteRole(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return err
	}
	if err := h.guilds.DeleteRole(c.Request().Context(), guildID, roleID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuildHandler) AssignRole(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return err
	}
	if err := h.guilds.AssignRole(c.Request().Context(), guildID, targetID, roleID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *GuildHandler) UnassignRole(c echo.Context) error {
	guildID, err := pathID(c, "guild_id")
	if err != nil {
		return err
	}
	targetID, err := pathID(c, "user_id")
	if err != nil {
		return err
	}
	roleID, err := pathID(c, "role_id")
	if err != nil {
		return err
	}
	if err := h.guilds.UnassignRole(c.Request().Context(), guildID, targetID, roleID, auth.GetUserID(c)); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
