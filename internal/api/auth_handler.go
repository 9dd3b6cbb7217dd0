package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authSvc}
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}

	user, err := h.auth.Register(c.Request().Context(), req.Username, req.DisplayName, req.Password)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID       int64  `json:"user_id,string"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}

	user, pair, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	if req.RefreshToken == "" {
		return errorJSON(c, http.StatusBadRequest, "MISSING_TOKEN", "refresh_token is required")
	}

	pair, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
	}
	if err := h.auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's own profile.
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.auth.GetUser(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return serviceErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
