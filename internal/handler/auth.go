package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/service"
)

// AuthHandler exposes login and the current account.
type AuthHandler struct {
	Auth *service.AuthService
}

// NewAuthHandler wires the auth service into a handler.
func NewAuthHandler(a *service.AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email" validate:"required,max=190,email"`
	Password string `json:"password" validate:"required"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type loginResp struct {
	User   userView  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login verifies email and password and returns an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	tok, u, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResp{
		User:   newUserView(u),
		Access: tokenPart{Token: tok.Token, Expires: tok.Exp},
	})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.Me(ctx, middleware.CallerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserView(u))
}
