package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/erisanolasheni/risevest/internal/logging"
	authmw "github.com/erisanolasheni/risevest/internal/middleware/auth"
	"github.com/erisanolasheni/risevest/internal/mykafka"
	"github.com/erisanolasheni/risevest/internal/session"
)

type AuthHandler struct {
	Sessions *session.Service
	Producer *mykafka.Producer
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

func pairResponse(pair *session.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		l.Warn("register_failed", "status", 400, "reason", "missing_fields")
		return echo.NewHTTPError(http.StatusBadRequest, "name, email and password are required")
	}

	user, err := h.Sessions.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, session.ErrEmailTaken.Error())
		}
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, user.ID, map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, session.ErrInvalidCredentials.Error())
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, req.Email, map[string]interface{}{
		"type":  "user_logged_in",
		"email": req.Email,
	})

	return c.JSON(http.StatusOK, pairResponse(pair))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "missing_token")
		return echo.NewHTTPError(http.StatusUnauthorized, session.ErrInvalidRefreshToken.Error())
	}

	pair, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, session.ErrInvalidRefreshToken.Error())
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, pairResponse(pair))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	raw, err := authmw.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		l.Warn("logout_failed", "status", 500, "reason", "missing_header")
		return echo.NewHTTPError(http.StatusInternalServerError, "error during logout")
	}

	if err := h.Sessions.Logout(ctx, raw); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "error during logout")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out successfully"})
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	publishEvent(c, h.Producer, "user_events", key, event)
}
