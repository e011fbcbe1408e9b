package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/erisanolasheni/risevest/internal/logging"
	"github.com/erisanolasheni/risevest/internal/session"
	"github.com/erisanolasheni/risevest/internal/token"
)

var errNoBearer = errors.New("no bearer token")

// Gate authenticates each request: bearer extraction, revocation check,
// signature verification, then a liveness check on the subject. Every
// rejection is a 401; only collaborator faults become 500.
type Gate struct {
	Issuer    *token.Issuer
	Blacklist *session.Blacklist
	Users     session.UserDirectory
}

func (g *Gate) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "require_login")

		raw, err := ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header")
		}

		revoked, err := g.Blacklist.Contains(ctx, raw)
		if err != nil {
			l.Error("auth_check_failed", "reason", "blacklist_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if revoked {
			l.Warn("auth_rejected", "reason", "revoked")
			return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
		}

		claims, err := g.Issuer.Verify(raw)
		if err != nil {
			l.Warn("auth_rejected", "reason", "invalid_token")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		user, err := g.Users.ByID(ctx, claims.UserID)
		if err != nil {
			l.Error("auth_check_failed", "reason", "directory_error", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if user == nil {
			// Subject deleted after issuance; indistinguishable from a bad
			// token on the wire.
			l.Warn("auth_rejected", "reason", "subject_gone", "user_id", claims.UserID)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		return next(c)
	}
}

// ExtractBearer pulls the token out of an "Authorization: Bearer <token>"
// header value.
func ExtractBearer(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errNoBearer
	}
	raw := strings.TrimPrefix(header, prefix)
	if raw == "" {
		return "", errNoBearer
	}
	return raw, nil
}

// UserID returns the authenticated subject set by RequireLogin.
func UserID(c echo.Context) string {
	id, _ := c.Get("userID").(string)
	return id
}
