package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const SubjectKey contextKey = "admin_subject"

// AdminSecretHeader carries the raw shared secret.
const AdminSecretHeader = "X-Admin-Secret"

// Middleware admits requests carrying the admin secret (header or Bearer) or
// a valid Bearer token, and records the caller's subject in the context.
func (a *Authenticator) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.CheckSecret(c.Request().Header.Get(AdminSecretHeader)) {
			c.Set(string(SubjectKey), "admin")
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}
		credential := strings.TrimSpace(parts[1])

		if a.CheckSecret(credential) {
			c.Set(string(SubjectKey), "admin")
			return next(c)
		}

		subject, err := a.VerifyToken(credential)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}
		c.Set(string(SubjectKey), subject)
		return next(c)
	}
}

// SubjectFromContext returns who passed the admin check.
func SubjectFromContext(c echo.Context) (string, error) {
	subject, ok := c.Get(string(SubjectKey)).(string)
	if !ok || subject == "" {
		return "", errors.New("subject not found in context")
	}
	return subject, nil
}
