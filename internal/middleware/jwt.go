package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
)

// JWTAuth validates a Bearer access token and stores the resulting
// booking.Caller in the context, along with the raw "user_id" and "role"
// claims.  Requests without a valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return authenticate(secret, true)
}

// OptionalJWT behaves like JWTAuth when an Authorization header is sent
// and lets anonymous requests through as the zero Caller otherwise.
// A malformed or expired token is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return authenticate(secret, false)
}

func authenticate(secret string, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" && !required {
				c.Set(callerKey, booking.Caller{})
				return next(c)
			}
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			caller, role, err := ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set("user_id", strconv.FormatUint(caller.ID, 10))
			c.Set("role", role)
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// ParseAccessToken verifies an HS256 token and resolves the caller it
// identifies.  The admin capability comes from the role claim.
func ParseAccessToken(secret, raw string) (booking.Caller, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return booking.Caller{}, "", fmt.Errorf("invalid token: %v", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return booking.Caller{}, "", fmt.Errorf("invalid claims")
	}
	id, err := subject(claims["sub"])
	if err != nil {
		return booking.Caller{}, "", err
	}
	role, _ := claims["role"].(string)
	return booking.Caller{ID: id, IsAdmin: role == model.RoleAdmin}, role, nil
}

// subject accepts the numeric form written by utils.NewAccessToken and
// the string form other issuers use.
func subject(v any) (uint64, error) {
	switch t := v.(type) {
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if id, err := strconv.ParseUint(t, 10, 64); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("invalid sub claim %v", v)
}
