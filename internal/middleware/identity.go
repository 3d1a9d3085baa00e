package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/booking"
)

const callerKey = "caller"

// CallerFrom returns the caller resolved by JWTAuth or OptionalJWT.
// Routes without either middleware act as anonymous.
func CallerFrom(c echo.Context) booking.Caller {
	if v, ok := c.Get(callerKey).(booking.Caller); ok {
		return v
	}
	return booking.Caller{}
}

// currentUserID is the rate limit and cache identity of a request.
func currentUserID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	return "anon"
}
