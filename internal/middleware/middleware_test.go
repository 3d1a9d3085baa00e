package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/utils"
)

const secret = "test-secret"

func serve(t *testing.T, mw echo.MiddlewareFunc, auth string) (*httptest.ResponseRecorder, booking.Caller) {
	t.Helper()
	e := echo.New()
	var got booking.Caller
	e.GET("/x", func(c echo.Context) error {
		got = CallerFrom(c)
		return c.NoContent(http.StatusNoContent)
	}, mw)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, got
}

func TestJWTAuthResolvesCaller(t *testing.T) {
	tok, err := utils.NewAccessToken(secret, 42, model.RoleAdmin, 5)
	require.NoError(t, err)

	rec, caller := serve(t, JWTAuth(secret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, booking.Caller{ID: 42, IsAdmin: true}, caller)

	tok, err = utils.NewAccessToken(secret, 7, model.RoleUser, 5)
	require.NoError(t, err)
	_, caller = serve(t, JWTAuth(secret), "Bearer "+tok.Token)
	assert.Equal(t, booking.Caller{ID: 7}, caller)
}

func TestJWTAuthRejects(t *testing.T) {
	rec, _ := serve(t, JWTAuth(secret), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := utils.NewAccessToken("other", 42, model.RoleAdmin, 5)
	require.NoError(t, err)
	rec, _ = serve(t, JWTAuth(secret), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWT(t *testing.T) {
	rec, caller := serve(t, OptionalJWT(secret), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, caller.Authenticated())

	rec, _ = serve(t, OptionalJWT(secret), "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	user, err := utils.NewAccessToken(secret, 7, model.RoleUser, 5)
	require.NoError(t, err)
	chain := func(next echo.HandlerFunc) echo.HandlerFunc {
		return JWTAuth(secret)(RequireRole(model.RoleAdmin)(next))
	}
	rec, _ := serve(t, chain, "Bearer "+user.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
