package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/taxischool/internal/handler"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/queue"
	"github.com/iliyamo/taxischool/internal/repository/inmem"
	"github.com/iliyamo/taxischool/internal/router"
	"github.com/iliyamo/taxischool/internal/service"
	"github.com/iliyamo/taxischool/internal/storage"
	"github.com/iliyamo/taxischool/internal/utils"
)

const secret = "handler-test-secret"

type api struct {
	e     *echo.Echo
	store *inmem.Store
	blobs *storage.Memory
}

func newAPI(t *testing.T) *api {
	t.Helper()
	st := inmem.New()
	blobs := storage.NewMemory()
	log := zap.NewNop()
	n := queue.NewLogNotifier(log)

	require.NoError(t, st.UpsertUser(context.Background(), &model.User{
		Email: "admin@school.test", LastName: "Admin", Role: model.RoleAdmin, IsActive: true,
	}))

	catalog := handler.NewCatalogHandler(service.NewCatalogService(st))
	vehicles := handler.NewVehicleHandler(service.NewVehicleService(st))
	rentals := handler.NewRentalHandler(service.NewRentalService(st, st, st, n, log, 4))

	v := handler.NewValidator()
	e := echo.New()
	e.Validator = v
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log, v)

	router.RegisterRoutes(e, nil)
	router.RegisterAuth(e, handler.NewAuthHandler(service.NewAuthService(st, secret, 15)), secret)
	router.RegisterCatalog(e, catalog, secret, nil)
	router.RegisterReservations(e, handler.NewReservationHandler(
		service.NewReservationService(st, st, st, n, log)), secret)
	router.RegisterRentals(e, rentals, handler.NewTrackingHandler(service.NewTrackingService(st, st)), secret, nil)
	router.RegisterVehicles(e, vehicles)
	router.RegisterDocuments(e, handler.NewDocumentHandler(
		service.NewDocumentService(st, st, st, st, blobs, n, log, time.Hour)), secret, nil)
	router.RegisterAdmin(e, catalog, vehicles, rentals, secret)

	return &api{e: e, store: st, blobs: blobs}
}

func (a *api) bearer(t *testing.T, id uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func (a *api) adminAuth(t *testing.T) string { return a.bearer(t, 1, model.RoleAdmin) }

func (a *api) userAuth(t *testing.T, email string) string {
	t.Helper()
	u := &model.User{Email: email, LastName: "Driver", Role: model.RoleUser, IsActive: true}
	require.NoError(t, a.store.UpsertUser(context.Background(), u))
	return a.bearer(t, u.ID, model.RoleUser)
}

func (a *api) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into), rec.Body.String())
}

// session creates a formation and one session through the admin API.
func (a *api) session(t *testing.T, capacity int) uint64 {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/admin/formations", a.adminAuth(t), map[string]any{
		"title": "Initial licence", "duration_hours": 140, "price_cents": 150000, "type": "initial",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var f struct{ ID uint64 }
	decode(t, rec, &f)

	rec = a.do(t, http.MethodPost, "/api/admin/sessions", a.adminAuth(t), map[string]any{
		"formation_id":     f.ID,
		"start_date":       "2024-04-01T09:00:00Z",
		"end_date":         "2024-04-12T17:00:00Z",
		"max_participants": capacity,
		"location":         "Lyon",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s struct{ ID uint64 }
	decode(t, rec, &s)
	return s.ID
}

func (a *api) vehicle(t *testing.T, plate string) uint64 {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/admin/vehicles", a.adminAuth(t), map[string]any{
		"model": "Toyota Corolla", "plate": plate, "year": 2022, "daily_rate_cents": 4500, "category": "sedan",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v struct{ ID uint64 }
	decode(t, rec, &v)
	return v.ID
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReservationCapacity(t *testing.T) {
	a := newAPI(t)
	sid := a.session(t, 1)

	rec := a.do(t, http.MethodPost, "/api/reservations", a.userAuth(t, "a@x.fr"), map[string]any{"session_id": sid})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/reservations", a.userAuth(t, "b@x.fr"), map[string]any{"session_id": sid})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	decode(t, rec, &body)
	assert.Equal(t, "capacity_exceeded", body["error"])

	rec = a.do(t, http.MethodGet, "/api/sessions/"+itoa(sid)+"/availability", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var av struct {
		Remaining   int     `json:"remaining"`
		PercentFree float64 `json:"percent_free"`
	}
	decode(t, rec, &av)
	assert.Equal(t, 0, av.Remaining)
	assert.Zero(t, av.PercentFree)
}

func TestReservationRequiresAuth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/api/reservations", "", map[string]any{"session_id": 1})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/api/admin/vehicles", a.adminAuth(t), map[string]any{"model": " "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "model")
	assert.Contains(t, body.Fields, "plate")
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/api/admin/vehicles", a.userAuth(t, "u@x.fr"), map[string]any{})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRentalLifecycleAndTracking(t *testing.T) {
	a := newAPI(t)
	vid := a.vehicle(t, "AB-123-CD")

	rec := a.do(t, http.MethodPost, "/api/vehicle-rentals", "", map[string]any{
		"email": "renter@x.fr", "last_name": "Martin", "vehicle_id": vid,
		"start_date": "2025-03-10", "end_date": "2025-03-12", "exam_center": "Lyon Sud",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Rental struct {
			ID              uint64 `json:"id"`
			Status          string `json:"status"`
			TotalPriceCents int64  `json:"total_price_cents"`
			TrackingToken   string `json:"tracking_token"`
		} `json:"rental"`
		TrackingURL string `json:"tracking_url"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "pending", created.Rental.Status)
	assert.Equal(t, int64(3*4500), created.Rental.TotalPriceCents)
	assert.Len(t, created.Rental.TrackingToken, 64)
	assert.Equal(t, "/api/vehicle-rental-tracking/"+created.Rental.TrackingToken, created.TrackingURL)

	rec = a.do(t, http.MethodPut, "/api/vehicle-rentals/"+itoa(created.Rental.ID)+"/status", a.adminAuth(t),
		map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, created.TrackingURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Status  string `json:"status"`
		History []struct {
			Step string `json:"step"`
		} `json:"history"`
	}
	decode(t, rec, &view)
	assert.Equal(t, "confirmed", view.Status)
	require.Len(t, view.History, 2)
	assert.NotContains(t, rec.Body.String(), "renter@x.fr")

	rec = a.do(t, http.MethodGet, "/api/vehicle-rental-tracking/"+strings.Repeat("0", 64), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// touching end dates overlap a confirmed rental
	rec = a.do(t, http.MethodPost, "/api/vehicle-rentals", "", map[string]any{
		"email": "other@x.fr", "last_name": "Roy", "vehicle_id": vid,
		"start_date": "2025-03-12", "end_date": "2025-03-14",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "conflict")

	rec = a.do(t, http.MethodGet, "/api/vehicles/available?startDate=2025-03-11&endDate=2025-03-11", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/vehicles/"+itoa(vid)+"/availability?startDate=2025-03-13&endDate=2025-03-20", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":true`)
}

func TestRentalStatusIsAdminOnly(t *testing.T) {
	a := newAPI(t)
	auth := a.userAuth(t, "self@x.fr")
	rec := a.do(t, http.MethodPost, "/api/vehicle-rentals", auth, map[string]any{
		"start_date": "2025-05-01", "end_date": "2025-05-02",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Rental struct{ ID uint64 } `json:"rental"`
	}
	decode(t, rec, &created)

	rec = a.do(t, http.MethodPut, "/api/vehicle-rentals/"+itoa(created.Rental.ID)+"/status", auth,
		map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/vehicle-rentals/"+itoa(created.Rental.ID)+"/cancel", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	rec = a.do(t, http.MethodPut, "/api/vehicle-rentals/"+itoa(created.Rental.ID)+"/status", a.adminAuth(t),
		map[string]any{"status": "confirmed"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_transition")
}

func upload(t *testing.T, a *api, name, ownerType string, ownerID uint64, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Driving licence"))
	require.NoError(t, w.WriteField("category", "license"))
	require.NoError(t, w.WriteField("owner_type", ownerType))
	require.NoError(t, w.WriteField("owner_id", itoa(ownerID)))
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/temp", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestDocumentUploadAndFinalize(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/api/vehicle-rentals", "", map[string]any{
		"email": "docs@x.fr", "last_name": "Leroy", "start_date": "2025-06-01", "end_date": "2025-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Rental struct{ ID uint64 } `json:"rental"`
	}
	decode(t, rec, &created)

	rec = upload(t, a, "permis.pdf", "vehicle_rental", created.Rental.ID, []byte("%PDF-1.4 test"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var temp struct {
		TempID string `json:"temp_id"`
	}
	decode(t, rec, &temp)
	require.NotEmpty(t, temp.TempID)

	rec = a.do(t, http.MethodPost, "/api/documents/finalize", "", map[string]any{
		"temp_ids": []string{temp.TempID}, "owner_type": "vehicle_rental", "owner_id": created.Rental.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Documents []struct {
			ID    uint64 `json:"id"`
			Title string `json:"title"`
		} `json:"documents"`
		Skipped []string `json:"skipped"`
	}
	decode(t, rec, &res)
	require.Len(t, res.Documents, 1)
	assert.Empty(t, res.Skipped)

	keys := a.blobs.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "licenses/"), keys[0])
}

func TestDocumentUploadRejectsExtension(t *testing.T) {
	a := newAPI(t)
	rec := upload(t, a, "virus.exe", "vehicle_rental", 1, []byte("MZ"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_file")
	assert.Empty(t, a.blobs.Keys())
}

func TestExportRequiresAdmin(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/api/admin/vehicle-rentals/export", a.userAuth(t, "u@x.fr"), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/admin/vehicle-rentals/export?from=2025-01-01&to=2025-12-31", a.adminAuth(t), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "vehicle-rentals_2025-01-01_2025-12-31.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func itoa(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
