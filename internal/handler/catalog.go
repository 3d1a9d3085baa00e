package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/model"
	"github.com/iliyamo/taxischool/internal/service"
)

// CatalogHandler serves formations and sessions.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

// NewCatalogHandler wires the catalog service into a handler.
func NewCatalogHandler(s *service.CatalogService) *CatalogHandler { return &CatalogHandler{Catalog: s} }

// ----- DTOs -----

type createFormationReq struct {
	Title         string `json:"title" validate:"notblank,max=200"`
	Description   string `json:"description"`
	DurationHours int    `json:"duration_hours" validate:"gt=0"`
	PriceCents    int64  `json:"price_cents" validate:"gte=0"`
	Type          string `json:"type" validate:"oneof=initial continuous"`
}

type createSessionReq struct {
	FormationID     uint64    `json:"formation_id" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	MaxParticipants int       `json:"max_participants"`
	Location        string    `json:"location" validate:"max=200"`
}

// ListFormations returns active formations; admins may pass ?all=true.
func (h *CatalogHandler) ListFormations(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	activeOnly := !(middleware.CallerFrom(c).IsAdmin && c.QueryParam("all") == "true")
	forms, err := h.Catalog.ListFormations(ctx, activeOnly)
	if err != nil {
		return err
	}
	out := make([]formationView, 0, len(forms))
	for _, f := range forms {
		out = append(out, newFormationView(f))
	}
	return c.JSON(http.StatusOK, out)
}

// ListSessions returns a formation's sessions with remaining seats.
func (h *CatalogHandler) ListSessions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	views, err := h.Catalog.ListSessions(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionViews(views))
}

// SessionAvailability returns {remaining, percent_free} for one session.
func (h *CatalogHandler) SessionAvailability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	view, err := h.Catalog.SessionAvailability(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view.Availability)
}

func (h *CatalogHandler) CreateFormation(c echo.Context) error {
	var req createFormationReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Catalog.CreateFormation(ctx, middleware.CallerFrom(c), service.FormationInput{
		Title:         req.Title,
		Description:   req.Description,
		DurationHours: req.DurationHours,
		PriceCents:    req.PriceCents,
		Type:          model.FormationType(req.Type),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newFormationView(*f))
}

// DeactivateFormation hides a formation from the catalog.
func (h *CatalogHandler) DeactivateFormation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Catalog.DeactivateFormation(ctx, middleware.CallerFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreateSession(c echo.Context) error {
	var req createSessionReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Catalog.CreateSession(ctx, middleware.CallerFrom(c), service.SessionInput{
		FormationID:     req.FormationID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
		Location:        req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newSessionView(*s, nil))
}
