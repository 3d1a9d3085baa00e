// Package router registers the HTTP API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/handler"
	"github.com/iliyamo/taxischool/internal/metrics"
	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers login and the current-user endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/api/auth/login", a.Login)
	e.GET("/api/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterCatalog registers the public formation and session reads.
// cache may be nil.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{middleware.OptionalJWT(jwtSecret)}
	if cache != nil {
		mw = append(mw, cache)
	}
	g := e.Group("/api", mw...)
	g.GET("/formations", h.ListFormations)
	g.GET("/formations/:id/sessions", h.ListSessions)
	g.GET("/sessions/:id/availability", h.SessionAvailability)
}

// RegisterReservations registers session enrolment.  Every route needs a
// signed-in user; ownership is checked by the service.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	g.POST("/reservations", h.Create)
	g.GET("/reservations/:id", h.Get)
	g.PUT("/reservations/:id/cancel", h.Cancel)
	g.PUT("/reservations/:id/status", h.UpdateStatus, middleware.RequireRole(model.RoleAdmin))
	g.GET("/me/reservations", h.ListMine)
}

// RegisterRentals registers vehicle rentals and the public tracking
// page.  limit guards the anonymous endpoints and may be nil.
func RegisterRentals(e *echo.Echo, h *handler.RentalHandler, t *handler.TrackingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	public := []echo.MiddlewareFunc{middleware.OptionalJWT(jwtSecret)}
	if limit != nil {
		public = append(public, limit)
	}
	e.POST("/api/vehicle-rentals", h.Create, public...)
	e.GET("/api/vehicle-rental-tracking/:token", t.Get, public...)

	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	g.GET("/vehicle-rentals/:id", h.Get)
	g.PUT("/vehicle-rentals/:id/cancel", h.Cancel)
	g.PUT("/vehicle-rentals/:id/status", h.UpdateStatus, middleware.RequireRole(model.RoleAdmin))
	g.GET("/me/vehicle-rentals", h.ListMine)
}

// RegisterVehicles registers the public availability queries.
func RegisterVehicles(e *echo.Echo, h *handler.VehicleHandler) {
	e.GET("/api/vehicles/available", h.Available)
	e.GET("/api/vehicles/:id/availability", h.Availability)
}

// RegisterDocuments registers the two-phase upload.  Rental documents
// can be sent by anonymous renters, so authentication is optional here
// and enforced per owner type by the service.
func RegisterDocuments(e *echo.Echo, h *handler.DocumentHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{middleware.OptionalJWT(jwtSecret)}
	if limit != nil {
		mw = append(mw, limit)
	}
	g := e.Group("/api/documents", mw...)
	g.POST("/temp", h.UploadTemp)
	g.POST("/finalize", h.Finalize)

	e.GET("/api/vehicle-rentals/:id/documents", h.ListForRental, middleware.JWTAuth(jwtSecret))
}

// RegisterAdmin registers the back-office writes under /api/admin.
func RegisterAdmin(e *echo.Echo, c *handler.CatalogHandler, v *handler.VehicleHandler, r *handler.RentalHandler, jwtSecret string) {
	g := e.Group("/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("/formations", c.CreateFormation)
	g.PUT("/formations/:id/deactivate", c.DeactivateFormation)
	g.POST("/sessions", c.CreateSession)
	g.POST("/vehicles", v.Create)
	g.GET("/vehicle-rentals/export", r.Export)
}
