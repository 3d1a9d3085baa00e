package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/taxischool/internal/booking"
	"github.com/iliyamo/taxischool/internal/middleware"
	"github.com/iliyamo/taxischool/internal/service"
)

// DocumentHandler runs the two-phase document upload.
type DocumentHandler struct {
	Documents *service.DocumentService
}

// NewDocumentHandler wires the document service into a handler.
func NewDocumentHandler(s *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Documents: s}
}

// ----- DTOs -----

type finalizeReq struct {
	TempIDs   []string `json:"temp_ids" validate:"required,min=1,max=50,dive,uuid"`
	OwnerType string   `json:"owner_type" validate:"required"`
	OwnerID   uint64   `json:"owner_id" validate:"required"`
}

type finalizeResp struct {
	Documents []documentView `json:"documents"`
	Skipped   []string       `json:"skipped"`
}

// UploadTemp accepts a multipart form with file, title, category,
// owner_type and owner_id.
func (h *DocumentHandler) UploadTemp(c echo.Context) error {
	// multipart overhead on top of the file itself
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, booking.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: file exceeds %d bytes", booking.ErrInvalidFile, booking.MaxUploadBytes)
		}
		return booking.NewValidationError("file", "is required")
	}
	ownerID, err := strconv.ParseUint(c.FormValue("owner_id"), 10, 64)
	if err != nil {
		return booking.NewValidationError("owner_id", "must be a positive integer")
	}
	// size and extension are checked before the body is read
	if _, err := booking.ValidateUpload(fh.Filename, fh.Size); err != nil {
		return err
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := reqCtx(c)
	defer cancel()
	td, err := h.Documents.UploadTemp(ctx, middleware.CallerFrom(c), service.UploadInput{
		Title:     c.FormValue("title"),
		Category:  c.FormValue("category"),
		OwnerType: c.FormValue("owner_type"),
		OwnerID:   ownerID,
		FileName:  fh.Filename,
		Size:      fh.Size,
		Body:      src,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tempDocumentView{
		TempID:       td.TempID,
		Title:        td.Title,
		OriginalName: td.OriginalName,
		SizeBytes:    td.SizeBytes,
		Category:     td.Category,
	})
}

// Finalize attaches temp uploads to their owner.  Items that cannot be
// attached are listed under "skipped"; the call still succeeds.
func (h *DocumentHandler) Finalize(c echo.Context) error {
	var req finalizeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Documents.Finalize(ctx, middleware.CallerFrom(c), service.FinalizeInput{
		TempIDs:   req.TempIDs,
		OwnerType: req.OwnerType,
		OwnerID:   req.OwnerID,
	})
	if err != nil {
		return err
	}
	out := finalizeResp{Documents: make([]documentView, 0, len(res.Documents)), Skipped: res.Skipped}
	for _, d := range res.Documents {
		out.Documents = append(out.Documents, newDocumentView(d))
	}
	return c.JSON(http.StatusOK, out)
}

// ListForRental returns the documents attached to a rental.
func (h *DocumentHandler) ListForRental(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	docs, err := h.Documents.ListForRental(ctx, middleware.CallerFrom(c), id)
	if err != nil {
		return err
	}
	out := make([]documentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, newDocumentView(d))
	}
	return c.JSON(http.StatusOK, out)
}
