package calsync

import (
	"bytes"
	"errors"

	"planner/core/logger"
	"planner/core/series"
	"planner/feature/planner/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrSyncDisabled is returned by the sync endpoint when no calendar is configured.
var ErrSyncDisabled = errors.New("calsync: calendar sync is not configured")

// ExportResponse names a stored export.
type ExportResponse struct {
	Owner  string `json:"owner"`
	Object string `json:"object"`
}

// ExportListResponse lists owners with a stored export.
type ExportListResponse struct {
	Owners []string `json:"owners"`
	Count  int      `json:"count"`
}

// Handler serves sync, export and import requests.
type Handler struct {
	syncer   *Syncer
	exporter *Exporter
	importer *Importer
	logger   *zap.Logger
}

// NewHandler creates a handler. A nil syncer disables POST /sync.
func NewHandler(syncer *Syncer, exporter *Exporter, importer *Importer, logger *zap.Logger) *Handler {
	return &Handler{syncer: syncer, exporter: exporter, importer: importer, logger: logger}
}

// RegisterRoutes registers the calendar routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/sync", h.HandleSync)
	app.Get("/calendar/:owner", h.HandleRender)
	app.Get("/exports", h.HandleListExports)
	app.Post("/exports/:owner", h.HandleExport)
	app.Get("/exports/:owner", h.HandleGetExport)
	app.Delete("/exports/:owner", h.HandleDeleteExport)
	app.Post("/imports", h.HandleImport)
}

// HandleSync pushes every series to the external calendar.
// @Summary Sync Calendar
// @Tags calendar
// @Produce json
// @Success 200 {object} calsync.Report "Sync report"
// @Failure 503 {object} models.ErrorResponse "Sync not configured"
// @Router /sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	if h.syncer == nil {
		return h.fail(c, fiber.StatusServiceUnavailable, "sync_disabled", ErrSyncDisabled)
	}
	report, err := h.syncer.Sync(c.UserContext())
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, "sync_failed", err)
	}
	return c.JSON(report)
}

// HandleRender renders an owner's calendar without storing it.
// @Summary Render Calendar
// @Tags calendar
// @Produce plain
// @Param owner path string true "Owner ID"
// @Success 200 {string} string "iCalendar file"
// @Router /calendar/{owner} [get]
func (h *Handler) HandleRender(c *fiber.Ctx) error {
	data, err := h.exporter.Render(c.UserContext(), c.Params("owner"))
	if err != nil {
		return h.fail(c, fiber.StatusInternalServerError, "render_failed", err)
	}
	return h.sendCalendar(c, data)
}

// HandleListExports lists stored exports.
// @Summary List Exports
// @Tags calendar
// @Produce json
// @Success 200 {object} calsync.ExportListResponse "Owners with an export"
// @Router /exports [get]
func (h *Handler) HandleListExports(c *fiber.Ctx) error {
	owners, err := h.exporter.List(c.UserContext())
	if err != nil {
		return h.storageFail(c, "storage_failed", err)
	}
	if owners == nil {
		owners = []string{}
	}
	return c.JSON(ExportListResponse{Owners: owners, Count: len(owners)})
}

// HandleExport renders an owner's calendar and stores it.
// @Summary Export Calendar
// @Tags calendar
// @Produce json
// @Param owner path string true "Owner ID"
// @Success 201 {object} calsync.ExportResponse "Stored export"
// @Failure 500 {object} models.ErrorResponse "Storage failure"
// @Router /exports/{owner} [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	owner := c.Params("owner")
	name, err := h.exporter.Export(c.UserContext(), owner)
	if err != nil {
		return h.storageFail(c, "export_failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(ExportResponse{Owner: owner, Object: name})
}

// HandleGetExport downloads a stored export.
// @Summary Get Export
// @Tags calendar
// @Produce plain
// @Param owner path string true "Owner ID"
// @Success 200 {string} string "iCalendar file"
// @Failure 404 {object} models.ErrorResponse "No export"
// @Router /exports/{owner} [get]
func (h *Handler) HandleGetExport(c *fiber.Ctx) error {
	data, err := h.exporter.Open(c.UserContext(), c.Params("owner"))
	if errors.Is(err, ErrExportNotFound) {
		return h.fail(c, fiber.StatusNotFound, "not_found", err)
	}
	if err != nil {
		return h.storageFail(c, "storage_failed", err)
	}
	return h.sendCalendar(c, data)
}

// HandleDeleteExport removes a stored export.
// @Summary Delete Export
// @Tags calendar
// @Param owner path string true "Owner ID"
// @Success 204
// @Router /exports/{owner} [delete]
func (h *Handler) HandleDeleteExport(c *fiber.Ctx) error {
	if err := h.exporter.Delete(c.UserContext(), c.Params("owner")); err != nil {
		return h.storageFail(c, "storage_failed", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleImport reads an iCalendar body into series and items.
// @Summary Import Calendar
// @Tags calendar
// @Accept plain
// @Produce json
// @Param owner query string false "Owner ID"
// @Success 201 {object} calsync.ImportResult "Import summary"
// @Failure 400 {object} models.ErrorResponse "Unreadable calendar"
// @Router /imports [post]
func (h *Handler) HandleImport(c *fiber.Ctx) error {
	result, err := h.importer.Import(c.UserContext(), bytes.NewReader(c.Body()), c.Query("owner"))
	if err != nil {
		status, code := fiber.StatusInternalServerError, "import_failed"
		if result == nil || series.IsClientError(err) {
			status, code = fiber.StatusBadRequest, "invalid_calendar"
		}
		return h.fail(c, status, code, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handler) sendCalendar(c *fiber.Ctx, data []byte) error {
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	return c.Send(data)
}

func (h *Handler) storageFail(c *fiber.Ctx, code string, err error) error {
	if errors.Is(err, ErrNoStorage) {
		return h.fail(c, fiber.StatusServiceUnavailable, "storage_disabled", err)
	}
	return h.fail(c, fiber.StatusInternalServerError, code, err)
}

func (h *Handler) fail(c *fiber.Ctx, status int, code string, err error) error {
	l := logger.WithRayID(h.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error("Calendar request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		l.Debug("Calendar request rejected", zap.String("code", code), zap.Error(err))
	}
	return c.Status(status).JSON(models.ErrorResponse{Error: err.Error(), Code: code})
}
