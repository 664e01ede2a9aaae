package integrity

import (
	"errors"

	"planner/core/logger"
	"planner/core/utils"
	"planner/feature/integrity/checks"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	// Force import for Swagger
	var _ = checks.ServerReport{}
	return &Handler{service: service}
}

// fail writes err as {"error", "code"}. A missing storage backend is a 503.
func (h *Handler) fail(c *fiber.Ctx, code string, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, ErrNoStorage) {
		status, code = fiber.StatusServiceUnavailable, "storage_disabled"
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": code})
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/structure", h.HandleStructureCheck)
	group.Get("/server", h.HandleServerCheck)
	group.Get("/data", h.HandleDataCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs the structure, server schema and data checks without fixing anything.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]interface{})

	if missing, err := h.service.CheckStructure(ctx); err != nil {
		report["structure"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["structure"] = map[string]interface{}{"status": "ok", "missing": missing}
	}

	if srvReport, err := h.service.CheckServer(); err != nil {
		report["server"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["server"] = srvReport
	}

	if dataReport, err := h.service.CheckData(ctx); err != nil {
		report["data"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["data"] = dataReport
	}

	return c.JSON(report)
}

// HandleStructureCheck checks and optionally fixes structure.
// @Summary Check Structure
// @Description Checks that the export folder exists in the storage bucket. Optionally creates it.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Fix missing folders"
// @Success 200 {object} map[string]interface{} "Structure Report"
// @Failure 503 {object} map[string]string "Storage not configured"
// @Router /integrity/structure [get]
func (h *Handler) HandleStructureCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := utils.ToBool(c.Query("fix"))

	missing, err := h.service.CheckStructure(c.UserContext())
	if err != nil {
		l.Error("Structure check failed", zap.Error(err))
		return h.fail(c, "structure_check_failed", err)
	}

	if len(missing) > 0 {
		l.Warn("Missing folders detected", zap.Strings("missing", missing))

		if fix {
			l.Info("Attempting to fix missing folders")
			if err := h.service.FixStructure(c.UserContext(), missing); err != nil {
				l.Error("Structure fix failed", zap.Error(err))
				return h.fail(c, "structure_fix_failed", err)
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  missing,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleServerCheck checks server schema integrity.
// @Summary Check Server Schema
// @Description Checks if the database schema matches the series and instances models.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.ServerReport "Server Check Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/server [get]
func (h *Handler) HandleServerCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting server schema check")

	report, err := h.service.CheckServer()
	if err != nil {
		l.Error("Server schema check failed", zap.Error(err))
		return h.fail(c, "server_check_failed", err)
	}

	return c.JSON(report)
}

// HandleDataCheck checks stored instances and optionally deletes orphans.
// @Summary Check Data
// @Description Finds instances whose series is gone and series dates holding more than one instance. fix=true deletes the orphans.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Delete orphan instances"
// @Success 200 {object} checks.DataReport "Data Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/data [get]
func (h *Handler) HandleDataCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckData(c.UserContext())
	if err != nil {
		l.Error("Data check failed", zap.Error(err))
		return h.fail(c, "data_check_failed", err)
	}

	if utils.ToBool(c.Query("fix")) && len(report.OrphanInstances) > 0 {
		deleted, err := h.service.FixData(c.UserContext(), report)
		if err != nil {
			l.Error("Data fix failed", zap.Error(err))
			return h.fail(c, "data_fix_failed", err)
		}
		return c.JSON(fiber.Map{
			"status":          "fixed",
			"deleted":         deleted,
			"duplicate_dates": report.DuplicateDates,
		})
	}

	return c.JSON(report)
}
