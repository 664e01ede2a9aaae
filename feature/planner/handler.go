package planner

import (
	"errors"
	"fmt"

	"planner/core/logger"
	"planner/core/recurrence"
	"planner/core/series"
	"planner/core/utils"
	"planner/feature/planner/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for series and instances.
type Handler struct {
	service *series.Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *series.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the planner routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/series", h.HandleCreateSeries)
	app.Get("/series/:id", h.HandleGetSeries)
	app.Get("/series/:id/instances", h.HandleListSeriesInstances)
	app.Get("/instances", h.HandleListOwnerInstances)
	app.Get("/instances/:id", h.HandleGetInstance)
	app.Patch("/instances/:id", h.HandleUpdateInstance)
	app.Delete("/instances/:id", h.HandleDeleteInstance)
	app.Post("/preview", h.HandlePreview)
}

// HandleCreateSeries creates a series or a standalone item.
// @Summary Create Series
// @Description Create a recurring series and its instances. Without a rule a single standalone item is created.
// @Tags planner
// @Accept json
// @Produce json
// @Param body body models.CreateSeriesRequest true "Series"
// @Success 201 {object} models.InstancesResponse "Created instances"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 500 {object} models.ErrorResponse "Transaction failed"
// @Router /series [post]
func (h *Handler) HandleCreateSeries(c *fiber.Ctx) error {
	var body models.CreateSeriesRequest
	if err := h.parse(c, &body); err != nil {
		return h.fail(c, err)
	}
	anchor, err := recurrence.ParseDate(body.Anchor)
	if err != nil {
		return h.fail(c, err)
	}
	if body.Rule != nil {
		if err := checkRule(*body.Rule); err != nil {
			return h.fail(c, err)
		}
	}

	created, err := h.service.CreateSeries(c.UserContext(), series.CreateRequest{
		Rule:    body.Rule,
		Anchor:  anchor,
		OwnerID: body.OwnerID,
		Template: series.Template{
			Title:           body.Title,
			Description:     body.Description,
			StartTime:       body.StartTime,
			DurationMinutes: body.DurationMinutes,
		},
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(instancesResponse(created))
}

// HandleGetSeries returns a series master.
// @Summary Get Series
// @Tags planner
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} series.Series "Series"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /series/{id} [get]
func (h *Handler) HandleGetSeries(c *fiber.Ctx) error {
	master, err := h.service.GetSeries(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(master)
}

// HandleListSeriesInstances lists the instances of a series.
// @Summary List Series Instances
// @Tags planner
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} models.InstancesResponse "Instances ordered by date"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /series/{id}/instances [get]
func (h *Handler) HandleListSeriesInstances(c *fiber.Ctx) error {
	list, err := h.service.ListInstances(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(instancesResponse(list))
}

// HandleListOwnerInstances lists every instance of an owner, standalone or recurring.
// @Summary List Owner Instances
// @Tags planner
// @Produce json
// @Param owner query string false "Owner ID"
// @Success 200 {object} models.InstancesResponse "Instances ordered by date"
// @Router /instances [get]
func (h *Handler) HandleListOwnerInstances(c *fiber.Ctx) error {
	list, err := h.service.ListOwnerInstances(c.UserContext(), c.Query("owner"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(instancesResponse(list))
}

// HandleGetInstance returns one instance.
// @Summary Get Instance
// @Tags planner
// @Produce json
// @Param id path string true "Instance ID"
// @Success 200 {object} series.Instance "Instance"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Router /instances/{id} [get]
func (h *Handler) HandleGetInstance(c *fiber.Ctx) error {
	inst, err := h.service.GetInstance(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(inst)
}

// HandleUpdateInstance patches an instance at the given scope.
// @Summary Update Instance
// @Description Patch an instance. scope=this edits one instance, following edits it and later siblings, all edits the whole series. A rule in the body regenerates the series.
// @Tags planner
// @Accept json
// @Produce json
// @Param id path string true "Instance ID"
// @Param scope query string true "this, following or all"
// @Param dry_run query bool false "Return the plan without applying it"
// @Param body body models.UpdateInstanceRequest true "Patch"
// @Success 200 {object} models.InstancesResponse "Written instances"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Failure 409 {object} models.ErrorResponse "Date conflict"
// @Failure 500 {object} models.ErrorResponse "Transaction failed"
// @Router /instances/{id} [patch]
func (h *Handler) HandleUpdateInstance(c *fiber.Ctx) error {
	scope, err := series.ParseScope(c.Query("scope"))
	if err != nil {
		return h.fail(c, err)
	}
	var body models.UpdateInstanceRequest
	if err := h.parse(c, &body); err != nil {
		return h.fail(c, err)
	}
	req, err := updateRequest(c.Params("id"), scope, body)
	if err != nil {
		return h.fail(c, err)
	}

	if utils.ToBool(c.Query("dry_run")) {
		plan, err := h.service.PlanUpdate(c.UserContext(), req)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(plan)
	}

	updated, err := h.service.UpdateInstance(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(instancesResponse(updated))
}

// HandleDeleteInstance removes an instance at the given scope.
// @Summary Delete Instance
// @Tags planner
// @Produce json
// @Param id path string true "Instance ID"
// @Param scope query string true "this, following or all"
// @Param dry_run query bool false "Return the plan without applying it"
// @Success 200 {object} models.DeleteResponse "Removed ids"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Failure 500 {object} models.ErrorResponse "Transaction failed"
// @Router /instances/{id} [delete]
func (h *Handler) HandleDeleteInstance(c *fiber.Ctx) error {
	scope, err := series.ParseScope(c.Query("scope"))
	if err != nil {
		return h.fail(c, err)
	}
	req := series.DeleteRequest{ID: c.Params("id"), Scope: scope}

	if utils.ToBool(c.Query("dry_run")) {
		plan, err := h.service.PlanDelete(c.UserContext(), req)
		if err != nil {
			return h.fail(c, err)
		}
		return c.JSON(plan)
	}

	removed, err := h.service.DeleteInstance(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}
	if removed == nil {
		removed = []string{}
	}
	return c.JSON(models.DeleteResponse{DeletedIDs: removed, Count: len(removed)})
}

// HandlePreview expands a rule without persisting anything.
// @Summary Preview Occurrences
// @Tags planner
// @Accept json
// @Produce json
// @Param body body models.PreviewRequest true "Rule and anchor"
// @Success 200 {object} models.PreviewResponse "Generated dates"
// @Failure 400 {object} models.ErrorResponse "Invalid rule"
// @Router /preview [post]
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	var body models.PreviewRequest
	if err := h.parse(c, &body); err != nil {
		return h.fail(c, err)
	}
	anchor, err := recurrence.ParseDate(body.Anchor)
	if err != nil {
		return h.fail(c, err)
	}
	if err := checkRule(body.Rule); err != nil {
		return h.fail(c, err)
	}
	dates, err := h.service.Preview(body.Rule, anchor)
	if err != nil {
		return h.fail(c, err)
	}
	out := models.PreviewResponse{Dates: make([]string, len(dates))}
	for i, d := range dates {
		out.Dates[i] = recurrence.FormatDate(d)
	}
	return c.JSON(out)
}

// validationError marks a malformed or invalid request body.
type validationError struct{ err error }

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }

func (h *Handler) parse(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		// Rule decoding errors keep their own sentinel.
		if errors.Is(err, recurrence.ErrInvalidRule) || errors.Is(err, recurrence.ErrUnsupportedFrequency) {
			return err
		}
		return validationError{fmt.Errorf("malformed body: %w", err)}
	}
	if err := validateStruct(out); err != nil {
		return validationError{err}
	}
	return nil
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	var verr validationError
	if errors.As(err, &verr) && code == CodeInternal {
		status, code = fiber.StatusBadRequest, CodeValidation
	}

	l := logger.WithRayID(h.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error("Planner request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		l.Debug("Planner request rejected", zap.String("code", code), zap.Error(err))
	}
	return c.Status(status).JSON(models.ErrorResponse{Error: err.Error(), Code: code})
}

func updateRequest(id string, scope series.Scope, body models.UpdateInstanceRequest) (series.UpdateRequest, error) {
	req := series.UpdateRequest{
		ID:    id,
		Scope: scope,
		Rule:  body.Rule,
		Fields: series.Fields{
			Title:           body.Title,
			Description:     body.Description,
			StartTime:       body.StartTime,
			DurationMinutes: body.DurationMinutes,
			Completed:       body.Completed,
		},
	}
	if body.Date != nil {
		d, err := recurrence.ParseDate(*body.Date)
		if err != nil {
			return req, err
		}
		req.Fields.Date = &d
	}
	if body.Rule != nil {
		if err := checkRule(*body.Rule); err != nil {
			return req, err
		}
	}
	return req, nil
}

// MaxRequestCount is the largest COUNT a rule may carry in a request body.
const MaxRequestCount = 5000

// checkRule validates a rule received over HTTP.
func checkRule(rule recurrence.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if n, ok := rule.End.CountValue(); ok && n > MaxRequestCount {
		return fmt.Errorf("%w: count must be <= %d, got %d", recurrence.ErrInvalidRule, MaxRequestCount, n)
	}
	return nil
}

func instancesResponse(list []series.Instance) models.InstancesResponse {
	if list == nil {
		list = []series.Instance{}
	}
	return models.InstancesResponse{Instances: list, Count: len(list)}
}
