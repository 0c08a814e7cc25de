package harvest

import (
	"errors"
	"strconv"
	"time"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for harvesting.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the harvest routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/harvest")
	group.Get("/harvesters", h.HandleListHarvesters)
	group.Post("/sources", h.HandleCreateSource)
	group.Get("/sources", h.HandleListSources)
	group.Get("/sources/:id", h.HandleGetSource)
	group.Post("/sources/:id/run", h.HandleRunPass)
	group.Get("/sources/:id/objects", h.HandleListObjects)
	group.Post("/sources/:id/purge", h.HandlePurge)
	group.Post("/sources/:id/clear", h.HandleClearSource)
	group.Post("/sources/:id/clear-history", h.HandleClearHistory)
	group.Post("/clear-history", h.HandleClearAllHistory)
	group.Get("/jobs/:id", h.HandleGetJob)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, harvesterrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, harvesterrors.ErrConfig), errors.Is(err, harvesterrors.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrPassRunning):
		return fiber.StatusConflict
	case errors.Is(err, harvesterrors.ErrEmptyResult), errors.Is(err, harvesterrors.ErrDataIntegrity):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, harvesterrors.ErrFetch):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	status := statusFor(err)
	l := logger.WithRayID(h.service.logger, c)
	if status >= fiber.StatusInternalServerError {
		l.Error(msg, zap.Error(err))
	} else {
		l.Warn(msg, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// HandleListHarvesters lists the supported source types.
// @Summary List Harvesters
// @Description List the remote catalog types a source can use.
// @Tags harvest
// @Produce json
// @Success 200 {array} source.Info "Harvesters"
// @Router /harvest/harvesters [get]
func (h *Handler) HandleListHarvesters(c *fiber.Ctx) error {
	return c.JSON(h.service.Harvesters())
}

// HandleCreateSource creates a harvest source.
// @Summary Create Source
// @Description Register a remote catalog to harvest. Config must carry "id_field_name".
// @Tags harvest
// @Accept json
// @Produce json
// @Param source body CreateSourceInput true "Source"
// @Success 201 {object} models.HarvestSource "Created source"
// @Failure 400 {object} map[string]string "Invalid source"
// @Router /harvest/sources [post]
func (h *Handler) HandleCreateSource(c *fiber.Ctx) error {
	var in CreateSourceInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	src, err := h.service.CreateSource(c.Context(), in)
	if err != nil {
		return h.fail(c, "Failed to create harvest source", err)
	}
	return c.Status(fiber.StatusCreated).JSON(src)
}

// HandleListSources lists harvest sources.
// @Summary List Sources
// @Tags harvest
// @Produce json
// @Success 200 {array} models.HarvestSource "Sources"
// @Router /harvest/sources [get]
func (h *Handler) HandleListSources(c *fiber.Ctx) error {
	sources, err := h.service.ListSources(c.Context())
	if err != nil {
		return h.fail(c, "Failed to list harvest sources", err)
	}
	return c.JSON(sources)
}

// HandleGetSource returns one harvest source.
// @Summary Get Source
// @Tags harvest
// @Produce json
// @Param id path string true "Source ID"
// @Success 200 {object} models.HarvestSource "Source"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /harvest/sources/{id} [get]
func (h *Handler) HandleGetSource(c *fiber.Ctx) error {
	src, err := h.service.GetSource(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to load harvest source", err)
	}
	return c.JSON(src)
}

// HandleRunPass runs a harvest pass synchronously.
// @Summary Run Harvest Pass
// @Description Fetch the remote catalog, reconcile, stage and import. Returns the pass summary.
// @Tags harvest
// @Produce json
// @Param id path string true "Source ID"
// @Success 200 {object} models.PassSummary "Pass summary"
// @Failure 404 {object} map[string]string "Not Found"
// @Failure 409 {object} map[string]string "Pass already running"
// @Failure 502 {object} map[string]interface{} "Remote catalog unavailable"
// @Router /harvest/sources/{id}/run [post]
func (h *Handler) HandleRunPass(c *fiber.Ctx) error {
	summary, err := h.service.RunPass(c.UserContext(), c.Params("id"))
	if err != nil {
		if summary == nil {
			return h.fail(c, "Harvest pass failed", err)
		}
		logger.WithRayID(h.service.logger, c).Warn("Harvest pass aborted", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error":   err.Error(),
			"summary": summary,
		})
	}
	return c.JSON(summary)
}

// HandleListObjects lists the staging records of a source.
// @Summary List Harvest Objects
// @Tags harvest
// @Produce json
// @Param id path string true "Source ID"
// @Param current query bool false "Only current (true) or superseded (false) records"
// @Success 200 {array} models.HarvestObject "Harvest objects"
// @Router /harvest/sources/{id}/objects [get]
func (h *Handler) HandleListObjects(c *fiber.Ctx) error {
	var current *bool
	if raw := c.Query("current"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "current must be a boolean",
			})
		}
		current = &v
	}

	objects, err := h.service.ListObjects(c.Context(), c.Params("id"), current)
	if err != nil {
		return h.fail(c, "Failed to list harvest objects", err)
	}
	return c.JSON(objects)
}

// HandlePurge removes superseded records.
// @Summary Purge Superseded Objects
// @Tags harvest
// @Produce json
// @Param id path string true "Source ID"
// @Param older_than query string false "Minimum age, e.g. 720h (default 0)"
// @Success 200 {object} map[string]interface{} "Purged count"
// @Router /harvest/sources/{id}/purge [post]
func (h *Handler) HandlePurge(c *fiber.Ctx) error {
	var olderThan time.Duration
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "older_than must be a non-negative duration",
			})
		}
		olderThan = d
	}

	n, err := h.service.Purge(c.Context(), c.Params("id"), olderThan)
	if err != nil {
		return h.fail(c, "Failed to purge harvest objects", err)
	}
	return c.JSON(fiber.Map{"source_id": c.Params("id"), "purged": n})
}

// HandleClearSource clears a source and deletes its datasets.
// @Summary Clear Source
// @Description Delete every job and harvest object of the source and the datasets they created.
// @Tags harvest
// @Produce json
// @Param id path string true "Source ID"
// @Success 200 {object} ClearReport "Clear report"
// @Router /harvest/sources/{id}/clear [post]
func (h *Handler) HandleClearSource(c *fiber.Ctx) error {
	report, err := h.service.ClearSource(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to clear harvest source", err)
	}
	return c.JSON(report)
}

// HandleClearHistory clears the job history of a source.
// @Summary Clear Source History
// @Description Delete superseded harvest objects and finished jobs left without objects. Datasets are kept.
// @Tags harvest
// @Produce json
// @Param id path string true "Source ID"
// @Success 200 {object} ClearReport "Clear report"
// @Router /harvest/sources/{id}/clear-history [post]
func (h *Handler) HandleClearHistory(c *fiber.Ctx) error {
	report, err := h.service.ClearHistory(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to clear harvest source history", err)
	}
	return c.JSON(report)
}

// HandleClearAllHistory clears the job history of every source.
// @Summary Clear History Of All Sources
// @Description Clear the job history of every source. Sources with a running pass are reported as skipped.
// @Tags harvest
// @Produce json
// @Success 200 {array} ClearReport "One report per source"
// @Router /harvest/clear-history [post]
func (h *Handler) HandleClearAllHistory(c *fiber.Ctx) error {
	reports, err := h.service.ClearAllHistory(c.Context())
	if err != nil {
		return h.fail(c, "Failed to clear harvest history", err)
	}
	return c.JSON(reports)
}

// HandleGetJob returns a job with its errors.
// @Summary Get Job
// @Tags harvest
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} JobReport "Job"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /harvest/jobs/{id} [get]
func (h *Handler) HandleGetJob(c *fiber.Ctx) error {
	report, err := h.service.GetJob(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "Failed to load harvest job", err)
	}
	return c.JSON(report)
}
