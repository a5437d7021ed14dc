package control

import (
	"context"
	"errors"

	"keymaster/core/logger"
	"keymaster/feature/pipeline"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StartRequest is the body of POST /runs.
type StartRequest struct {
	Config  string `json:"config"`
	DryRun  bool   `json:"dry_run"`
	Verbose bool   `json:"verbose"`
}

// Launcher prepares an Updater for a start request. Errors are reported to
// the caller as 400 Bad Request.
type Launcher func(ctx context.Context, req StartRequest) (*pipeline.Updater, error)

// Handler handles HTTP requests for the control surface.
type Handler struct {
	runner *pipeline.Runner
	launch Launcher
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(runner *pipeline.Runner, launch Launcher, logger *zap.Logger) *Handler {
	return &Handler{runner: runner, launch: launch, logger: logger}
}

// RegisterRoutes registers the control routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/status", h.HandleStatus)
	group := app.Group("/runs")
	group.Post("/", h.HandleStart)
	group.Get("/transcript", h.HandleTranscript)
}

// HandleStatus returns the runner status.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.runner.Status())
}

// HandleStart starts a run in the background.
func (h *Handler) HandleStart(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req StartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	// Checked before launching so a busy runner does not refetch settings.
	if !h.runner.CanStart() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": pipeline.ErrBusy.Error()})
	}

	u, err := h.launch(c.UserContext(), req)
	if err != nil {
		l.Warn("Run rejected", zap.String("config", req.Config), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.runner.Start(c.UserContext(), u); err != nil {
		if errors.Is(err, pipeline.ErrBusy) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	l.Info("Run started", zap.String("run_id", u.ID()), zap.String("config", u.ConfigName()), zap.Bool("dry_run", req.DryRun))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"run_id":  u.ID(),
		"config":  u.ConfigName(),
		"dry_run": req.DryRun,
	})
}

type transcriptLine struct {
	Level pipeline.Level `json:"level"`
	Text  string         `json:"text"`
	Time  string         `json:"time"`
}

// HandleTranscript returns the transcript with severity prefixes applied.
func (h *Handler) HandleTranscript(c *fiber.Ctx) error {
	lines := h.runner.Transcript()
	out := make([]transcriptLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, transcriptLine{
			Level: line.Level,
			Text:  line.String(),
			Time:  line.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	return c.JSON(fiber.Map{
		"busy":  h.runner.IsBusy(),
		"lines": out,
	})
}
