package control

import (
	"keymaster/feature/pipeline"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature wires the control surface into the loader.
type Feature struct {
	handler *Handler
}

// NewFeature creates a new control feature.
func NewFeature(runner *pipeline.Runner, launch Launcher, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(runner, launch, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "control"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
