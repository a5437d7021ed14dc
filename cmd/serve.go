package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"keymaster/core/loader"
	"keymaster/core/logger"
	"keymaster/core/middleware/auth"
	"keymaster/core/middleware/rayid"
	"keymaster/feature/control"
	"keymaster/feature/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd starts the HTTP control surface.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control server",
	Long: `Starts an HTTP server that accepts sync runs, reports progress and
serves the transcript of the latest run. Only one run executes at a time.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	logg := env.logger
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	if !env.cfg.Server.IsProtected() {
		logg.Warn("SERVER_API_KEY is empty; the control API is unauthenticated")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	runner := pipeline.NewRunner(logg)
	launch := func(ctx context.Context, req control.StartRequest) (*pipeline.Updater, error) {
		name := req.Config
		if name == "" {
			name = env.cfg.Run.Config
		}
		if name == "" {
			return nil, fmt.Errorf("no config given")
		}
		opts := pipeline.Options{DryRun: req.DryRun, Verbose: req.Verbose || env.cfg.Run.Verbose}
		return env.prepare(ctx, env.cfg.Run.SettingsURL, name, opts, nil)
	}

	mgr := loader.NewManager()
	mgr.Register(control.NewFeature(runner, launch, logg))

	// RayID first so every later log line carries it
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Use(auth.New(auth.Config{ApiKey: env.cfg.Server.ApiKey}))

	loaded, err := mgr.LoadAll(app)
	if err != nil {
		return fmt.Errorf("failed to load features: %w", err)
	}
	logg.Info("Features loaded", zap.Strings("features", loaded))

	errc := make(chan error, 1)
	go func() {
		logg.Info("Starting server", zap.String("addr", env.cfg.Server.Addr()))
		errc <- app.Listen(env.cfg.Server.Addr())
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("server failed to start: %w", err)
	case <-c:
	}

	logg.Info("Shutting down server...")
	if runner.IsBusy() {
		logg.Info("Waiting for the sync run in flight to finish")
		runner.Wait()
	}
	return app.Shutdown()
}
