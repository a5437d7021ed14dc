package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"keymaster/core/config"
	"keymaster/core/fetch"
	"keymaster/core/logger"
	"keymaster/core/remote"
	"keymaster/core/staging"
	"keymaster/core/storage"
	"keymaster/feature/pipeline"
	"keymaster/feature/settings"

	"go.uber.org/zap"
)

// environment bundles what every command needs after startup.
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	fetcher *fetch.Fetcher
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &environment{
		cfg:     cfg,
		logger:  logg,
		fetcher: fetch.New(cfg.Fetch.Options()),
	}, nil
}

// loadSettings fetches the settings document and applies the version gate.
func (e *environment) loadSettings(ctx context.Context, url string) (*settings.ServerSettings, error) {
	if url == "" {
		return nil, fmt.Errorf("no settings URL given (use --settings-url or RUN_SETTINGS_URL)")
	}

	s, err := settings.Load(ctx, e.fetcher, url)
	if err != nil {
		return nil, err
	}

	build, err := buildVersion()
	if err != nil {
		return nil, err
	}
	if err := settings.CheckVersion(build, s.LatestVersion); err != nil {
		return nil, err
	}
	return s, nil
}

// prepare builds an Updater for one run of the named config.
func (e *environment) prepare(ctx context.Context, url, name string, opts pipeline.Options, observer pipeline.Observer) (*pipeline.Updater, error) {
	s, err := e.loadSettings(ctx, url)
	if err != nil {
		return nil, err
	}

	c, err := s.Config(name)
	if err != nil {
		return nil, err
	}

	deps := pipeline.Deps{
		Fetcher:  e.fetcher,
		Dialer:   e.dialer(s),
		Staging:  staging.NewOS(e.stagingDir()),
		Logger:   e.logger,
		Observer: observer,
	}

	if storage.IsStorageURL(s.KeystoreURL) {
		client, err := storage.NewClient(e.cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		deps.Storage = client
	}

	return pipeline.NewUpdater(s, c, opts, deps), nil
}

func (e *environment) dialer(s *settings.ServerSettings) remote.Dialer {
	return remote.NewDialer(remote.Config{
		Address:        s.FTPAddress,
		User:           s.FTPUser,
		Password:       s.FTPPassword,
		TimeoutSeconds: e.cfg.Run.RemoteTimeoutSeconds,
		KnownHostsFile: e.cfg.Run.KnownHostsFile,
		Logger:         e.logger,
	})
}

func (e *environment) stagingDir() string {
	if e.cfg.Run.StagingDir != "" {
		return e.cfg.Run.StagingDir
	}
	return filepath.Join(os.TempDir(), "keymaster")
}
