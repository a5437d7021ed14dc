package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"keymaster/core/fetch"
	"keymaster/core/logger"
	"keymaster/core/reconcile"
	"keymaster/core/remote"
	"keymaster/core/staging"
	"keymaster/core/storage"
	"keymaster/core/utils"
	"keymaster/feature/keys"
	"keymaster/feature/modlist"
	"keymaster/feature/parfile"
	"keymaster/feature/settings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProtectedKeys are never deleted from the key directory.
var ProtectedKeys = []string{"a3.bikey"}

// Staging subdirectories.
const (
	stageKeys  = "keys"
	stageExtra = "extra"
	stagePar   = "par"
)

// Options are the per-run switches.
type Options struct {
	// DryRun replaces every remote delete and upload with a log line.
	DryRun bool
	// Verbose keeps debug lines in the transcript.
	Verbose bool
}

// Deps are the collaborators of a run.
type Deps struct {
	Fetcher *fetch.Fetcher
	// Dialer opens remote sessions. Required.
	Dialer remote.Dialer
	// Staging holds downloaded and generated files. Required.
	Staging *staging.Area
	// Storage serves s3:// keystores. Only needed for such URLs.
	Storage storage.Client
	// Keystore overrides the keystore derived from the settings.
	Keystore keys.KeySource
	Logger   *zap.Logger
	Observer Observer
}

// Updater performs one sync run for a settings snapshot and config.
type Updater struct {
	id       string
	settings *settings.ServerSettings
	config   *settings.Config
	opts     Options
	deps     Deps

	phase    atomic.Int32
	reporter *Reporter
	logger   *zap.Logger

	// run state
	mapping    keys.Mapping
	export     modlist.Export
	parSource  string
	resolution *keys.Resolution
	extras     []stagedExtra
	probe      remote.Client
	session    remote.Client
	keyPlan    *reconcile.DirPlan
	parPlan    *reconcile.DirPlan
	executed   int
}

type stagedExtra struct {
	file      settings.ExtraFile
	stageName string
}

// NewUpdater creates an Updater in the Idle phase.
func NewUpdater(s *settings.ServerSettings, c *settings.Config, opts Options, deps Deps) *Updater {
	if deps.Fetcher == nil {
		deps.Fetcher = fetch.New(fetch.Options{})
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	id := uuid.NewString()
	l := logger.WithRun(deps.Logger, id).With(zap.String("config", c.Name))
	return &Updater{
		id:       id,
		settings: s,
		config:   c,
		opts:     opts,
		deps:     deps,
		reporter: NewReporter(opts.Verbose, l, deps.Observer),
		logger:   l,
	}
}

// ID returns the run id.
func (u *Updater) ID() string { return u.id }

// Phase returns the current phase.
func (u *Updater) Phase() Phase { return Phase(u.phase.Load()) }

// Reporter returns the transcript of the run.
func (u *Updater) Reporter() *Reporter { return u.reporter }

// Options returns the run switches.
func (u *Updater) Options() Options { return u.opts }

// ConfigName returns the name of the deployed config.
func (u *Updater) ConfigName() string { return u.config.Name }

// Run executes the pipeline. It returns the first fault; panics are
// recovered and returned as errors. The remote store is left as is.
func (u *Updater) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: stack()}
		}
		u.closeSessions()
		if err != nil {
			u.reportFailure(err)
		}
	}()

	steps := []struct {
		phase Phase
		skip  bool
		fn    func(context.Context) error
	}{
		{PhaseStarting, false, u.start},
		{PhaseDownloadingMappingFile, u.settings.KeyStrategy != settings.StrategyMapping, u.downloadMapping},
		{PhaseDownloadingModList, false, u.downloadModList},
		{PhaseDownloadingParFile, false, u.downloadParFile},
		{PhaseProcessingDownloadedData, false, u.process},
		{PhaseDownloadingKeyFiles, false, u.downloadKeys},
		{PhaseDownloadingExtraFiles, false, u.downloadExtraFiles},
		{PhaseConnectingToRemote, false, u.connect},
		{PhaseRemovingStaleKeys, false, u.removeStaleKeys},
		{PhaseUploadingNewKeys, false, u.uploadKeys},
		{PhaseUploadingExtraFiles, false, u.uploadExtraFiles},
		{PhaseRemovingStaleParFile, false, u.removeStaleParFile},
		{PhaseUploadingNewParFile, false, u.uploadParFile},
	}

	for _, step := range steps {
		if step.skip {
			u.reporter.Debugf("Skipping phase %s", step.phase)
			continue
		}
		u.advance(step.phase)
		if err := step.fn(ctx); err != nil {
			return err
		}
	}

	u.advance(PhaseDone)
	if u.opts.DryRun {
		u.reporter.Messagef("Dry run complete. No changes were made to the server.")
	} else {
		u.reporter.Messagef("Successfully updated server! (%d remote operations)", u.executed)
	}
	return nil
}

func (u *Updater) advance(next Phase) {
	current := u.Phase()
	if next <= current {
		return
	}
	u.reporter.Debugf("Finished phase %s", current)
	u.phase.Store(int32(next))
	u.reporter.Debugf("Starting phase %s", next)
	if u.deps.Observer != nil {
		u.deps.Observer.PhaseChanged(current, next)
	}
}

func (u *Updater) start(ctx context.Context) error {
	if u.deps.Dialer == nil {
		return errors.New("no remote dialer configured")
	}
	if u.deps.Staging == nil {
		return errors.New("no staging area configured")
	}
	u.reporter.Messagef("Starting update of config %s...", u.config.Name)
	u.reporter.Debugf("Key strategy: %s", u.settings.KeyStrategy)
	u.reporter.Debugf("Remote base path: %s", u.settings.FTPBasePath)
	u.reporter.Debugf("Staging directory: %s", u.deps.Staging.Dir())
	if u.opts.DryRun {
		u.reporter.Messagef("Dry run: remote files will be listed but not changed.")
	}
	return nil
}

func (u *Updater) downloadMapping(ctx context.Context) error {
	m, err := keys.LoadMapping(ctx, u.deps.Fetcher, u.settings.KeyMappingFileURL)
	if err != nil {
		return fmt.Errorf("failed to download mapping file: %w", err)
	}
	u.mapping = m
	u.reporter.Debugf("Mapping file lists %d mods", len(m))
	return nil
}

func (u *Updater) downloadModList(ctx context.Context) error {
	text, err := u.deps.Fetcher.Text(ctx, fetch.KindModList, u.config.ModListURL)
	if err != nil {
		return fmt.Errorf("failed to download mod list: %w", err)
	}
	u.export = modlist.ParseExport(text)
	if u.export.Name != "" {
		u.reporter.Messagef("Mod list for server: %s", u.export.Name)
	}
	u.reporter.Debugf("Mod list names %d mods", len(u.export.Mods))
	return nil
}

func (u *Updater) downloadParFile(ctx context.Context) error {
	text, err := u.deps.Fetcher.Text(ctx, fetch.KindParFile, u.config.ParFileURL)
	if err != nil {
		return fmt.Errorf("failed to download parameters file: %w", err)
	}
	u.parSource = text
	return nil
}

func (u *Updater) process(ctx context.Context) error {
	resolver, err := u.resolver(ctx)
	if err != nil {
		return err
	}

	in := keys.Input{Mods: u.export.Mods, Settings: u.settings, Config: u.config}
	u.reporter.Messagef("Looking up keys for %d mods.", len(keys.KeyMods(in.Mods, in.Settings)))
	res, err := keys.Resolve(ctx, resolver, in)
	if err != nil {
		var unresolved *keys.UnresolvedModError
		if errors.As(err, &unresolved) {
			u.reporter.Errorf("Unable to find keys associated with the following mods (is the mapping up to date?):")
			for _, mod := range unresolved.Mods {
				u.reporter.Errorf("\t%s", mod)
			}
		}
		return err
	}
	u.resolution = res
	for _, key := range res.Blacklisted {
		u.reporter.Debugf("Removed blacklisted key %s", key)
	}
	u.reporter.Debugf("Server mods: %s", strings.Join(res.ServerMods, ", "))
	u.reporter.Debugf("Mod command line: %s", res.ModCommandLine)

	// Always rewrite the freshly downloaded source.
	rewritten := parfile.Rewrite(u.parSource, res.ModCommandLine)
	if diff := parfile.Diff(u.settings.FTPParFileName, u.parSource, rewritten); diff != "" {
		u.reporter.Debugf("Parameters file changes:\n%s", strings.TrimRight(diff, "\n"))
	}
	if _, err := u.deps.Staging.Write(stagePar, path.Base(u.settings.ParFilePath()), strings.NewReader(rewritten)); err != nil {
		return err
	}
	return nil
}

func (u *Updater) resolver(ctx context.Context) (keys.Resolver, error) {
	if u.settings.KeyStrategy != settings.StrategyProbe {
		return &keys.MappingResolver{Mapping: u.mapping}, nil
	}
	client, err := u.deps.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s for key probing: %w", u.settings.FTPAddress, err)
	}
	u.probe = client
	return &keys.ProbeResolver{
		Client:         client,
		BasePath:       u.settings.FTPBasePath,
		ClientOnlyMods: u.settings.ClientOnlyMods,
		Log:            u.reporter,
	}, nil
}

func (u *Updater) keySource(ctx context.Context) (keys.KeySource, error) {
	store, err := u.keystore(ctx)
	if err != nil {
		return nil, err
	}
	if u.probe != nil {
		// Manual keys carry no remote path and come from the keystore.
		return &keys.RemoteSource{Client: u.probe, Fallback: store}, nil
	}
	if store == nil {
		return nil, fmt.Errorf("no keystore configured")
	}
	return store, nil
}

// keystore returns the configured keystore, or nil when there is none.
func (u *Updater) keystore(ctx context.Context) (keys.KeySource, error) {
	switch {
	case u.deps.Keystore != nil:
		return u.deps.Keystore, nil
	case u.settings.KeystoreURL == "":
		return nil, nil
	case storage.IsStorageURL(u.settings.KeystoreURL):
		if u.deps.Storage == nil {
			return nil, fmt.Errorf("keystore %s needs storage credentials", u.settings.KeystoreURL)
		}
		ks, err := keys.NewS3Keystore(u.deps.Storage, u.settings.KeystoreURL)
		if err != nil {
			return nil, err
		}
		if err := ks.Check(ctx); err != nil {
			return nil, err
		}
		return ks, nil
	default:
		return &keys.HTTPKeystore{Fetcher: u.deps.Fetcher, BaseURL: u.settings.KeystoreURL}, nil
	}
}

func (u *Updater) downloadKeys(ctx context.Context) error {
	src, err := u.keySource(ctx)
	if err != nil {
		return err
	}
	if err := u.deps.Staging.Prepare(stageKeys); err != nil {
		return err
	}

	u.reporter.Messagef("Grabbing %d key(s) needed for update:", u.resolution.Keys.Len())
	create := func(name string) (io.WriteCloser, error) {
		return u.deps.Staging.Create(stageKeys, name)
	}
	n, err := keys.Download(ctx, src, u.resolution.Keys, create, u.reporter)
	if err != nil {
		return err
	}
	u.reporter.Debugf("Downloaded %d bytes of keys", n)

	// The probe session is not reused for reconciliation.
	if u.probe != nil {
		_ = u.probe.Close()
		u.probe = nil
	}
	return nil
}

func (u *Updater) downloadExtraFiles(ctx context.Context) error {
	seen := make(map[string]struct{})
	for i, extra := range u.config.ExtraFiles {
		key := utils.FoldKey(extra.Destination)
		if _, dup := seen[key]; dup {
			u.reporter.Debugf("Ignoring duplicate destination %s for %s", extra.Destination, extra.Source)
			continue
		}
		seen[key] = struct{}{}

		stageName := fmt.Sprintf("%03d-%s", i, path.Base(extra.Destination))
		f, err := u.deps.Staging.Create(stageExtra, stageName)
		if err != nil {
			return err
		}
		_, err = u.deps.Fetcher.Download(ctx, fetch.KindExtraFile, extra.Source, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to download extra file %s: %w", extra.Source, err)
		}
		u.reporter.Messagef("\tDownloaded %s", extra.Source)
		u.extras = append(u.extras, stagedExtra{file: extra, stageName: stageName})
	}
	return nil
}

func (u *Updater) connect(ctx context.Context) error {
	u.reporter.Messagef("Connecting to %s...", u.settings.FTPAddress)
	client, err := u.deps.Dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", u.settings.FTPAddress, err)
	}
	u.session = client
	u.reporter.Messagef("Connected.")
	return nil
}

func (u *Updater) removeStaleKeys(ctx context.Context) error {
	spec := reconcile.DirSpec{
		Label:     "keys",
		Dir:       u.settings.KeysDir(),
		Scope:     reconcile.ScopeExclusive,
		Protected: ProtectedKeys,
	}
	for _, req := range u.resolution.Keys.List() {
		spec.Desired = append(spec.Desired, reconcile.DesiredFile{
			Name:     req.Name,
			StageDir: stageKeys,
			Reason:   strings.Join(req.Mods, ","),
		})
	}

	plan, err := u.plan(ctx, spec)
	if err != nil {
		return err
	}
	u.keyPlan = plan
	return u.apply(ctx, plan.Deletes())
}

func (u *Updater) uploadKeys(ctx context.Context) error {
	return u.apply(ctx, u.keyPlan.Uploads())
}

func (u *Updater) uploadExtraFiles(ctx context.Context) error {
	if len(u.extras) == 0 {
		u.reporter.Debugf("No extra files to upload")
		return nil
	}

	var dirs []string
	byDir := make(map[string][]reconcile.DesiredFile)
	for _, e := range u.extras {
		dir := remote.Dir(e.file.Destination)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], reconcile.DesiredFile{
			Name:      path.Base(e.file.Destination),
			StageDir:  stageExtra,
			StageName: e.stageName,
			Reason:    e.file.Source,
		})
	}

	for _, dir := range dirs {
		plan, err := u.plan(ctx, reconcile.DirSpec{
			Label:   "extra files",
			Dir:     dir,
			Scope:   reconcile.ScopeReplace,
			Desired: byDir[dir],
		})
		if err != nil {
			return err
		}
		if err := u.apply(ctx, plan.Actions); err != nil {
			return err
		}
	}
	return nil
}

func (u *Updater) removeStaleParFile(ctx context.Context) error {
	parPath := u.settings.ParFilePath()
	plan, err := u.plan(ctx, reconcile.DirSpec{
		Label: "parameters file",
		Dir:   remote.Dir(parPath),
		Scope: reconcile.ScopeReplace,
		Desired: []reconcile.DesiredFile{{
			Name:     path.Base(parPath),
			StageDir: stagePar,
			Reason:   u.config.ParFileURL,
		}},
	})
	if err != nil {
		return err
	}
	u.parPlan = plan
	return u.apply(ctx, plan.Deletes())
}

func (u *Updater) uploadParFile(ctx context.Context) error {
	return u.apply(ctx, u.parPlan.Uploads())
}

func (u *Updater) plan(ctx context.Context, spec reconcile.DirSpec) (*reconcile.DirPlan, error) {
	plan, err := reconcile.PlanDir(ctx, u.session, spec)
	if err != nil {
		return nil, err
	}
	s := plan.Summary
	u.reporter.Messagef("Checking %s in %s: %d listed, %d stale, %d to upload", spec.Label, spec.Dir, s.Listed, s.Stale, s.Uploads)
	if s.Protected > 0 {
		u.reporter.Debugf("Keeping %d protected file(s) in %s", s.Protected, spec.Dir)
	}
	if s.Untouched > 0 {
		u.reporter.Debugf("Leaving %d unrelated file(s) in %s", s.Untouched, spec.Dir)
	}
	return plan, nil
}

func (u *Updater) apply(ctx context.Context, actions []reconcile.Action) error {
	n, err := reconcile.ApplyActions(ctx, u.session, u.deps.Staging, actions, reconcile.ReconcileOptions{
		DryRun:   u.opts.DryRun,
		OnAction: u.reportAction,
	})
	u.executed += n
	return err
}

func (u *Updater) reportAction(a reconcile.Action, executed bool) {
	verb := "Removing"
	if a.Type == reconcile.ActionUpload {
		verb = "Uploading"
	}
	if !executed {
		u.reporter.Messagef("\t[Dry run] %s %s (%s) skipped", verb, a.Path, a.Reason)
		return
	}
	u.reporter.Messagef("\t%s %s (%s)", verb, a.Path, a.Reason)
}

func (u *Updater) closeSessions() {
	if u.probe != nil {
		_ = u.probe.Close()
		u.probe = nil
	}
	if u.session != nil {
		if err := u.session.Close(); err != nil {
			u.reporter.Debugf("Closing remote session failed: %v", err)
		}
		u.session = nil
	}
}
