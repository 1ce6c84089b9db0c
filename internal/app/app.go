// Package app implements the application layer: it glues the profile
// loader, the resolver and the installer into the engine's operations.
package app

import (
	"context"

	"github.com/hollowmc/hollow/internal/adapters/platform"
	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"github.com/hollowmc/hollow/internal/engine/installer"
	"github.com/hollowmc/hollow/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	profiles  ports.ProfileLoader
	platforms *platform.Registry
	cache     ports.ArtifactCache
	locks     ports.LockfileStore
	log       ports.Logger
}

// New creates a new App instance.
func New(
	profiles ports.ProfileLoader,
	platforms *platform.Registry,
	cache ports.ArtifactCache,
	locks ports.LockfileStore,
	log ports.Logger,
) *App {
	return &App{
		profiles:  profiles,
		platforms: platforms,
		cache:     cache,
		locks:     locks,
		log:       log,
	}
}

// Components bundles everything the command layer needs.
type Components struct {
	App    *App
	Logger ports.Logger
}

// Plan resolves the profile at configPath and returns the install plan
// without touching the mod directory.
func (a *App) Plan(ctx context.Context, configPath string) (domain.Plan, error) {
	plan, _, _, err := a.plan(ctx, configPath)
	return plan, err
}

// Upgrade resolves the profile at configPath and applies the resulting
// plan to the mod directory. It returns the executed plan for reporting.
func (a *App) Upgrade(ctx context.Context, configPath string) (domain.Plan, error) {
	plan, profile, lf, err := a.plan(ctx, configPath)
	if err != nil {
		return domain.Plan{}, err
	}

	if plan.IsNoOp() {
		a.log.Info("mod directory is up to date", "mods", len(plan.Steps))
		return plan, nil
	}

	applier := installer.NewApplier(a.cache, a.locks, a.log)
	if _, err := applier.Apply(ctx, plan, lf, installer.ApplyOptions{
		ModDir:       profile.ModDir,
		LockfilePath: profile.LockfilePath,
		Concurrency:  profile.Limits.DownloadConcurrency,
	}); err != nil {
		return domain.Plan{}, err
	}

	a.log.Info("upgrade complete", "plan", plan.Summary())
	return plan, nil
}

// plan is the shared resolve-and-diff phase of Plan and Upgrade.
func (a *App) plan(ctx context.Context, configPath string) (domain.Plan, *domain.Profile, *domain.Lockfile, error) {
	profile, err := a.profiles.Load(configPath)
	if err != nil {
		return domain.Plan{}, nil, nil, zerr.Wrap(err, "failed to load profile")
	}

	// Per-run retry and timeout policy comes from the profile, layered
	// over the shared clients.
	reg := a.platforms.WithPolicy(profile.Limits.RetryAttempts, profile.Limits.RequestTimeout)

	rctx := ctx
	if profile.Limits.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, profile.Limits.ResolveTimeout)
		defer cancel()
	}

	result, err := resolver.New(reg, a.log).Resolve(rctx, profile.Request())
	if err != nil {
		return domain.Plan{}, nil, nil, zerr.Wrap(err, "resolution failed")
	}

	lf, err := a.locks.Load(profile.LockfilePath)
	if err != nil {
		return domain.Plan{}, nil, nil, zerr.Wrap(err, "failed to load lockfile")
	}

	return installer.Plan(result, lf, profile.DisabledSet()), profile, lf, nil
}
