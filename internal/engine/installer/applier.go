package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// asidePrefix names the temporary files the commit phase parks displaced
// artifacts under until the whole plan has gone through.
const asidePrefix = ".hollow-undo-"

// Applier executes install plans against a mod directory.
type Applier struct {
	cache ports.ArtifactCache
	locks ports.LockfileStore
	log   ports.Logger
}

// NewApplier creates an Applier sourcing artifacts from cache and
// persisting state through locks.
func NewApplier(cache ports.ArtifactCache, locks ports.LockfileStore, log ports.Logger) *Applier {
	return &Applier{cache: cache, locks: locks, log: log}
}

// ApplyOptions tunes a single Apply call.
type ApplyOptions struct {
	ModDir       string
	LockfilePath string
	// Concurrency bounds parallel artifact downloads during staging.
	Concurrency int
}

// staged is the local blob backing one Add/Update step.
type staged struct {
	blobPath string
	checksum string
}

// Apply executes the plan: it stages every new artifact into the cache,
// verifies it, and only then mutates the mod directory. The mutation phase
// keeps an undo journal; any failure rolls the directory back to its prior
// state and returns ErrInstallFailed. The lockfile is written only after
// every file operation succeeded, so a crash at any point leaves either the
// old state or the new state, never a mix the lockfile doesn't describe.
func (a *Applier) Apply(ctx context.Context, plan domain.Plan, lf *domain.Lockfile, opts ApplyOptions) (*domain.Lockfile, error) {
	if err := os.MkdirAll(opts.ModDir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create mod directory")
	}

	lock, err := acquireDirLock(opts.ModDir)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	stagedFiles, err := a.stage(ctx, plan, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	// Strict cancellation point: nothing in the mod directory has been
	// touched yet, so aborting here is free.
	if err := ctx.Err(); err != nil {
		return nil, zerr.Wrap(err, "apply cancelled before commit")
	}

	next := lf.Clone()
	journal := &undoJournal{}

	if err := a.commit(plan, stagedFiles, next, journal, opts.ModDir); err != nil {
		journal.rollback(a.log)
		return nil, zerr.Wrap(errors.Join(domain.ErrInstallFailed, err), "mod directory rolled back")
	}

	if err := a.locks.Save(opts.LockfilePath, next); err != nil {
		journal.rollback(a.log)
		return nil, zerr.Wrap(errors.Join(domain.ErrInstallFailed, err), "failed to persist lockfile, mod directory rolled back")
	}

	journal.discard()
	a.sweepOrphans(opts.ModDir, next)

	return next, nil
}

// stage downloads every artifact the plan adds or updates, bounded by
// concurrency, and verifies each against its checksum. Nothing outside the
// cache is written.
func (a *Applier) stage(ctx context.Context, plan domain.Plan, concurrency int) (map[int]staged, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	out := make(map[int]staged, len(plan.Steps))
	var results = make([]staged, len(plan.Steps))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, step := range plan.Steps {
		if step.Action != domain.ActionAdd && step.Action != domain.ActionUpdate {
			continue
		}
		g.Go(func() error {
			path, checksum, err := a.cache.Obtain(ctx, step.Version)
			if err != nil {
				return zerr.With(err, "mod", step.Ref.Key())
			}
			// Nothing is installed without a hash to verify and record, not
			// even a first-use-trust artifact.
			if checksum == "" {
				return zerr.With(zerr.Wrap(domain.ErrChecksumUnavailable, "refusing to install unverifiable artifact"), "mod", step.Ref.Key())
			}
			if err := domain.VerifyFile(path, checksum); err != nil {
				return zerr.With(err, "mod", step.Ref.Key())
			}
			results[i] = staged{blobPath: path, checksum: checksum}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, step := range plan.Steps {
		if step.Action == domain.ActionAdd || step.Action == domain.ActionUpdate {
			out[i] = results[i]
		}
	}
	return out, nil
}

// commit walks the plan in order, mutating the directory and the lockfile
// clone, journaling an undo for every completed file operation.
func (a *Applier) commit(plan domain.Plan, stagedFiles map[int]staged, next *domain.Lockfile, journal *undoJournal, modDir string) error {
	for i, step := range plan.Steps {
		switch step.Action {
		case domain.ActionNoOp:
			continue

		case domain.ActionAdd:
			s := stagedFiles[i]
			entry := a.lockEntry(step, s)
			if err := installBlob(journal, s.blobPath, filepath.Join(modDir, entry.InstalledName())); err != nil {
				return err
			}
			next.Put(entry)
			a.log.Info("installed mod", "mod", step.Ref.Key(), "version", step.Version.ID, "file", entry.FileName)

		case domain.ActionUpdate:
			s := stagedFiles[i]
			entry := a.lockEntry(step, s)
			if err := parkAside(journal, filepath.Join(modDir, step.Old.InstalledName()), i); err != nil {
				return err
			}
			if err := installBlob(journal, s.blobPath, filepath.Join(modDir, entry.InstalledName())); err != nil {
				return err
			}
			next.Put(entry)
			a.log.Info("updated mod", "mod", step.Ref.Key(),
				"from", step.Old.VersionID, "to", step.Version.ID)

		case domain.ActionRemove:
			if err := parkAside(journal, filepath.Join(modDir, step.Old.InstalledName()), i); err != nil {
				return err
			}
			next.Remove(step.Ref)
			a.log.Info("removed mod", "mod", step.Ref.Key(), "version", step.Old.VersionID)

		case domain.ActionDisable, domain.ActionEnable:
			entry := *step.Old
			entry.Disabled = step.Disabled
			if err := renameTracked(journal,
				filepath.Join(modDir, step.Old.InstalledName()),
				filepath.Join(modDir, entry.InstalledName())); err != nil {
				return err
			}
			next.Put(entry)
			a.log.Info(string(step.Action)+"d mod", "mod", step.Ref.Key())
		}
	}
	return nil
}

func (a *Applier) lockEntry(step domain.PlanStep, s staged) domain.LockEntry {
	return domain.LockEntry{
		Ref:       step.Ref,
		VersionID: step.Version.ID,
		FileName:  step.Version.InstallFileName(),
		Checksum:  s.checksum,
		Disabled:  step.Disabled,
	}
}

// sweepOrphans reports jar files in the mod directory that no lock entry
// accounts for. They are never deleted: the user/ directory and anything
// placed by hand stay untouched.
func (a *Applier) sweepOrphans(modDir string, lf *domain.Lockfile) {
	known := make(map[string]bool, len(lf.Mods))
	for _, e := range lf.Mods {
		known[e.InstalledName()] = true
	}

	entries, err := os.ReadDir(modDir)
	if err != nil {
		a.log.Warn("failed to scan mod directory for orphans", "error", err)
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || known[name] {
			continue
		}
		base := strings.TrimSuffix(name, domain.DisabledSuffix)
		if strings.HasSuffix(base, ".jar") {
			a.log.Warn("unmanaged file in mod directory", "file", name)
		}
	}
}

// undoJournal records completed file operations so a mid-commit failure can
// be unwound in reverse order.
type undoJournal struct {
	undos  []func() error
	asides []string
}

func (j *undoJournal) add(undo func() error) {
	j.undos = append(j.undos, undo)
}

func (j *undoJournal) rollback(log ports.Logger) {
	for i := len(j.undos) - 1; i >= 0; i-- {
		if err := j.undos[i](); err != nil {
			log.Warn("rollback step failed", "error", err)
		}
	}
	j.undos = nil
	j.asides = nil
}

// discard deletes the parked aside files once the plan has fully succeeded.
func (j *undoJournal) discard() {
	for _, p := range j.asides {
		_ = os.Remove(p)
	}
	j.undos = nil
	j.asides = nil
}

// parkAside moves an installed file out of the way instead of deleting it,
// so rollback can restore the original bytes. A missing source is
// tolerated: re-running after a crash must not fail on work already done.
func parkAside(j *undoJournal, path string, seq int) error {
	aside := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s%d-%s", asidePrefix, seq, filepath.Base(path)))
	if err := os.Rename(path, aside); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return zerr.Wrap(err, "failed to displace installed file")
	}
	j.asides = append(j.asides, aside)
	j.add(func() error { return os.Rename(aside, path) })
	return nil
}

// installBlob copies a cache blob into the mod directory via a temp file
// and rename, so a partially written jar is never visible under its final
// name.
func installBlob(j *undoJournal, blobPath, target string) error {
	src, err := os.Open(blobPath) //nolint:gosec
	if err != nil {
		return zerr.Wrap(err, "failed to open cached artifact")
	}
	defer func() { _ = src.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(target), ".hollow-install-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create install temp file")
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to copy artifact into mod directory")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to flush installed artifact")
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to set artifact permissions")
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return zerr.Wrap(err, "failed to place artifact")
	}

	j.add(func() error { return os.Remove(target) })
	return nil
}

func renameTracked(j *undoJournal, from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return zerr.Wrap(err, "failed to rename installed file")
	}
	j.add(func() error { return os.Rename(to, from) })
	return nil
}
