// Package config provides the YAML profile loader.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/hollowmc/hollow/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileProfileLoader implements ports.ProfileLoader over a YAML file.
type FileProfileLoader struct{}

// NewLoader creates a profile loader.
func NewLoader() *FileProfileLoader {
	return &FileProfileLoader{}
}

// profileDTO is the YAML schema of the profile file.
type profileDTO struct {
	Loader      string              `yaml:"loader"`
	GameVersion string              `yaml:"game_version"`
	ModDir      string              `yaml:"mod_dir"`
	Lockfile    string              `yaml:"lockfile"`
	Mods        []modDTO            `yaml:"mods"`
	Disabled    []refDTO            `yaml:"disabled"`
	Overrides   map[string]refDTO   `yaml:"overrides"`
	Limits      limitsDTO           `yaml:"limits"`
}

type refDTO struct {
	Platform string `yaml:"platform"`
	ID       string `yaml:"id"`
}

type modDTO struct {
	Platform string `yaml:"platform"`
	ID       string `yaml:"id"`
	Version  string `yaml:"version"`
}

type limitsDTO struct {
	DownloadConcurrency int    `yaml:"download_concurrency"`
	RetryAttempts       int    `yaml:"retry_attempts"`
	RequestTimeout      string `yaml:"request_timeout"`
	ResolveTimeout      string `yaml:"resolve_timeout"`
}

// parseDuration reads a Go duration string; empty means "use the default".
func parseDuration(s, field string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "invalid duration in profile"), "field", field)
	}
	return d, nil
}

// Load implements ports.ProfileLoader.
func (l *FileProfileLoader) Load(path string) (*domain.Profile, error) {
	//nolint:gosec // path is provided by user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read profile")
	}

	var dto profileDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse profile"), "path", path)
	}

	return toProfile(filepath.Dir(path), dto)
}

func toProfile(baseDir string, dto profileDTO) (*domain.Profile, error) {
	loader, err := domain.ParseLoader(dto.Loader)
	if err != nil {
		return nil, err
	}
	if dto.GameVersion == "" {
		return nil, zerr.New("profile is missing game_version")
	}

	modDir := dto.ModDir
	if modDir == "" {
		modDir = "mods"
	}
	if !filepath.IsAbs(modDir) {
		modDir = filepath.Join(baseDir, modDir)
	}

	lockPath := dto.Lockfile
	if lockPath == "" {
		lockPath = filepath.Join(filepath.Dir(modDir), domain.DefaultLockfileName)
	} else if !filepath.IsAbs(lockPath) {
		lockPath = filepath.Join(baseDir, lockPath)
	}

	mods := make([]domain.DesiredMod, 0, len(dto.Mods))
	seen := make(map[domain.ModReference]bool)
	for _, m := range dto.Mods {
		ref, err := toRef(refDTO{Platform: m.Platform, ID: m.ID})
		if err != nil {
			return nil, err
		}
		if seen[ref] {
			return nil, zerr.With(zerr.New("duplicate mod in profile"), "mod", ref.Key())
		}
		seen[ref] = true

		constraint, err := domain.ParseConstraint(m.Version)
		if err != nil {
			return nil, zerr.With(err, "mod", ref.Key())
		}
		mods = append(mods, domain.DesiredMod{Ref: ref, Constraint: constraint})
	}

	disabled := make([]domain.ModReference, 0, len(dto.Disabled))
	for _, d := range dto.Disabled {
		ref, err := toRef(d)
		if err != nil {
			return nil, err
		}
		disabled = append(disabled, ref)
	}

	var overrides map[string]domain.ModReference
	if len(dto.Overrides) > 0 {
		overrides = make(map[string]domain.ModReference, len(dto.Overrides))
		for project, d := range dto.Overrides {
			ref, err := toRef(d)
			if err != nil {
				return nil, err
			}
			overrides[project] = ref
		}
	}

	requestTimeout, err := parseDuration(dto.Limits.RequestTimeout, "limits.request_timeout")
	if err != nil {
		return nil, err
	}
	resolveTimeout, err := parseDuration(dto.Limits.ResolveTimeout, "limits.resolve_timeout")
	if err != nil {
		return nil, err
	}

	return &domain.Profile{
		Loader:       loader,
		GameVersion:  domain.GameVersion(dto.GameVersion),
		ModDir:       modDir,
		LockfilePath: lockPath,
		Mods:         mods,
		Disabled:     disabled,
		Overrides:    overrides,
		Limits: domain.Limits{
			DownloadConcurrency: dto.Limits.DownloadConcurrency,
			RetryAttempts:       dto.Limits.RetryAttempts,
			RequestTimeout:      requestTimeout,
			ResolveTimeout:      resolveTimeout,
		}.Normalized(),
	}, nil
}

func toRef(d refDTO) (domain.ModReference, error) {
	platform, err := domain.ParsePlatform(d.Platform)
	if err != nil {
		return domain.ModReference{}, err
	}
	if d.ID == "" {
		return domain.ModReference{}, zerr.With(zerr.New("mod entry is missing id"), "platform", d.Platform)
	}
	return domain.ModReference{Platform: platform, ProjectID: d.ID}, nil
}

var _ ports.ProfileLoader = (*FileProfileLoader)(nil)
