package ports

import "github.com/hollowmc/hollow/internal/core/domain"

// ProfileLoader loads and validates the desired-set configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ProfileLoader interface {
	// Load reads the profile at path.
	Load(path string) (*domain.Profile, error)
}
