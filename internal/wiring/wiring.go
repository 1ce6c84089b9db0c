// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/hollowmc/hollow/internal/adapters/cache"
	_ "github.com/hollowmc/hollow/internal/adapters/config"
	_ "github.com/hollowmc/hollow/internal/adapters/lockfile"
	_ "github.com/hollowmc/hollow/internal/adapters/logger"
	_ "github.com/hollowmc/hollow/internal/adapters/platform"
	// Register app nodes.
	_ "github.com/hollowmc/hollow/internal/app"
)
