package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/hollowmc/hollow/internal/adapters/cache"
	"github.com/hollowmc/hollow/internal/adapters/config"
	"github.com/hollowmc/hollow/internal/adapters/lockfile"
	"github.com/hollowmc/hollow/internal/adapters/logger"
	"github.com/hollowmc/hollow/internal/adapters/platform"
	"github.com/hollowmc/hollow/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			platform.NodeID,
			cache.NodeID,
			lockfile.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			profiles, err := graft.Dep[ports.ProfileLoader](ctx)
			if err != nil {
				return nil, err
			}

			platforms, err := graft.Dep[*platform.Registry](ctx)
			if err != nil {
				return nil, err
			}

			artifacts, err := graft.Dep[ports.ArtifactCache](ctx)
			if err != nil {
				return nil, err
			}

			locks, err := graft.Dep[ports.LockfileStore](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(profiles, platforms, artifacts, locks, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}
