package kv

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/flipfusion/internal/adapters/logger"
)

// NodeID is the unique identifier for the Badger cache store Graft node.
const NodeID graft.ID = "adapter.cache_store.badger"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Store, error) {
			lg, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(WithLogger(NewSlogLogger(lg.Slog))), nil
		},
	})
}
