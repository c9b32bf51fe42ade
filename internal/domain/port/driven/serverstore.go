package driven

import (
	"context"
	"time"

	"github.com/mthorne/subwave/internal/domain/model"
)

// ServerStore defines the driven port for server configuration persistence.
// Deleting a server removes all library rows mirrored from it.
type ServerStore interface {
	Add(ctx context.Context, server model.Server) error
	Update(ctx context.Context, server model.Server) error
	Delete(ctx context.Context, serverID string) error
	// Get returns nil, nil when no server has the given ID.
	Get(ctx context.Context, serverID string) (*model.Server, error)
	ListAll(ctx context.Context) ([]model.Server, error)
	// SetLastSynced records the start time of a fully successful sync.
	SetLastSynced(ctx context.Context, serverID string, t time.Time) error
}
