package driven

import (
	"context"

	"github.com/mthorne/subwave/internal/domain/model"
)

// ArtistStore defines the driven port for artist persistence.
type ArtistStore interface {
	// ApplySnapshot reconciles one server's artists in a single atomic
	// step: upserts overwrite every remote-owned field but leave the
	// local persisted flag alone, and deleteIDs are removed. Either the
	// whole snapshot applies or none of it does.
	ApplySnapshot(ctx context.Context, serverID string, upserts []model.Artist, deleteIDs []string) error

	// Get returns nil, nil when the artist does not exist.
	Get(ctx context.Context, serverID, id string) (*model.Artist, error)
	ListByServer(ctx context.Context, serverID string) ([]model.Artist, error)
	ListAll(ctx context.Context) ([]model.Artist, error)
	SearchByName(ctx context.Context, serverID, name string) ([]model.Artist, error)
	SearchAllByName(ctx context.Context, name string) ([]model.Artist, error)
	CountByServer(ctx context.Context, serverID string) (int, error)
	CountAll(ctx context.Context) (int, error)

	// SetPersisted flips the user-authored keep flag on one artist.
	SetPersisted(ctx context.Context, serverID, id string, persisted bool) error
}
