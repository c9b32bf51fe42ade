package driven

import (
	"context"

	"github.com/mthorne/subwave/internal/domain/model"
)

// AlbumStore defines the driven port for album persistence.
type AlbumStore interface {
	// ApplySnapshot reconciles one server's albums atomically, preserving
	// local persisted flags on upsert. See ArtistStore.ApplySnapshot.
	ApplySnapshot(ctx context.Context, serverID string, upserts []model.Album, deleteIDs []string) error

	// Get returns nil, nil when the album does not exist.
	Get(ctx context.Context, serverID, id string) (*model.Album, error)
	ListByServer(ctx context.Context, serverID string) ([]model.Album, error)
	ListAll(ctx context.Context) ([]model.Album, error)
	ListByArtist(ctx context.Context, serverID, artistID string) ([]model.Album, error)
	SearchByName(ctx context.Context, serverID, name string) ([]model.Album, error)
	SearchAllByName(ctx context.Context, name string) ([]model.Album, error)
	CountByServer(ctx context.Context, serverID string) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountByArtist(ctx context.Context, serverID, artistID string) (int, error)

	// SetPersisted flips the user-authored keep flag on one album.
	SetPersisted(ctx context.Context, serverID, id string, persisted bool) error
}
