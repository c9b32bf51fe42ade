package driven

import (
	"context"

	"github.com/mthorne/subwave/internal/domain/model"
)

// SongStore defines the driven port for song persistence, including the
// read-side persistence resolution the download scheduler consumes.
type SongStore interface {
	// ApplySnapshot reconciles one server's songs atomically, preserving
	// local persisted flags on upsert. See ArtistStore.ApplySnapshot.
	ApplySnapshot(ctx context.Context, serverID string, upserts []model.Song, deleteIDs []string) error

	// Get returns nil, nil when the song does not exist.
	Get(ctx context.Context, serverID, id string) (*model.Song, error)
	ListByServer(ctx context.Context, serverID string) ([]model.Song, error)
	ListAll(ctx context.Context) ([]model.Song, error)
	ListByAlbum(ctx context.Context, serverID, albumID string) ([]model.Song, error)
	ListByArtist(ctx context.Context, serverID, artistID string) ([]model.Song, error)
	SearchByTitle(ctx context.Context, serverID, title string) ([]model.Song, error)
	SearchAllByTitle(ctx context.Context, title string) ([]model.Song, error)
	CountByServer(ctx context.Context, serverID string) (int, error)
	CountAll(ctx context.Context) (int, error)
	CountByAlbum(ctx context.Context, serverID, albumID string) (int, error)
	CountByArtist(ctx context.Context, serverID, artistID string) (int, error)

	// SetPersisted flips the user-authored keep flag on one song.
	SetPersisted(ctx context.Context, serverID, id string, persisted bool) error

	// EffectivePersisted reports whether a song must be kept offline: its
	// own flag is set, or its album's, or its artist's. Dangling album or
	// artist references count as false.
	EffectivePersisted(ctx context.Context, serverID, songID string) (bool, error)

	// StrictlyTransitivelyPersisted answers only the album/artist terms,
	// ignoring the song's own flag. It backs UI affordances that must show
	// a song stays kept even if its direct flag is toggled off.
	StrictlyTransitivelyPersisted(ctx context.Context, serverID, songID string) (bool, error)

	// ListPersisted returns every song across all servers whose effective
	// persistence is true. This is the download scheduler's work list.
	ListPersisted(ctx context.Context) ([]model.Song, error)
}
