// Package driven defines the ports the application core depends on: the
// protocol client talking to remote OpenSubsonic servers and the stores
// backing the local library mirror.
package driven

import (
	"context"

	"github.com/mthorne/subwave/internal/domain/model"
)

// ServerInfo is the envelope metadata a ping returns, used to verify
// connectivity and credentials.
type ServerInfo struct {
	ProtocolVersion string
	// Software is the server software name ("Navidrome", ...). Empty on a
	// plain Subsonic server.
	Software        string
	SoftwareVersion string
	OpenSubsonic    bool
}

// SearchPage parameterizes one search3 call. The three kinds paginate
// independently; an empty Query asks for everything the server has, bounded
// by the counts.
type SearchPage struct {
	Query        string
	ArtistCount  int
	ArtistOffset int
	AlbumCount   int
	AlbumOffset  int
	SongCount    int
	SongOffset   int
}

// SearchResult is one decoded page of search3 results. The Fetched counts
// are the raw numbers of records the server returned per kind, including
// any malformed ones that were skipped; pagination must terminate on these,
// not on the lengths of the decoded slices.
type SearchResult struct {
	Artists []model.Artist
	Albums  []model.Album
	Songs   []model.Song

	ArtistsFetched int
	AlbumsFetched  int
	SongsFetched   int

	// Skipped holds the per-entity decode failures for this page. A
	// malformed record never fails the page, it is dropped and reported
	// here for the caller to log.
	Skipped []error
}

// LibraryClient is the driven port for one remote OpenSubsonic server.
// Implementations own the server's connection info and must be safe for
// concurrent use across goroutines.
type LibraryClient interface {
	// Ping verifies connectivity and credentials, returning the server's
	// envelope metadata.
	Ping(ctx context.Context) (ServerInfo, error)

	// Search runs one search3 page. Callers wanting the full library page
	// with an empty query until a kind returns fewer records than asked.
	Search(ctx context.Context, page SearchPage) (*SearchResult, error)
}
