// Package model holds the library entities mirrored from remote servers,
// plus the server configuration records that scope them. Artists, albums,
// and songs are keyed by (ServerID, ID); the remote-assigned ID is only
// unique within one server.
package model

import "time"

// Artist mirrors an OpenSubsonic ArtistID3 record. Optional protocol fields
// are pointers; nil means the server did not report them. Counts like
// albumCount are not stored, they are derived from the albums table.
type Artist struct {
	ID       string
	ServerID string
	Name     string
	// CoverArt is the ID used to fetch artwork via getCoverArt.
	CoverArt       *string
	ArtistImageURL *string
	// Starred is when the artist was starred on the server. Nil if not starred.
	Starred       *time.Time
	MusicBrainzID *string
	SortName      *string

	// Persisted marks this artist to be kept offline. When true, every song
	// by the artist is downloaded at any opportunity and never reaped for
	// space, regardless of the flags on individual albums or songs. This is
	// local-only state; the remote server knows nothing about it.
	Persisted bool
}

// NormalizeGenres deduplicates a genre list case-sensitively, preserving
// first-seen order. Genre lists are semantically sets even though they are
// surfaced as ordered slices.
func NormalizeGenres(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(genres))
	out := genres[:0:0]
	for _, g := range genres {
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
