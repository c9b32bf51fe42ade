package subsonic

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mthorne/subwave/internal/domain/model"
)

// dateLayout is the one wire format OpenSubsonic dates arrive in:
// ISO 8601 with milliseconds and a numeric offset (or Z). Anything else is
// a decode failure, not a silently defaulted value.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	HelpURL string `json:"helpUrl"`
}

type searchResultBody struct {
	Artists []json.RawMessage `json:"artist"`
	Albums  []json.RawMessage `json:"album"`
	Songs   []json.RawMessage `json:"song"`
}

type envelopeBody struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Type          string            `json:"type"`
	ServerVersion string            `json:"serverVersion"`
	OpenSubsonic  bool              `json:"openSubsonic"`
	Error         *errorBody        `json:"error"`
	SearchResult3 *searchResultBody `json:"searchResult3"`
}

type envelopeContainer struct {
	Response *envelopeBody `json:"subsonic-response"`
}

// decodeEnvelope parses a 200 response body and classifies it: a malformed
// body or missing container is a MalformedResponseError, a well-formed
// failure envelope is a ProtocolError, and only a status "ok" envelope is
// returned for endpoint-specific decoding.
func decodeEnvelope(body []byte) (*envelopeBody, error) {
	var container envelopeContainer
	if err := json.Unmarshal(body, &container); err != nil {
		return nil, &MalformedResponseError{Reason: "body is not valid JSON", Err: err}
	}
	if container.Response == nil {
		return nil, &MalformedResponseError{Reason: "missing subsonic-response container"}
	}

	env := container.Response
	switch env.Status {
	case "ok":
		return env, nil
	case "failed":
		if env.Error == nil {
			return nil, &MalformedResponseError{Reason: `status "failed" without error body`}
		}
		return nil, &ProtocolError{
			Code:    errorCodeFromWire(env.Error.Code),
			RawCode: env.Error.Code,
			Message: env.Error.Message,
			HelpURL: env.Error.HelpURL,
		}
	default:
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("unknown status %q", env.Status)}
	}
}

type artistBody struct {
	ID             *string `json:"id"`
	Name           *string `json:"name"`
	CoverArt       *string `json:"coverArt"`
	ArtistImageURL *string `json:"artistImageUrl"`
	Starred        *string `json:"starred"`
	MusicBrainzID  *string `json:"musicBrainzId"`
	SortName       *string `json:"sortName"`
}

type albumBody struct {
	ID             *string  `json:"id"`
	Name           *string  `json:"name"`
	ArtistID       *string  `json:"artistId"`
	CoverArt       *string  `json:"coverArt"`
	Duration       *int     `json:"duration"`
	PlayCount      *int64   `json:"playCount"`
	Created        *string  `json:"created"`
	Starred        *string  `json:"starred"`
	Year           *int     `json:"year"`
	Genre          *string  `json:"genre"`
	Genres         []string `json:"genres"`
	MusicBrainzID  *string  `json:"musicBrainzId"`
	DisplayArtist  *string  `json:"displayArtist"`
	SortName       *string  `json:"sortName"`
	ExplicitStatus *string  `json:"explicitStatus"`
}

type songBody struct {
	ID             *string  `json:"id"`
	Title          *string  `json:"title"`
	AlbumID        *string  `json:"albumId"`
	ArtistID       *string  `json:"artistId"`
	Track          *int     `json:"track"`
	CoverArt       *string  `json:"coverArt"`
	Size           *int64   `json:"size"`
	ContentType    *string  `json:"contentType"`
	Suffix         *string  `json:"suffix"`
	Duration       *int     `json:"duration"`
	BitRate        *int     `json:"bitRate"`
	BitDepth       *int     `json:"bitDepth"`
	SamplingRate   *int     `json:"samplingRate"`
	ChannelCount   *int     `json:"channelCount"`
	PlayCount      *int64   `json:"playCount"`
	DiscNumber     *int     `json:"discNumber"`
	Created        *string  `json:"created"`
	Starred        *string  `json:"starred"`
	Comment        *string  `json:"comment"`
	Genre          *string  `json:"genre"`
	Genres         []string `json:"genres"`
	MusicBrainzID  *string  `json:"musicBrainzId"`
	SortName       *string  `json:"sortName"`
	ExplicitStatus *string  `json:"explicitStatus"`
}

// decodeArtist parses one ArtistID3 object. Missing required fields fail
// with an EntityDecodeError naming the field; optional fields stay nil.
func decodeArtist(serverID string, raw json.RawMessage) (model.Artist, error) {
	var body artistBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return model.Artist{}, &EntityDecodeError{Kind: "artist", Err: err}
	}

	if body.ID == nil || *body.ID == "" {
		return model.Artist{}, &EntityDecodeError{Kind: "artist", Field: "id"}
	}
	if body.Name == nil || *body.Name == "" {
		return model.Artist{}, &EntityDecodeError{Kind: "artist", Field: "name"}
	}

	starred, err := parseOptionalDate("artist", "starred", body.Starred)
	if err != nil {
		return model.Artist{}, err
	}

	return model.Artist{
		ID:             *body.ID,
		ServerID:       serverID,
		Name:           *body.Name,
		CoverArt:       body.CoverArt,
		ArtistImageURL: body.ArtistImageURL,
		Starred:        starred,
		MusicBrainzID:  body.MusicBrainzID,
		SortName:       body.SortName,
	}, nil
}

// decodeAlbum parses one AlbumID3 object.
func decodeAlbum(serverID string, raw json.RawMessage) (model.Album, error) {
	var body albumBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return model.Album{}, &EntityDecodeError{Kind: "album", Err: err}
	}

	if body.ID == nil || *body.ID == "" {
		return model.Album{}, &EntityDecodeError{Kind: "album", Field: "id"}
	}
	if body.Name == nil || *body.Name == "" {
		return model.Album{}, &EntityDecodeError{Kind: "album", Field: "name"}
	}
	if body.Duration == nil {
		return model.Album{}, &EntityDecodeError{Kind: "album", Field: "duration"}
	}
	if body.Created == nil {
		return model.Album{}, &EntityDecodeError{Kind: "album", Field: "created"}
	}

	created, err := parseDate("album", "created", *body.Created)
	if err != nil {
		return model.Album{}, err
	}
	starred, err := parseOptionalDate("album", "starred", body.Starred)
	if err != nil {
		return model.Album{}, err
	}

	return model.Album{
		ID:             *body.ID,
		ServerID:       serverID,
		Name:           *body.Name,
		ArtistID:       body.ArtistID,
		CoverArt:       body.CoverArt,
		Duration:       *body.Duration,
		PlayCount:      body.PlayCount,
		Created:        created,
		Starred:        starred,
		Year:           body.Year,
		Genres:         mergeGenres(body.Genre, body.Genres),
		MusicBrainzID:  body.MusicBrainzID,
		DisplayArtist:  body.DisplayArtist,
		SortName:       body.SortName,
		ExplicitStatus: explicitStatus(body.ExplicitStatus),
	}, nil
}

// decodeSong parses the song-shaped subset of a Child object.
func decodeSong(serverID string, raw json.RawMessage) (model.Song, error) {
	var body songBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return model.Song{}, &EntityDecodeError{Kind: "song", Err: err}
	}

	if body.ID == nil || *body.ID == "" {
		return model.Song{}, &EntityDecodeError{Kind: "song", Field: "id"}
	}
	if body.Title == nil || *body.Title == "" {
		return model.Song{}, &EntityDecodeError{Kind: "song", Field: "title"}
	}
	if body.Size == nil {
		return model.Song{}, &EntityDecodeError{Kind: "song", Field: "size"}
	}
	if body.Duration == nil {
		return model.Song{}, &EntityDecodeError{Kind: "song", Field: "duration"}
	}
	if body.Created == nil {
		return model.Song{}, &EntityDecodeError{Kind: "song", Field: "created"}
	}

	created, err := parseDate("song", "created", *body.Created)
	if err != nil {
		return model.Song{}, err
	}
	starred, err := parseOptionalDate("song", "starred", body.Starred)
	if err != nil {
		return model.Song{}, err
	}

	return model.Song{
		ID:             *body.ID,
		ServerID:       serverID,
		Title:          *body.Title,
		AlbumID:        body.AlbumID,
		ArtistID:       body.ArtistID,
		Track:          body.Track,
		CoverArt:       body.CoverArt,
		Size:           *body.Size,
		ContentType:    body.ContentType,
		Suffix:         body.Suffix,
		Duration:       *body.Duration,
		BitRate:        body.BitRate,
		BitDepth:       body.BitDepth,
		SamplingRate:   body.SamplingRate,
		ChannelCount:   body.ChannelCount,
		PlayCount:      body.PlayCount,
		DiscNumber:     body.DiscNumber,
		Created:        created,
		Starred:        starred,
		Comment:        body.Comment,
		Genres:         mergeGenres(body.Genre, body.Genres),
		MusicBrainzID:  body.MusicBrainzID,
		SortName:       body.SortName,
		ExplicitStatus: explicitStatus(body.ExplicitStatus),
	}, nil
}

// mergeGenres unions the singular genre field with the plural genres array.
// The entity's genre set is this union, not either field alone.
func mergeGenres(genre *string, genres []string) []string {
	merged := make([]string, 0, len(genres)+1)
	if genre != nil {
		merged = append(merged, *genre)
	}
	merged = append(merged, genres...)
	return model.NormalizeGenres(merged)
}

func explicitStatus(token *string) model.ExplicitStatus {
	if token == nil {
		return model.ExplicitStatusNoData
	}
	return model.ExplicitStatusFromToken(*token)
}

func parseDate(kind, field, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &EntityDecodeError{Kind: kind, Field: field, Err: err}
	}
	return t, nil
}

func parseOptionalDate(kind, field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(kind, field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
