// Package subsonic implements the LibraryClient port against the
// OpenSubsonic REST protocol: authenticated request building, envelope and
// entity decoding, and outcome classification.
package subsonic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mthorne/subwave/internal/domain/model"
	"github.com/mthorne/subwave/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LibraryClient = (*Client)(nil)

const (
	// protocolVersion is pinned to the last Subsonic protocol release;
	// OpenSubsonic extends it without bumping the number.
	protocolVersion = "1.16.1"
	clientName      = "Subwave"

	defaultTimeout = 30 * time.Second
)

// Client implements the driven.LibraryClient port for one configured
// server. It holds no mutable state across calls and is safe for
// concurrent use; run one Client per server.
type Client struct {
	server     model.Server
	httpClient *http.Client
	limiter    *rate.Limiter
	saltLength int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly so tests can
// inject an httptest server's client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit caps outgoing requests per second, so full-library
// pagination does not hammer a small self-hosted server.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithSaltLength overrides the auth salt length.
func WithSaltLength(n int) Option {
	return func(c *Client) { c.saltLength = n }
}

// NewClient creates a client for the given server.
func NewClient(server model.Server, opts ...Option) *Client {
	c := &Client{
		server:     server,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		saltLength: DefaultSaltLength,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping verifies connectivity and credentials against the server.
func (c *Client) Ping(ctx context.Context) (driven.ServerInfo, error) {
	env, err := c.get(ctx, "ping", nil)
	if err != nil {
		return driven.ServerInfo{}, err
	}
	return serverInfo(env), nil
}

// Search runs one search3 page and decodes its artist/album/song arrays.
// A missing array means zero results for that kind. A malformed record is
// dropped from the page and reported in SearchResult.Skipped; it never
// fails the page.
func (c *Client) Search(ctx context.Context, page driven.SearchPage) (*driven.SearchResult, error) {
	params := url.Values{}
	params.Set("query", page.Query)
	params.Set("artistCount", strconv.Itoa(page.ArtistCount))
	params.Set("artistOffset", strconv.Itoa(page.ArtistOffset))
	params.Set("albumCount", strconv.Itoa(page.AlbumCount))
	params.Set("albumOffset", strconv.Itoa(page.AlbumOffset))
	params.Set("songCount", strconv.Itoa(page.SongCount))
	params.Set("songOffset", strconv.Itoa(page.SongOffset))

	env, err := c.get(ctx, "search3", params)
	if err != nil {
		return nil, err
	}
	if env.SearchResult3 == nil {
		return nil, &MalformedResponseError{Reason: "missing searchResult3 container"}
	}

	body := env.SearchResult3
	result := &driven.SearchResult{
		ArtistsFetched: len(body.Artists),
		AlbumsFetched:  len(body.Albums),
		SongsFetched:   len(body.Songs),
	}

	for _, raw := range body.Artists {
		artist, err := decodeArtist(c.server.ID, raw)
		if err != nil {
			result.Skipped = append(result.Skipped, err)
			continue
		}
		result.Artists = append(result.Artists, artist)
	}
	for _, raw := range body.Albums {
		album, err := decodeAlbum(c.server.ID, raw)
		if err != nil {
			result.Skipped = append(result.Skipped, err)
			continue
		}
		result.Albums = append(result.Albums, album)
	}
	for _, raw := range body.Songs {
		song, err := decodeSong(c.server.ID, raw)
		if err != nil {
			result.Skipped = append(result.Skipped, err)
			continue
		}
		result.Songs = append(result.Songs, song)
	}

	return result, nil
}

// get issues one authenticated GET to {base}/rest/{endpoint} and classifies
// the outcome into the package's error taxonomy.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*envelopeBody, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Err: err}
	}

	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return decodeEnvelope(body)
}

// buildURL assembles {base}/rest/{endpoint} with the common parameters
// (protocol version, client name, JSON format), the endpoint's own
// parameters, and fresh auth parameters.
func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.server.URI, "/"))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("parse server URI %q: %w", c.server.URI, err)}
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/rest/" + endpoint

	query := url.Values{}
	query.Set("v", protocolVersion)
	query.Set("c", clientName)
	query.Set("f", "json")
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}

	auth, err := authParams(c.server.Credential, c.saltLength)
	if err != nil {
		return "", err
	}
	for key, values := range auth {
		for _, v := range values {
			query.Add(key, v)
		}
	}

	base.RawQuery = query.Encode()
	return base.String(), nil
}

func serverInfo(env *envelopeBody) driven.ServerInfo {
	return driven.ServerInfo{
		ProtocolVersion: env.Version,
		Software:        env.Type,
		SoftwareVersion: env.ServerVersion,
		OpenSubsonic:    env.OpenSubsonic,
	}
}
