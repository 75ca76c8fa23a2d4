// Spotify Web API client for artist enrichment
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// tokenExpiryMargin refreshes the cached access token this long before it expires.
	tokenExpiryMargin = 60 * time.Second
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Genres       []string       `json:"genres"`
	Popularity   int            `json:"popularity"`
	Followers    followers      `json:"followers"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs externalURLs   `json:"external_urls"`
	URI          string         `json:"uri"`
}

// ImageURL returns the largest image, or "".
func (a *SpotifyArtist) ImageURL() string {
	best := ""
	width := -1
	for _, img := range a.Images {
		if img.Width > width {
			best, width = img.URL, img.Width
		}
	}
	return best
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PreviewURL *string         `json:"preview_url"`
	Popularity int             `json:"popularity"`
	DurationMS int             `json:"duration_ms"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
}

// HasPreview reports whether the track carries a preview clip URL.
func (t SpotifyTrack) HasPreview() bool {
	return t.PreviewURL != nil && *t.PreviewURL != ""
}

// SpotifyAudioFeatures represents the audio analysis summary for a track.
type SpotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Liveness         float64 `json:"liveness"`
}

// SpotifyOptions overrides endpoints and transport, mostly for tests.
type SpotifyOptions struct {
	BaseURL         string
	TokenURL        string
	HTTPClient      *http.Client
	MaxRetries      int
	BaseBackoff     time.Duration
	FallbackMarkets []string
	Logger          *log.Logger
}

// SpotifyService is a client-credentials Spotify Web API client.
//
// Access tokens are cached in memory and refreshed [tokenExpiryMargin] before they expire.
type SpotifyService struct {
	baseURL         string
	tokens          oauth2.TokenSource
	httpClient      *http.Client
	maxRetries      int
	baseBackoff     time.Duration
	fallbackMarkets []string
	logger          *log.Logger
}

// tokenFunc adapts a function to [oauth2.TokenSource] without caching.
type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

// NewSpotifyService creates a Spotify client from client credentials.
// Missing credentials fail fast with [shared.ErrMissingCredentials].
func NewSpotifyService(creds shared.SpotifyConfig, opts SpotifyOptions) (*SpotifyService, error) {
	if strings.TrimSpace(creds.ClientID) == "" {
		return nil, fmt.Errorf("%w: spotify client_id", shared.ErrMissingCredentials)
	}
	if strings.TrimSpace(creds.ClientSecret) == "" {
		return nil, fmt.Errorf("%w: spotify client_secret", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)
	fetch := tokenFunc(func() (*oauth2.Token, error) {
		return config.Token(tokenCtx)
	})

	return &SpotifyService{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		tokens:          oauth2.ReuseTokenSourceWithExpiry(nil, fetch, tokenExpiryMargin),
		httpClient:      opts.HTTPClient,
		maxRetries:      opts.MaxRetries,
		baseBackoff:     opts.BaseBackoff,
		fallbackMarkets: opts.FallbackMarkets,
		logger:          shared.WithLogger(opts.Logger, "component", "spotify"),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET with retries on transport errors and 5xx.
// 429 returns a [RateLimitError] immediately.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint, path string, query url.Values, result any) error {
	token, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: failed to obtain spotify token: %v", shared.ErrAPIRequest, err)
	}

	apiURL := s.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("request canceled: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := s.httpClient.Do(req)
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		metrics.ObserveSpotifyRequest(endpoint, status, time.Since(start))

		if shouldRetry(resp, err) {
			if err != nil {
				lastErr = fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
			} else {
				resp.Body.Close()
				lastErr = &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
			}
			s.logger.Warn("retrying spotify request", "endpoint", endpoint, "attempt", attempt+1, "max", s.maxRetries, "error", lastErr)

			if attempt < s.maxRetries-1 {
				if err := sleepWithContext(ctx, s.baseBackoff*time.Duration(1<<attempt)); err != nil {
					return err
				}
			}
			continue
		}

		err = s.handleResponse(resp, endpoint, result)
		resp.Body.Close()
		return err
	}

	return fmt.Errorf("request failed after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *SpotifyService) handleResponse(resp *http.Response, endpoint string, result any) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp), Endpoint: endpoint}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// SearchArtist returns the best artist match for name, or nil when there are no results.
// An exact case-insensitive name match wins over Spotify's ranking.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (*SpotifyArtist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: artist name", shared.ErrMissingArgument)
	}

	query := url.Values{}
	query.Set("q", name)
	query.Set("type", "artist")
	query.Set("limit", "5")

	var response struct {
		Artists struct {
			Items []SpotifyArtist `json:"items"`
		} `json:"artists"`
	}
	if err := s.doRequest(ctx, "search", "/search", query, &response); err != nil {
		return nil, err
	}

	items := response.Artists.Items
	if len(items) == 0 {
		return nil, nil
	}

	want := shared.NormalizeName(name)
	for i := range items {
		if shared.NormalizeName(items[i].Name) == want {
			return &items[i], nil
		}
	}
	return &items[0], nil
}

// topTracks fetches top tracks for a single market.
func (s *SpotifyService) topTracks(ctx context.Context, artistID, market string) ([]SpotifyTrack, error) {
	query := url.Values{}
	query.Set("market", market)

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	path := "/artists/" + url.PathEscape(artistID) + "/top-tracks"
	if err := s.doRequest(ctx, "top_tracks", path, query, &response); err != nil {
		return nil, err
	}
	if response.Tracks == nil {
		return []SpotifyTrack{}, nil
	}
	return response.Tracks, nil
}

// GetArtistTopTracks tries market, then the configured fallback markets, and returns the
// first result that contains a track with a preview URL. When no market has a preview the
// first successful market's result is returned.
func (s *SpotifyService) GetArtistTopTracks(ctx context.Context, artistID, market string) ([]SpotifyTrack, error) {
	markets := marketOrder(market, s.fallbackMarkets)

	var (
		first   []SpotifyTrack
		found   bool
		lastErr error
	)
	for _, m := range markets {
		tracks, err := s.topTracks(ctx, artistID, m)
		if err != nil {
			if errors.Is(err, shared.ErrRateLimited) {
				return nil, err
			}
			s.logger.Debug("top tracks failed for market", "artist", artistID, "market", m, "error", err)
			lastErr = err
			continue
		}

		if !found {
			first, found = tracks, true
		}
		if slices.ContainsFunc(tracks, SpotifyTrack.HasPreview) {
			return tracks, nil
		}
	}

	if found {
		return first, nil
	}
	return nil, lastErr
}

// marketOrder returns preferred followed by fallbacks, uppercased and de-duplicated.
func marketOrder(preferred string, fallbacks []string) []string {
	var markets []string
	for _, m := range append([]string{preferred}, fallbacks...) {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" && !slices.Contains(markets, m) {
			markets = append(markets, m)
		}
	}
	if len(markets) == 0 {
		markets = []string{"US"}
	}
	return markets
}

// GetAudioFeatures fetches audio features for up to 100 tracks.
// A 403, which client-credentials apps receive for this endpoint, yields an empty result.
func (s *SpotifyService) GetAudioFeatures(ctx context.Context, trackIDs []string) ([]SpotifyAudioFeatures, error) {
	if len(trackIDs) == 0 {
		return []SpotifyAudioFeatures{}, nil
	}
	if len(trackIDs) > 100 {
		trackIDs = trackIDs[:100]
	}

	query := url.Values{}
	query.Set("ids", strings.Join(trackIDs, ","))

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}
	err := s.doRequest(ctx, "audio_features", "/audio-features", query, &response)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
		s.logger.Debug("audio features unavailable", "status", apiErr.StatusCode)
		return []SpotifyAudioFeatures{}, nil
	}
	if err != nil {
		return nil, err
	}

	features := make([]SpotifyAudioFeatures, 0, len(response.AudioFeatures))
	for _, f := range response.AudioFeatures {
		if f != nil {
			features = append(features, *f)
		}
	}
	return features, nil
}

// GetRelatedArtists fetches related artists. A 404 yields an empty list.
func (s *SpotifyService) GetRelatedArtists(ctx context.Context, artistID string) ([]SpotifyArtist, error) {
	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}
	path := "/artists/" + url.PathEscape(artistID) + "/related-artists"
	err := s.doRequest(ctx, "related_artists", path, nil, &response)
	if errors.Is(err, shared.ErrNotFound) {
		return []SpotifyArtist{}, nil
	}
	if err != nil {
		return nil, err
	}
	if response.Artists == nil {
		return []SpotifyArtist{}, nil
	}
	return response.Artists, nil
}
