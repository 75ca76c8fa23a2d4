package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/lineup/internal/shared"
)

type spotifyFixture struct {
	server      *httptest.Server
	tokenHits   atomic.Int32
	expiresIn   int
	routes      map[string]http.HandlerFunc
	marketsSeen []string
}

func newSpotifyFixture(t *testing.T) *spotifyFixture {
	t.Helper()
	f := &spotifyFixture{expiresIn: 3600, routes: map[string]http.HandlerFunc{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			f.tokenHits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "bearer",
				"expires_in":   f.expiresIn,
			})
			return
		}

		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token on %s", r.URL.Path)
		}
		if m := r.URL.Query().Get("market"); m != "" {
			f.marketsSeen = append(f.marketsSeen, m)
		}
		for prefix, h := range f.routes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				h(w, r)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *spotifyFixture) service(t *testing.T, fallbacks ...string) *SpotifyService {
	t.Helper()
	srv, err := NewSpotifyService(
		shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"},
		SpotifyOptions{
			BaseURL:         f.server.URL + "/v1",
			TokenURL:        f.server.URL + "/token",
			HTTPClient:      f.server.Client(),
			BaseBackoff:     time.Millisecond,
			FallbackMarkets: fallbacks,
		},
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func track(id string, preview string) map[string]any {
	t := map[string]any{"id": id, "name": "Track " + id}
	if preview != "" {
		t["preview_url"] = preview
	} else {
		t["preview_url"] = nil
	}
	return t
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientSecret: "s"}, SpotifyOptions{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id"}, SpotifyOptions{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Name", func(t *testing.T) {
			srv, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "s"}, SpotifyOptions{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})
	})

	t.Run("token is cached", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/search"] = searchResult("a1", "Robyn")
		srv := f.service(t)

		for range 3 {
			if _, err := srv.SearchArtist(context.Background(), "Robyn"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if f.tokenHits.Load() != 1 {
			t.Errorf("expected 1 token request, got %d", f.tokenHits.Load())
		}
	})

	t.Run("token refreshed within expiry margin", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.expiresIn = 30
		f.routes["/v1/search"] = searchResult("a1", "Robyn")
		srv := f.service(t)

		for range 2 {
			if _, err := srv.SearchArtist(context.Background(), "Robyn"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if f.tokenHits.Load() != 2 {
			t.Errorf("expected token to be refetched, got %d requests", f.tokenHits.Load())
		}
	})

	t.Run("SearchArtist prefers exact name", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/search"] = func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("type") != "artist" {
				t.Errorf("expected type=artist")
			}
			writeJSON(w, map[string]any{"artists": map[string]any{"items": []map[string]any{
				{"id": "1", "name": "Robyn Hitchcock"},
				{"id": "2", "name": "Robyn", "popularity": 70, "followers": map[string]any{"total": 1000},
					"images": []map[string]any{{"url": "small", "width": 64}, {"url": "big", "width": 640}}},
			}}})
		}
		srv := f.service(t)

		artist, err := srv.SearchArtist(context.Background(), "robyn")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if artist == nil || artist.ID != "2" {
			t.Fatalf("expected exact match, got %+v", artist)
		}
		if artist.ImageURL() != "big" || artist.Followers.Total != 1000 {
			t.Errorf("unexpected artist fields %+v", artist)
		}
	})

	t.Run("SearchArtist no results", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/search"] = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"artists": map[string]any{"items": []any{}}})
		}
		artist, err := f.service(t).SearchArtist(context.Background(), "nobody")
		if err != nil || artist != nil {
			t.Errorf("expected nil, nil; got %+v, %v", artist, err)
		}
	})

	t.Run("GetArtistTopTracks falls back until a preview is found", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/artists/"] = func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("market") {
			case "US":
				writeJSON(w, map[string]any{"tracks": []any{track("us1", "")}})
			case "GB":
				w.WriteHeader(http.StatusBadRequest)
			case "DE":
				writeJSON(w, map[string]any{"tracks": []any{track("de1", ""), track("de2", "https://p.scdn.co/x")}})
			default:
				t.Errorf("unexpected market %s", r.URL.Query().Get("market"))
			}
		}
		srv := f.service(t, "GB", "DE", "DK")

		tracks, err := srv.GetArtistTopTracks(context.Background(), "a1", "us")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 2 || tracks[1].ID != "de2" {
			t.Errorf("expected DE tracks, got %+v", tracks)
		}
		if strings.Join(f.marketsSeen, ",") != "US,GB,DE" {
			t.Errorf("expected to stop at DE, saw %v", f.marketsSeen)
		}
	})

	t.Run("GetArtistTopTracks returns first market when none has a preview", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/artists/"] = func(w http.ResponseWriter, r *http.Request) {
			m := r.URL.Query().Get("market")
			writeJSON(w, map[string]any{"tracks": []any{track(strings.ToLower(m)+"1", "")}})
		}
		srv := f.service(t, "GB", "DE")

		tracks, err := srv.GetArtistTopTracks(context.Background(), "a1", "US")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(tracks) != 1 || tracks[0].ID != "us1" {
			t.Errorf("expected first market's result, got %+v", tracks)
		}
		if len(f.marketsSeen) != 3 {
			t.Errorf("expected every market to be tried, saw %v", f.marketsSeen)
		}
	})

	t.Run("GetAudioFeatures 403 yields empty", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/audio-features"] = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}

		features, err := f.service(t).GetAudioFeatures(context.Background(), []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if features == nil || len(features) != 0 {
			t.Errorf("expected empty non-nil result, got %+v", features)
		}
	})

	t.Run("GetAudioFeatures skips null entries", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/audio-features"] = func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("ids") != "t1,t2" {
				t.Errorf("unexpected ids %s", r.URL.Query().Get("ids"))
			}
			w.Write([]byte(`{"audio_features":[{"id":"t1","energy":0.8,"tempo":120},null]}`))
		}

		features, err := f.service(t).GetAudioFeatures(context.Background(), []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(features) != 1 || features[0].Energy != 0.8 {
			t.Errorf("unexpected features %+v", features)
		}
	})

	t.Run("GetRelatedArtists 404 yields empty", func(t *testing.T) {
		f := newSpotifyFixture(t)
		related, err := f.service(t).GetRelatedArtists(context.Background(), "missing")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if related == nil || len(related) != 0 {
			t.Errorf("expected empty list, got %+v", related)
		}
	})

	t.Run("429 surfaces RateLimitError without retry", func(t *testing.T) {
		f := newSpotifyFixture(t)
		var hits atomic.Int32
		f.routes["/v1/search"] = func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}

		_, err := f.service(t).SearchArtist(context.Background(), "x")
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Fatalf("expected ErrRateLimited, got %v", err)
		}
		var rle *RateLimitError
		if !errors.As(err, &rle) || rle.RetryAfter != 7*time.Second {
			t.Errorf("expected RetryAfter 7s, got %+v", rle)
		}
		if hits.Load() != 1 {
			t.Errorf("expected a single attempt, got %d", hits.Load())
		}
	})

	t.Run("5xx is retried", func(t *testing.T) {
		f := newSpotifyFixture(t)
		var hits atomic.Int32
		f.routes["/v1/search"] = func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			searchResult("a1", "Robyn")(w, r)
		}

		artist, err := f.service(t).SearchArtist(context.Background(), "Robyn")
		if err != nil || artist == nil {
			t.Fatalf("expected success after retries, got %v", err)
		}
		if artist.ID != "a1" || hits.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", hits.Load())
		}
	})

	t.Run("5xx exhausts retries", func(t *testing.T) {
		f := newSpotifyFixture(t)
		f.routes["/v1/search"] = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}

		_, err := f.service(t).SearchArtist(context.Background(), "Robyn")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func searchResult(id, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"artists": map[string]any{"items": []map[string]any{{"id": id, "name": name}}}})
	}
}

func TestMarketOrder(t *testing.T) {
	got := marketOrder("us", []string{"GB", "US", " de ", ""})
	if strings.Join(got, ",") != "US,GB,DE" {
		t.Errorf("unexpected market order %v", got)
	}
	if got := marketOrder("", nil); len(got) != 1 || got[0] != "US" {
		t.Errorf("expected US default, got %v", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if parseRetryAfter(resp) != 0 {
		t.Error("expected 0 without header")
	}
	resp.Header.Set("Retry-After", "3")
	if parseRetryAfter(resp) != 3*time.Second {
		t.Error("expected 3s")
	}
	resp.Header.Set("Retry-After", "soon")
	if parseRetryAfter(resp) != 0 {
		t.Error("expected 0 for garbage")
	}
}
