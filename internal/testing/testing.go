// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
)

// NewTestDB opens an in-memory SQLite database with migrations applied.
// The database is closed when the test finishes.
func NewTestDB(t *testing.T) *shared.Database {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// ArtistRecord builds a raw program record for an artist.
func ArtistRecord(id, title string) services.RawRecord {
	return services.RawRecord{
		"id":           id,
		"title":        title,
		"subtitle":     "",
		"url":          "/artist/" + id,
		"countryLabel": "Denmark",
		"countryValue": "dk",
	}
}

// EventRecord builds a raw program record for an event.
func EventRecord(id, title, subtitle string) services.RawRecord {
	return services.RawRecord{
		"id":         id,
		"title":      title,
		"subtitle":   subtitle,
		"url":        "/event/" + id,
		"startDate":  "2025-07-01T20:00:00Z",
		"endDate":    "2025-07-01T21:30:00Z",
		"venueName":  "Orange",
		"categories": "Rock/Pop",
	}
}

// FakeSource is a test double for [services.ProgramSource].
type FakeSource struct {
	ArtistPages [][]services.RawRecord
	EventPages  [][]services.RawRecord
	// Lineups maps an event URL to its lineup.
	Lineups map[string][]models.LineupEntry
	// LineupErrors maps an event URL to a fetch failure.
	LineupErrors map[string]error
	// PageErr fails the listing after the pages above are delivered.
	PageErr error

	mu          sync.Mutex
	parsedPages []string
}

func (f *FakeSource) FetchAllArtists(ctx context.Context, dates services.DateRange, onPage services.PageFunc) ([]services.RawRecord, error) {
	return f.paginate(f.ArtistPages, onPage)
}

func (f *FakeSource) FetchAllEvents(ctx context.Context, dates services.DateRange, onPage services.PageFunc) ([]services.RawRecord, error) {
	return f.paginate(f.EventPages, onPage)
}

func (f *FakeSource) paginate(pages [][]services.RawRecord, onPage services.PageFunc) ([]services.RawRecord, error) {
	var all []services.RawRecord
	for i, page := range pages {
		all = append(all, page...)
		if onPage != nil {
			if err := onPage(i, page); err != nil {
				return all, err
			}
		}
	}
	if f.PageErr != nil {
		return all, f.PageErr
	}
	return all, nil
}

func (f *FakeSource) FetchAndParseEventPage(ctx context.Context, pageURL, eventExternalID string) ([]models.LineupEntry, error) {
	f.mu.Lock()
	f.parsedPages = append(f.parsedPages, pageURL)
	f.mu.Unlock()

	if err, ok := f.LineupErrors[pageURL]; ok {
		return nil, err
	}
	return f.Lineups[pageURL], nil
}

func (f *FakeSource) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "https://festival.test" + ref
}

// ParsedPages returns the URLs passed to FetchAndParseEventPage.
func (f *FakeSource) ParsedPages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.parsedPages...)
}

// FakeEnricher is a test double for [services.EnrichmentProvider].
// Artists not present in Artists are not found.
type FakeEnricher struct {
	Artists   map[string]*services.SpotifyArtist
	Tracks    map[string][]services.SpotifyTrack
	Features  []services.SpotifyAudioFeatures
	Related   map[string][]services.SpotifyArtist
	SearchErr map[string]error

	mu       sync.Mutex
	searches []string
}

func (f *FakeEnricher) SearchArtist(ctx context.Context, name string) (*services.SpotifyArtist, error) {
	f.mu.Lock()
	f.searches = append(f.searches, name)
	f.mu.Unlock()

	if err, ok := f.SearchErr[name]; ok {
		return nil, err
	}
	return f.Artists[name], nil
}

func (f *FakeEnricher) GetArtistTopTracks(ctx context.Context, artistID, market string) ([]services.SpotifyTrack, error) {
	return f.Tracks[artistID], nil
}

func (f *FakeEnricher) GetAudioFeatures(ctx context.Context, trackIDs []string) ([]services.SpotifyAudioFeatures, error) {
	return f.Features, nil
}

func (f *FakeEnricher) GetRelatedArtists(ctx context.Context, artistID string) ([]services.SpotifyArtist, error) {
	return f.Related[artistID], nil
}

// Searches returns the names passed to SearchArtist.
func (f *FakeEnricher) Searches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searches...)
}

// SpotifyArtist builds a catalog artist with a stable id derived from name.
func SpotifyArtist(name string, genres ...string) *services.SpotifyArtist {
	return &services.SpotifyArtist{
		ID:         fmt.Sprintf("sp-%s", name),
		Name:       name,
		Genres:     genres,
		Popularity: 60,
		Images:     []services.SpotifyImage{{URL: "https://i.scdn.co/image/" + name, Width: 640, Height: 640}},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper answers every request with a fixed response or error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

var (
	_ services.ProgramSource      = (*FakeSource)(nil)
	_ services.EnrichmentProvider = (*FakeEnricher)(nil)
)
