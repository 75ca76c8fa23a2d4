// Festival program API client
//
// The upstream filter endpoint returns pages of program items. Artists and events are
// requested separately via the "types" parameter and paginated from page 0 until an
// empty page comes back.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/desertthunder/lineup/internal/metrics"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

// Program item types understood by the filter endpoint.
const (
	TypeArtist = "artist"
	TypeEvent  = "event"
)

// maxPages bounds pagination in case the upstream never returns an empty page.
const maxPages = 1000

// RawRecord is an item from the program API before cleaning.
type RawRecord map[string]any

// PageFunc is invoked after each fetched page. Returning an error stops pagination.
type PageFunc func(pageIndex int, items []RawRecord) error

// DateRange narrows a listing; zero values are omitted from the request.
type DateRange struct {
	From string
	To   string
}

// ProgramQuery holds the filter endpoint's query parameters.
type ProgramQuery struct {
	Page    int
	From    string
	To      string
	Types   string
	Section string
}

// APIResponse represents a raw upstream response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
}

// FestivalClient talks to the festival's public program API and detail pages.
type FestivalClient struct {
	baseURL    string
	filterPath string
	section    string
	userAgent  string
	pageSize   int
	extractor  LineupExtractor
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *log.Logger
}

// NewFestivalClient creates a client from the [shared.SourceConfig].
// A nil client gets one with the configured timeout.
func NewFestivalClient(cfg shared.SourceConfig, client *http.Client, logger *log.Logger) *FestivalClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	categories := cfg.LineupCategories
	if len(categories) == 0 {
		categories = DefaultLineupCategories
	}

	return &FestivalClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		filterPath: cfg.FilterPath,
		section:    cfg.Section,
		userAgent:  cfg.UserAgent,
		pageSize:   cfg.PageSize,
		extractor:  LinkExtractor{Categories: categories},
		httpClient: client,
		breaker:    newPageBreaker(logger),
		logger:     shared.WithLogger(logger, "component", "festival"),
	}
}

func newPageBreaker(logger *log.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "festival-pages",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.SetBreakerState(int(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isUpstreamFailure(err)
		},
	})
}

// isUpstreamFailure reports whether err should count against the breaker. 4xx pages do not.
func isUpstreamFailure(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", shared.ErrAPIRequest, e.URL, e.StatusCode)
}

// Unwrap lets callers match [shared.ErrAPIRequest].
func (e *StatusError) Unwrap() error {
	return shared.ErrAPIRequest
}

// ProgramURL builds the upstream filter URL for q.
func (c *FestivalClient) ProgramURL(q ProgramQuery) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	if q.Types != "" {
		params.Set("types", q.Types)
	}
	section := q.Section
	if section == "" {
		section = c.section
	}
	if section != "" {
		params.Set("section", section)
	}
	if q.From != "" {
		params.Set("from", q.From)
	}
	if q.To != "" {
		params.Set("to", q.To)
	}
	if c.pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	return c.baseURL + c.filterPath + "?" + params.Encode()
}

// setBrowserHeaders mimics a browser so the public endpoint serves the request.
func (c *FestivalClient) setBrowserHeaders(req *http.Request, accept string) {
	ua := c.userAgent
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,da;q=0.8")
	req.Header.Set("Referer", c.baseURL+"/")
}

// Proxy forwards a program query and returns the upstream response verbatim.
func (c *FestivalClient) Proxy(ctx context.Context, q ProgramQuery) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProgramURL(q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setBrowserHeaders(req, "application/json, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		IsJSON:     json.Valid(body),
	}, nil
}

// FetchPage fetches one page of program items.
func (c *FestivalClient) FetchPage(ctx context.Context, q ProgramQuery) ([]RawRecord, error) {
	resp, err := c.Proxy(ctx, q)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: c.ProgramURL(q)}
	}

	items, err := decodeItems(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", q.Page, err)
	}
	return items, nil
}

// decodeItems accepts a bare array or an object wrapping the array in a common key.
func decodeItems(body []byte) ([]RawRecord, error) {
	var list []RawRecord
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	for _, key := range []string{"items", "data", "results", "hits"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("invalid %q array: %w", key, err)
		}
		return list, nil
	}
	return []RawRecord{}, nil
}

// FetchAll paginates a listing of the given type from page 0 until an empty page.
// A failed page aborts pagination and returns the items gathered so far with the error.
func (c *FestivalClient) FetchAll(ctx context.Context, itemType string, dates DateRange, onPage PageFunc) ([]RawRecord, error) {
	var all []RawRecord
	for page := 0; page < maxPages; page++ {
		items, err := c.FetchPage(ctx, ProgramQuery{Page: page, Types: itemType, From: dates.From, To: dates.To})
		if err != nil {
			return all, fmt.Errorf("failed to fetch %s page %d: %w", itemType, page, err)
		}
		if len(items) == 0 {
			break
		}

		all = append(all, items...)
		c.logger.Debug("fetched page", "type", itemType, "page", page, "items", len(items))

		if onPage != nil {
			if err := onPage(page, items); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// FetchAllArtists paginates every artist.
func (c *FestivalClient) FetchAllArtists(ctx context.Context, dates DateRange, onPage PageFunc) ([]RawRecord, error) {
	return c.FetchAll(ctx, TypeArtist, dates, onPage)
}

// FetchAllEvents paginates every event.
func (c *FestivalClient) FetchAllEvents(ctx context.Context, dates DateRange, onPage PageFunc) ([]RawRecord, error) {
	return c.FetchAll(ctx, TypeEvent, dates, onPage)
}

// FetchEventPage downloads an event detail page through the circuit breaker.
func (c *FestivalClient) FetchEventPage(ctx context.Context, pageURL string) ([]byte, error) {
	target := c.ResolveURL(pageURL)
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.setBrowserHeaders(req, "text/html,application/xhtml+xml")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: target}
		}
		return io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	})
}

// FetchAndParseEventPage downloads an event page and extracts its lineup.
// A page without matching links yields an empty lineup.
func (c *FestivalClient) FetchAndParseEventPage(ctx context.Context, pageURL, eventExternalID string) ([]models.LineupEntry, error) {
	html, err := c.FetchEventPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return c.extractor.ExtractLineup(html, eventExternalID)
}

// WithExtractor replaces the [LinkExtractor] used for event pages.
func (c *FestivalClient) WithExtractor(x LineupExtractor) *FestivalClient {
	c.extractor = x
	return c
}

// ResolveURL turns a site-relative path into an absolute URL.
func (c *FestivalClient) ResolveURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref
}
