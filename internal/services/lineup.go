package services

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/desertthunder/lineup/internal/models"
)

// DefaultLineupCategories are the first path segments that mark an artist link.
var DefaultLineupCategories = []string{"artist", "artists", "kunstner", "music"}

// LineupExtractor turns an event detail page into lineup entries.
// eventID is the page's own event id, which must not be reported as an artist.
type LineupExtractor interface {
	ExtractLineup(html []byte, eventID string) ([]models.LineupEntry, error)
}

var lineupPath = regexp.MustCompile(`^/([a-z0-9-]+)/([a-z0-9-]+)/(\d+)/?$`)

// LinkExtractor finds anchors whose href has the shape /<category>/<slug>/<id>.
type LinkExtractor struct {
	Categories []string
}

// ExtractLineup returns one entry per distinct id, in document order.
// Pages without matching links produce an empty, non-nil lineup.
func (x LinkExtractor) ExtractLineup(html []byte, eventID string) ([]models.LineupEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse event page: %w", err)
	}

	categories := x.Categories
	if len(categories) == 0 {
		categories = DefaultLineupCategories
	}

	seen := map[string]bool{}
	entries := []models.LineupEntry{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		category, slug, id, ok := parseLineupHref(href)
		if !ok || id == eventID || seen[id] || !containsFold(categories, category) {
			return
		}

		name := strings.Join(strings.Fields(s.Text()), " ")
		if name == "" {
			name, _ = s.Attr("title")
		}
		if name == "" {
			name = slugToName(slug)
		}

		seen[id] = true
		entries = append(entries, models.LineupEntry{Name: name, ExternalArtistID: id})
	})

	return entries, nil
}

// parseLineupHref accepts absolute or relative hrefs and ignores query and fragment.
func parseLineupHref(href string) (category, slug, id string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", "", "", false
	}
	m := lineupPath.FindStringSubmatch(strings.ToLower(u.Path))
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

func slugToName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
