package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/normalize"
)

// dateLayouts are the timestamp shapes seen in program payloads.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// CleanArtistData normalizes a raw artist record into a [models.Artist].
func CleanArtistData(raw RawRecord, resolve func(string) string) (*models.Artist, error) {
	id := raw.String("id", "externalId", "external_id")
	if id == "" {
		return nil, fmt.Errorf("artist record has no id")
	}

	title := raw.String("title", "name")
	if title == "" {
		title = "Unknown Artist"
	}

	label, value := raw.country()
	artist := &models.Artist{
		ExternalID:   id,
		Title:        title,
		Subtitle:     raw.String("subtitle", "subTitle", "teaser"),
		URL:          raw.String("url", "link", "href"),
		CountryLabel: label,
		CountryValue: value,
		CountryCode:  normalize.CountryCode(label, value),
	}
	if resolve != nil {
		artist.URL = resolve(artist.URL)
	}
	return artist, nil
}

// CleanEventData normalizes a raw event record into a [models.Event].
func CleanEventData(raw RawRecord, resolve func(string) string) (*models.Event, error) {
	id := raw.String("id", "externalId", "external_id")
	if id == "" {
		return nil, fmt.Errorf("event record has no id")
	}

	title := raw.String("title", "name")
	if title == "" {
		title = "Untitled Event"
	}

	categories := raw.categories()
	event := &models.Event{
		ExternalID: id,
		Title:      title,
		Subtitle:   raw.String("subtitle", "subTitle", "teaser"),
		URL:        raw.String("url", "link", "href"),
		StartDate:  raw.Time("startDate", "start_date", "start", "date"),
		EndDate:    raw.Time("endDate", "end_date", "end"),
		VenueName:  raw.venue(),
		Categories: categories,
		GenreTags:  normalize.GenreTags(categories),
		SoldOut:    raw.Bool("soldOut", "sold_out", "isSoldOut"),
	}
	if resolve != nil {
		event.URL = resolve(event.URL)
	}
	if event.StartDate != nil && event.EndDate != nil && event.EndDate.Before(*event.StartDate) {
		event.EndDate = nil
	}
	return event, nil
}

// String returns the first non-empty key coerced to a trimmed string.
func (r RawRecord) String(keys ...string) string {
	for _, k := range keys {
		if s := toString(r[k]); s != "" {
			return s
		}
	}
	return ""
}

// Bool returns the first present key coerced to a bool.
func (r RawRecord) Bool(keys ...string) bool {
	for _, k := range keys {
		switch v := r[k].(type) {
		case bool:
			return v
		case float64:
			return v != 0
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err == nil {
				return b
			}
			return strings.EqualFold(strings.TrimSpace(v), "yes")
		}
	}
	return false
}

// Time returns the first key that parses as a timestamp or unix seconds.
func (r RawRecord) Time(keys ...string) *time.Time {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			v = strings.TrimSpace(v)
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, v); err == nil {
					t = t.UTC()
					return &t
				}
			}
		case float64:
			sec := int64(v)
			// Millisecond epochs are larger than any plausible second epoch.
			if sec > 1e11 {
				sec /= 1000
			}
			t := time.Unix(sec, 0).UTC()
			return &t
		}
	}
	return nil
}

func (r RawRecord) country() (label, value string) {
	if nested, ok := r["country"].(map[string]any); ok {
		return toString(nested["label"]), toString(nested["value"])
	}
	if list, ok := r["country"].([]any); ok && len(list) > 0 {
		if nested, ok := list[0].(map[string]any); ok {
			return toString(nested["label"]), toString(nested["value"])
		}
		return toString(list[0]), ""
	}
	label = r.String("countryLabel", "country_label", "country")
	value = r.String("countryValue", "country_value", "countryCode")
	return label, value
}

func (r RawRecord) venue() string {
	if nested, ok := r["venue"].(map[string]any); ok {
		return toString(nested["name"])
	}
	return r.String("venueName", "venue_name", "venue", "stage")
}

// categories flattens string, list or labelled-object forms into a slash-delimited string.
func (r RawRecord) categories() string {
	switch v := r["categories"].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			var s string
			if m, ok := item.(map[string]any); ok {
				s = toString(m["label"])
				if s == "" {
					s = toString(m["name"])
				}
			} else {
				s = toString(item)
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "/")
	}
	return r.String("category", "genre")
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
