// package formatter renders catalog gap reports as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/shared"
)

// Supported report formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Row kinds in the CSV report.
const (
	rowMissing    = "missing_artist"
	rowSuggestion = "potential_event"
)

// ReportToCSV converts a GapReport to CSV with columns: Kind, Artist, External ID, Event ID, Event, Confidence
func ReportToCSV(report *models.GapReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "Artist", "External ID", "Event ID", "Event", "Confidence"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range report.MissingArtists {
		if err := writer.Write([]string{rowMissing, m.Name, m.ExternalArtistID, "", "", ""}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, s := range report.Suggestions {
		for _, ev := range s.Events {
			record := []string{
				rowSuggestion,
				s.ArtistName,
				"",
				strconv.FormatInt(ev.EventID, 10),
				eventLabel(ev),
				strconv.FormatFloat(ev.Confidence, 'f', 2, 64),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a GapReport to Markdown. stats is optional.
func ReportToMarkdown(report *models.GapReport, stats *models.LinkStats) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Lineup Gap Report\n\n")
	buf.WriteString(fmt.Sprintf("**Generated**: %s\n", report.GeneratedAt.Format("2006-01-02 15:04 MST")))
	buf.WriteString(fmt.Sprintf("**Artists without events**: %d\n", report.ArtistsWithoutEvents))
	buf.WriteString(fmt.Sprintf("**Lineup artists missing from catalog**: %d\n\n", len(report.MissingArtists)))

	if stats != nil {
		buf.WriteString("## Links\n\n")
		buf.WriteString("| Total | High | Medium | Low | Artists | Events |\n")
		buf.WriteString("|---|---|---|---|---|---|\n")
		buf.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %d |\n\n",
			stats.Total, stats.High, stats.Medium, stats.Low, stats.LinkedArtists, stats.LinkedEvents))
	}

	if len(report.MissingArtists) > 0 {
		buf.WriteString("## Missing Artists\n\n")
		for i, m := range report.MissingArtists {
			id := ""
			if m.ExternalArtistID != "" {
				id = fmt.Sprintf(" (`%s`)", m.ExternalArtistID)
			}
			buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, escapeMarkdown(m.Name), id))
		}
		buf.WriteString("\n")
	}

	if len(report.Suggestions) > 0 {
		buf.WriteString("## Potential Events\n\n")
		for _, s := range report.Suggestions {
			buf.WriteString(fmt.Sprintf("### %s\n\n", escapeMarkdown(s.ArtistName)))
			for _, ev := range s.Events {
				buf.WriteString(fmt.Sprintf("- %s [%.2f]\n", escapeMarkdown(eventLabel(ev)), ev.Confidence))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ReportToText converts a GapReport to plain text
func ReportToText(report *models.GapReport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Artists without events: %d\n", report.ArtistsWithoutEvents))
	buf.WriteString(fmt.Sprintf("Missing lineup artists: %d\n\n", len(report.MissingArtists)))

	for i, m := range report.MissingArtists {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, m.Name))
	}
	if len(report.MissingArtists) > 0 {
		buf.WriteString("\n")
	}

	for _, s := range report.Suggestions {
		buf.WriteString(fmt.Sprintf("%s:\n", s.ArtistName))
		for _, ev := range s.Events {
			buf.WriteString(fmt.Sprintf("  - %s (%.2f)\n", eventLabel(ev), ev.Confidence))
		}
	}

	return buf.Bytes(), nil
}

// ReportToJSON renders the report as indented JSON.
func ReportToJSON(report *models.GapReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// Render dispatches on format.
func Render(report *models.GapReport, format string, stats *models.LinkStats) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return ReportToCSV(report)
	case FormatMarkdown, "markdown":
		return ReportToMarkdown(report, stats)
	case FormatText, "text":
		return ReportToText(report)
	case FormatJSON:
		return ReportToJSON(report)
	default:
		return nil, fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport renders the report and writes it to path.
//
// Defaults to gap_report.{format} as the filename.
func WriteReport(report *models.GapReport, format, path string, stats *models.LinkStats) (string, error) {
	data, err := Render(report, format, stats)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "gap_report." + strings.ToLower(format)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

func eventLabel(ev models.EventSuggestion) string {
	if ev.Subtitle == "" {
		return ev.Title
	}
	return ev.Title + " / " + ev.Subtitle
}

var markdownEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
