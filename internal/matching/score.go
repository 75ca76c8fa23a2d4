package matching

import (
	"strings"

	"github.com/desertthunder/lineup/internal/models"
)

// Match types recorded in link match details.
const (
	MatchExact     = "exact"
	MatchSegment   = "segment"
	MatchQualifier = "qualifier"
	MatchContains  = "contains"
	MatchFuzzy     = "fuzzy"
)

// Fields an artist name can be found in.
const (
	FieldTitle    = "title"
	FieldSubtitle = "subtitle"
)

const (
	// DefaultMinConfidence discards candidate matches scoring below it.
	DefaultMinConfidence = 0.7
	// fuzzyFloor is the minimum Levenshtein similarity considered a fuzzy match.
	fuzzyFloor = 0.85
	// minContainLen is the shortest name allowed to match by containment.
	minContainLen = 3
	// subtitlePenalty is subtracted from scores found only in the subtitle.
	subtitlePenalty = 0.1
)

// Score is the best way an artist name was found in an event.
type Score struct {
	Confidence float64 `json:"confidence"`
	MatchType  string  `json:"match_type"`
	Field      string  `json:"field"`
	Segment    string  `json:"segment,omitempty"`
}

// Details renders the score as a link's match_details payload.
func (s Score) Details(artistName string) map[string]any {
	d := map[string]any{
		"match_type":  s.MatchType,
		"field":       s.Field,
		"artist_name": artistName,
	}
	if s.Segment != "" {
		d["segment"] = s.Segment
	}
	return d
}

// ScoreEvent scores how likely it is that an artist named name performs at event.
// The zero Score means no evidence was found.
func ScoreEvent(name string, event *models.Event) Score {
	best := scoreText(name, event.Title, FieldTitle)
	if sub := scoreText(name, event.Subtitle, FieldSubtitle); sub.Confidence > best.Confidence {
		best = sub
	}
	best.Confidence = clamp(best.Confidence)
	return best
}

// ContainsName reports whether text mentions the artist name as whole words,
// with or without lineup qualifiers.
func ContainsName(text, name string) bool {
	n := Normalize(name)
	if len([]rune(n)) < minContainLen || onlyQualifiers(n) {
		return false
	}
	t := Normalize(text)
	return containsWord(t, n) || containsWord(t, StripQualifiers(n))
}

func scoreText(name, text, field string) Score {
	n := Normalize(name)
	t := Normalize(text)
	if n == "" || t == "" {
		return Score{}
	}

	penalty := 0.0
	if field == FieldSubtitle {
		penalty = subtitlePenalty
	}
	score := func(c float64, kind, segment string) Score {
		return Score{Confidence: c - penalty, MatchType: kind, Field: field, Segment: segment}
	}

	if t == n {
		return score(1.0, MatchExact, "")
	}

	stripped := StripQualifiers(n)
	segments := SplitSegments(text)
	for _, seg := range segments {
		if seg == n {
			return score(1.0, MatchSegment, seg)
		}
	}
	for _, seg := range segments {
		if StripQualifiers(seg) == stripped {
			return score(0.95, MatchQualifier, seg)
		}
	}

	if len([]rune(stripped)) >= minContainLen && !onlyQualifiers(n) && (containsWord(t, n) || containsWord(t, stripped)) {
		return score(0.85, MatchContains, "")
	}

	var best Score
	for _, seg := range segments {
		sim := Similarity(StripQualifiers(seg), stripped)
		if sim >= fuzzyFloor && sim*0.9-penalty > best.Confidence {
			best = score(sim*0.9, MatchFuzzy, seg)
		}
	}
	return best
}

// onlyQualifiers reports whether every token of a normalized name is a lineup qualifier,
// as in "Live" or "DJ Set". Such names never match by containment.
func onlyQualifiers(normalized string) bool {
	tokens := strings.Fields(normalized)
	for _, tok := range tokens {
		if _, ok := qualifiers[tok]; !ok {
			return false
		}
	}
	return len(tokens) > 0
}

func clamp(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
