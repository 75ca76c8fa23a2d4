package matching

import (
	"context"
	"testing"

	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/repositories"
	tu "github.com/desertthunder/lineup/internal/testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Kendrick   LAMAR ", "kendrick lamar"},
		{"Guns N' Roses", "guns n roses"},
		{"Sigur Rós!", "sigur rós"},
		{"AC/DC", "ac dc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripQualifiers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dj koze", "koze"},
		{"moderat live", "moderat"},
		{"dj", "dj"},
		{"the national", "the national"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := StripQualifiers(tt.in); got != tt.want {
				t.Errorf("StripQualifiers(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitSegments(t *testing.T) {
	got := SplitSegments("Ben UFO b2b Joy Orbison, Call Super & Objekt (UK) feat. Peach")
	want := []string{"ben ufo", "joy orbison", "call super", "objekt", "peach"}

	if len(got) != len(want) {
		t.Fatalf("SplitSegments() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		if got := Similarity("robyn", "robyn"); got != 1.0 {
			t.Errorf("Similarity() = %v, want 1", got)
		}
	})

	t.Run("one edit", func(t *testing.T) {
		got := Similarity("bjork", "björk")
		if got < 0.79 || got > 0.81 {
			t.Errorf("Similarity() = %v, want 0.8", got)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if got := Similarity("", "abc"); got != 0 {
			t.Errorf("Similarity() = %v, want 0", got)
		}
	})
}

func TestScoreEvent(t *testing.T) {
	tests := []struct {
		name     string
		artist   string
		title    string
		subtitle string
		kind     string
		field    string
		min, max float64
	}{
		{"exact title", "Robyn", "ROBYN", "", MatchExact, FieldTitle, 1, 1},
		{"segment", "Joy Orbison", "Ben UFO b2b Joy Orbison", "", MatchSegment, FieldTitle, 1, 1},
		{"qualifier", "Koze", "DJ Koze", "", MatchQualifier, FieldTitle, 0.95, 0.95},
		{"contains", "Moderat", "Moderat Orchestra Night", "", MatchContains, FieldTitle, 0.85, 0.85},
		{"subtitle only", "Moderat", "Late Night Session", "Moderat, Apparat", MatchSegment, FieldSubtitle, 0.9, 0.9},
		{"fuzzy", "Fontaines DC", "Fontaines D.C", "", MatchFuzzy, FieldTitle, 0.76, 0.9},
		{"short name no containment", "MØ", "Mømø jazz", "", "", "", 0, 0},
		{"qualifier-only name no containment", "Live", "Moderat Live Show", "", "", "", 0, 0},
		{"qualifier-only pair no containment", "DJ Set", "Closing DJ Set by Robyn", "", "", "", 0, 0},
		{"qualifier-only name exact", "Band", "BAND", "", MatchExact, FieldTitle, 1, 1},
		{"unrelated", "Robyn", "Kraftwerk 3-D", "", "", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreEvent(tt.artist, &models.Event{Title: tt.title, Subtitle: tt.subtitle})
			if got.MatchType != tt.kind {
				t.Errorf("MatchType = %q, want %q", got.MatchType, tt.kind)
			}
			if got.Field != tt.field {
				t.Errorf("Field = %q, want %q", got.Field, tt.field)
			}
			if got.Confidence < tt.min-1e-9 || got.Confidence > tt.max+1e-9 {
				t.Errorf("Confidence = %v, want in [%v, %v]", got.Confidence, tt.min, tt.max)
			}
		})
	}
}

func TestScoreEventRange(t *testing.T) {
	names := []string{"A", "DJ", "Robyn", "The The", "Sigur Rós", "B2B", ""}
	titles := []string{"", "DJ", "Robyn b2b Robyn", "the the the", "Sigur Ros live", "x / + &"}

	for _, n := range names {
		for _, title := range titles {
			s := ScoreEvent(n, &models.Event{Title: title, Subtitle: title})
			if s.Confidence < 0 || s.Confidence > 1 {
				t.Errorf("ScoreEvent(%q, %q) = %v, out of range", n, title, s.Confidence)
			}
		}
	}
}

func TestContainsName(t *testing.T) {
	if !ContainsName("Friday: Robyn, Lorde", "robyn") {
		t.Error("expected Robyn to be contained")
	}
	if ContainsName("Robynson Crusoe", "Robyn") {
		t.Error("partial word should not match")
	}
	if ContainsName("MØ live", "MØ") {
		t.Error("names shorter than three runes should not match")
	}
	for _, name := range []string{"Live", "Band", "Set", "DJ Set"} {
		if ContainsName("Moderat Live Band DJ Set", name) {
			t.Errorf("qualifier-only name %q should not match", name)
		}
	}
}

func seed(t *testing.T, m *Matcher, artists []string, events [][2]string) {
	t.Helper()
	for i, name := range artists {
		if _, err := m.artists.Upsert(&models.Artist{ExternalID: "a" + string(rune('0'+i)), Title: name}); err != nil {
			t.Fatalf("failed to seed artist: %v", err)
		}
	}
	for i, ev := range events {
		if _, err := m.events.Upsert(&models.Event{ExternalID: "e" + string(rune('0'+i)), Title: ev[0], Subtitle: ev[1]}); err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}
}

func TestMatcher(t *testing.T) {
	t.Run("FindEventsForArtist sorts by confidence", func(t *testing.T) {
		db := tu.NewTestDB(t)
		m := NewMatcher(db, 0, nil)
		seed(t, m, []string{"Koze"}, [][2]string{
			{"Late show", "with Koze and guests"},
			{"DJ Koze", ""},
			{"Koze", ""},
			{"Kraftwerk", ""},
		})

		artist, err := m.artists.GetByExternalID("a0")
		if err != nil {
			t.Fatalf("GetByExternalID() error = %v", err)
		}
		matches, err := m.FindEventsForArtist(artist)
		if err != nil {
			t.Fatalf("FindEventsForArtist() error = %v", err)
		}
		if len(matches) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(matches))
		}
		if matches[0].Event.Title != "Koze" || matches[0].Confidence != 1 {
			t.Errorf("expected exact match first, got %+v", matches[0])
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Confidence > matches[i-1].Confidence {
				t.Errorf("matches not sorted: %v > %v", matches[i].Confidence, matches[i-1].Confidence)
			}
		}
	})

	t.Run("GetEventArtists", func(t *testing.T) {
		db := tu.NewTestDB(t)
		m := NewMatcher(db, 0, nil)
		seed(t, m, []string{"Ben UFO", "Joy Orbison", "Robyn"}, [][2]string{{"Ben UFO b2b Joy Orbison", ""}})

		event, err := m.events.GetByExternalID("e0")
		if err != nil {
			t.Fatalf("GetByExternalID() error = %v", err)
		}
		matches, err := m.GetEventArtists(event)
		if err != nil {
			t.Fatalf("GetEventArtists() error = %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 artists, got %d", len(matches))
		}
	})

	t.Run("threshold discards weak matches", func(t *testing.T) {
		db := tu.NewTestDB(t)
		m := NewMatcher(db, 0.99, nil)
		seed(t, m, []string{"Koze"}, [][2]string{{"DJ Koze", ""}, {"Koze", ""}})

		artist, _ := m.artists.GetByExternalID("a0")
		matches, err := m.FindEventsForArtist(artist)
		if err != nil {
			t.Fatalf("FindEventsForArtist() error = %v", err)
		}
		if len(matches) != 1 {
			t.Errorf("expected only the exact match, got %d", len(matches))
		}
	})
}

func TestLinkAllArtistsToEvents(t *testing.T) {
	db := tu.NewTestDB(t)
	m := NewMatcher(db, 0, nil)
	seed(t, m, []string{"Robyn", "Koze", "Nobody Here"}, [][2]string{
		{"Robyn", ""},
		{"DJ Koze", ""},
		{"Robyn & Koze", ""},
	})

	var progress []float64
	var last string
	summary, err := m.LinkAllArtistsToEvents(context.Background(), func(p float64, msg string) {
		progress = append(progress, p)
		last = msg
	})
	if err != nil {
		t.Fatalf("LinkAllArtistsToEvents() error = %v", err)
	}

	if summary.TotalArtists != 3 {
		t.Errorf("TotalArtists = %d, want 3", summary.TotalArtists)
	}
	if summary.TotalMatches != 4 || summary.NewLinks != 4 {
		t.Errorf("expected 4 matches and links, got %+v", summary)
	}
	if summary.High+summary.Medium+summary.Low != summary.TotalMatches {
		t.Errorf("buckets do not add up: %+v", summary)
	}
	if len(progress) != 3 || progress[2] != 100 {
		t.Errorf("unexpected progress reports %v", progress)
	}
	if last == "" {
		t.Error("expected a status message")
	}

	t.Run("re-run adds no links", func(t *testing.T) {
		again, err := m.LinkAllArtistsToEvents(context.Background(), nil)
		if err != nil {
			t.Fatalf("LinkAllArtistsToEvents() error = %v", err)
		}
		if again.NewLinks != 0 {
			t.Errorf("expected no new links, got %d", again.NewLinks)
		}

		count, err := repositories.NewLinkRepository(db).Count()
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if count != 4 {
			t.Errorf("expected 4 links, got %d", count)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := m.LinkAllArtistsToEvents(ctx, nil); err == nil {
			t.Error("expected context error")
		}
	})
}
