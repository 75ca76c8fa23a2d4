package services

import "testing"

func TestLinkExtractor(t *testing.T) {
	tt := []struct {
		name    string
		html    string
		exclude string
		want    []string // "name|id"
	}{
		{
			name: "relative and absolute links",
			html: `<a href="/artist/the-band/1">The Band</a>
				<a href="https://fest.test/kunstner/someone-else/2?ref=x#top">Someone Else</a>`,
			want: []string{"The Band|1", "Someone Else|2"},
		},
		{
			name:    "excludes own event id",
			html:    `<a href="/music/big-show/9">Big Show</a><a href="/music/dj-a/3">DJ A</a>`,
			exclude: "9",
			want:    []string{"DJ A|3"},
		},
		{
			name: "falls back to title then slug",
			html: `<a href="/artist/x/4" title="Titled"><img src="x.png"></a><a href="/artist/slug-name/5"></a>`,
			want: []string{"Titled|4", "Slug Name|5"},
		},
		{
			name: "ignores other categories and shapes",
			html: `<a href="/news/a/1">News</a><a href="/artist/no-id">No id</a><a href="mailto:x@y">Mail</a>`,
			want: []string{},
		},
		{
			name: "no links",
			html: `<p>TBA</p>`,
			want: []string{},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := LinkExtractor{Categories: DefaultLineupCategories}.ExtractLineup([]byte(tc.html), tc.exclude)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if entries == nil {
				t.Fatal("expected non-nil lineup")
			}
			if len(entries) != len(tc.want) {
				t.Fatalf("expected %d entries, got %+v", len(tc.want), entries)
			}
			for i, e := range entries {
				if got := e.Name + "|" + e.ExternalArtistID; got != tc.want[i] {
					t.Errorf("entry %d = %s, want %s", i, got, tc.want[i])
				}
			}
		})
	}
}
