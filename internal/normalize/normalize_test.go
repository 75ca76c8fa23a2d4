package normalize

import (
	"slices"
	"testing"
)

func TestCountryCode(t *testing.T) {
	tt := []struct {
		name  string
		label string
		value string
		want  string
	}{
		{name: "code in value", label: "Denmark", value: "dk", want: "DK"},
		{name: "english label", label: "United Kingdom", value: "", want: "GB"},
		{name: "danish label", label: "Tyskland", value: "", want: "DE"},
		{name: "label casing and spaces", label: "  sOUTH africa ", value: "", want: "ZA"},
		{name: "name in value", label: "", value: "Sweden", want: "SE"},
		{name: "multi-country label", label: "Norway/Sweden", value: "", want: "NO"},
		{name: "unknown", label: "Atlantis", value: "", want: ""},
		{name: "empty", label: "", value: "", want: ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountryCode(tc.label, tc.value); got != tc.want {
				t.Errorf("CountryCode(%q, %q) = %q, want %q", tc.label, tc.value, got, tc.want)
			}
		})
	}
}

func TestGenreTags(t *testing.T) {
	tt := []struct {
		name       string
		categories string
		want       []string
	}{
		{name: "synonyms", categories: "Hip Hop/Elektronisk", want: []string{"electronic", "hip-hop"}},
		{name: "dedupe", categories: "Rap/Hiphop/hip hop", want: []string{"hip-hop"}},
		{name: "unknown kept", categories: "Dream Pop", want: []string{"dream-pop"}},
		{name: "blank segments", categories: " / Rock / ", want: []string{"rock"}},
		{name: "empty", categories: "", want: []string{}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := GenreTags(tc.categories); !slices.Equal(got, tc.want) {
				t.Errorf("GenreTags(%q) = %v, want %v", tc.categories, got, tc.want)
			}
		})
	}
}
