// Package normalize maps free-text country and category strings from the festival API
// to canonical country codes and genre tags.
package normalize

import (
	"slices"
	"strings"
)

// countries maps lowercase English and Danish country names to ISO-3166 alpha-2 codes.
var countries = map[string]string{
	"argentina": "AR", "australia": "AU", "austria": "AT", "østrig": "AT",
	"belgium": "BE", "belgien": "BE", "brazil": "BR", "brasilien": "BR",
	"canada": "CA", "chile": "CL", "china": "CN", "kina": "CN", "colombia": "CO",
	"cuba": "CU", "czech republic": "CZ", "czechia": "CZ", "tjekkiet": "CZ",
	"denmark": "DK", "danmark": "DK", "egypt": "EG", "egypten": "EG",
	"estonia": "EE", "estland": "EE", "ethiopia": "ET", "etiopien": "ET",
	"faroe islands": "FO", "færøerne": "FO", "finland": "FI",
	"france": "FR", "frankrig": "FR", "germany": "DE", "tyskland": "DE",
	"ghana": "GH", "greece": "GR", "grækenland": "GR", "greenland": "GL", "grønland": "GL",
	"hungary": "HU", "ungarn": "HU", "iceland": "IS", "island": "IS",
	"india": "IN", "indien": "IN", "indonesia": "ID", "indonesien": "ID",
	"iran": "IR", "ireland": "IE", "irland": "IE", "israel": "IL",
	"italy": "IT", "italien": "IT", "jamaica": "JM", "japan": "JP",
	"kenya": "KE", "latvia": "LV", "letland": "LV", "lithuania": "LT", "litauen": "LT",
	"mali": "ML", "mexico": "MX", "mexiko": "MX", "morocco": "MA", "marokko": "MA",
	"netherlands": "NL", "the netherlands": "NL", "holland": "NL", "nederlandene": "NL",
	"new zealand": "NZ", "new zealand (aotearoa)": "NZ", "nigeria": "NG",
	"norway": "NO", "norge": "NO", "palestine": "PS", "palæstina": "PS",
	"poland": "PL", "polen": "PL", "portugal": "PT", "senegal": "SN",
	"south africa": "ZA", "sydafrika": "ZA", "south korea": "KR", "korea": "KR", "sydkorea": "KR",
	"spain": "ES", "spanien": "ES", "sweden": "SE", "sverige": "SE",
	"switzerland": "CH", "schweiz": "CH", "turkey": "TR", "tyrkiet": "TR",
	"ukraine": "UA", "united kingdom": "GB", "uk": "GB", "great britain": "GB",
	"england": "GB", "scotland": "GB", "wales": "GB", "storbritannien": "GB",
	"united states": "US", "usa": "US", "united states of america": "US",
}

// CountryCode resolves a country label/value pair to an ISO-3166 alpha-2 code.
//
// A two-letter value is trusted as a code. Otherwise the label and then the value are
// looked up by name. Multi-country labels ("Denmark/Sweden") resolve to the first known
// country. Unknown input yields "".
func CountryCode(label, value string) string {
	v := strings.TrimSpace(value)
	if len(v) == 2 && isLetters(v) {
		return strings.ToUpper(v)
	}

	for _, candidate := range []string{label, value} {
		if code := lookupCountry(candidate); code != "" {
			return code
		}
	}
	return ""
}

func lookupCountry(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if code, ok := countries[s]; ok {
		return code
	}
	for part := range strings.FieldsFuncSeq(s, isCountrySeparator) {
		if code, ok := countries[strings.TrimSpace(part)]; ok {
			return code
		}
	}
	return ""
}

func isCountrySeparator(r rune) bool {
	return r == '/' || r == ',' || r == '&' || r == '+'
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// genreSynonyms folds category spellings into canonical tags.
var genreSynonyms = map[string]string{
	"hiphop":            "hip-hop",
	"hip hop":           "hip-hop",
	"rap":               "hip-hop",
	"r&b":               "rnb",
	"r'n'b":             "rnb",
	"rnb":               "rnb",
	"soul":              "soul",
	"elektronisk":       "electronic",
	"electronica":       "electronic",
	"electronic":        "electronic",
	"elektronik":        "electronic",
	"techno":            "techno",
	"house":             "house",
	"club":              "club",
	"dj":                "club",
	"rock":              "rock",
	"indie":             "indie",
	"indie rock":        "indie",
	"pop":               "pop",
	"metal":             "metal",
	"heavy metal":       "metal",
	"punk":              "punk",
	"hardcore":          "punk",
	"jazz":              "jazz",
	"folk":              "folk",
	"country":           "country",
	"singer-songwriter": "singer-songwriter",
	"world":             "world",
	"verdensmusik":      "world",
	"afrobeat":          "afrobeats",
	"afrobeats":         "afrobeats",
	"reggae":            "reggae",
	"klassisk":          "classical",
	"classical":         "classical",
	"experimental":      "experimental",
	"eksperimenterende": "experimental",
	"ambient":           "ambient",
	"latin":             "latin",
	"blues":             "blues",
}

// GenreTags splits a slash-delimited category string into sorted, de-duplicated canonical tags.
// Categories without a synonym entry are kept lowercased with inner spaces replaced by dashes.
func GenreTags(categories string) []string {
	tags := []string{}
	for raw := range strings.SplitSeq(categories, "/") {
		key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
		if key == "" {
			continue
		}
		tag, ok := genreSynonyms[key]
		if !ok {
			tag = strings.ReplaceAll(key, " ", "-")
		}
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags
}
