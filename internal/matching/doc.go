// Package matching infers which artists perform at which events from free text.
//
// Event titles and subtitles are split into acts on lineup separators (commas, "&", "b2b",
// "feat." and similar), normalized, and compared with the artist name. Scores:
//   - 1.0 : whole field or one act equals the name
//   - 0.95 : equal once qualifiers such as DJ, Live or B2B are removed
//   - 0.85 : the name appears as whole words in the field
//   - similarity * 0.9 : an act is within Levenshtein similarity 0.85 of the name
//
// Matches found only in the subtitle lose 0.1. Scores below the [Matcher] threshold are discarded.
package matching
