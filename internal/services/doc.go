// Package services implements the HTTP clients the sync pipeline depends on.
//
// # Program Source
//
// [FestivalClient] pages through the festival's public program API until an empty page
// comes back, cleans raw records into [models.Artist] and [models.Event] values, and
// fetches event detail pages for lineup extraction. Detail-page fetches run through a
// circuit breaker so a struggling site is not hammered by the lineup phase.
//
// Lineups are pulled out of HTML by a [LineupExtractor]. [LinkExtractor] looks for anchors
// shaped like /<category>/<slug>/<id>; no matches is a valid empty lineup.
//
// # Enrichment Provider
//
// [SpotifyService] authenticates with the client-credentials flow. The access token is
// cached and refreshed 60 seconds before it expires.
//
// Top tracks walk the preferred market and then the fallback markets until one returns a
// playable preview. Audio features answer 403 for this grant type, which is reported as an
// empty result, and [SyntheticFeatures] fills the gap from genres and popularity.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : upstream returned a non-2xx status ([APIError])
//   - [shared.ErrRateLimited] : upstream returned 429 ([RateLimitError]), never retried
//   - [shared.ErrNotFound] : upstream returned 404
//   - [shared.ErrMissingCredentials] : Spotify client id or secret not configured
package services
