// Package models defines domain entities and persistence interfaces for the lineup festival catalog.
//
// The package contains two categories of types:
//
// 1. Source-of-truth records synced from the festival program API
//   - [Artist] : Performer keyed by the festival's external id
//   - [Event] : Program item with dates, venue, categories and an optional parsed lineup
//
// 2. Derived records written by the pipeline
//   - [Enrichment] : Additive Spotify metadata attached to an artist
//   - [ArtistEventLink] : Inferred artist/event association with a confidence score
//   - [SyncHistory] : Durable audit row for each sync run
//
// Enrichment is additive only: nothing in this package or its repositories lets it overwrite
// an artist's source fields.
package models
