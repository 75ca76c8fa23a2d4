// Package repositories implements SQLite and Postgres persistence for the festival catalog.
//
// Key Implementations:
//   - [ArtistRepository] : Artist upserts keyed by external id plus enrichment-only writes
//   - [EventRepository] : Event upserts keyed by external id plus parsed lineup storage
//   - [LinkRepository] : Artist/event links, deduplicated by a unique (artist_id, event_id) pair
//   - [SyncHistoryRepository] : Audit rows for simple and comprehensive sync runs
//
// Upserts are a single INSERT ... ON CONFLICT DO NOTHING followed by an UPDATE when the
// natural key already exists, so the uniqueness constraint in the schema is what keeps
// concurrent syncs from creating duplicates.
//
// Queries are written with "?" placeholders and passed through [shared.Database.Rebind].
package repositories
