// Package tasks runs the long-lived catalog operations and reports their progress.
//
// # Operations
//
// [Engine] implements [SyncEngine]:
//
//  1. [Engine.RunSimple] : artists then events, recorded as a sync_history row
//
//  2. [Engine.RunComprehensive] : up to six phases in fixed order
//     - Syncing Artists / Syncing Events : page the program API and upsert by external id
//     - Parsing Lineups : fetch event pages in batches (concurrent within a batch, paused between batches)
//     - Linking Artists : resolve lineup entries by external id, then by name
//     - Enriching Artists : look up unenriched artists in the catalog, spaced by a rate limiter
//     - Checking Missing : suggest events for artists that still have no links
//
//  3. [Engine.RunLinking] : name matching over event titles via [matching.Matcher]
//
// A failing phase halts the run and marks the session completed with its error. Work already
// committed by earlier phases stays. Per-item failures (a bad record, an unreachable event page,
// an artist the catalog does not know) are counted and skipped.
//
// # Progress Reporting
//
// Background runs report into a [SessionStore] keyed by session id; callers poll it. Sessions
// carry phase, progress in [0,100], a message, stats and a ring of the last 100 log lines, and
// are evicted a fixed time after they complete.
//
// In-process callers may also pass a channel of [ProgressUpdate]. Updates use select with
// default so a slow reader never blocks the run.
//
// # Enrichment
//
// [Enricher.EnrichArtist] writes only enrichment columns. An artist with a catalog id is skipped
// with [shared.ErrAlreadyEnriched] unless forced. When audio features are unavailable, synthetic
// features are stored and flagged.
package tasks
