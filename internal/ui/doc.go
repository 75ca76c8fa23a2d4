// Package ui implements an interactive terminal monitor for comprehensive syncs using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [OptionsView] : Toggle the six sync phases
//  2. [SyncView] : Watch the running session (phase, progress bar, stats, log tail)
//  3. [ResultView] : Final stats, gap report summary, and the error of a failed phase
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the sync engine; each update also refreshes the
// session snapshot so stats and logs match what the HTTP API reports.
//
// Logging must go to a file while the TUI owns the terminal (see shared.NewFileLogger).
package ui
