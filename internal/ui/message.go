package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lineup/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	next tea.Cmd // continues a stream of messages
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSyncStarted MsgKind = iota
	MsgProgressUpdate
	MsgSyncComplete
)

// syncResult is the outcome of a comprehensive run.
type syncResult struct {
	stats tasks.SyncStats
	err   error
}

// syncStartedMsg is the constructor for [MsgSyncStarted]
func syncStartedMsg(sessionID string, err error) Msg {
	return Msg{
		kind: MsgSyncStarted,
		data: struct {
			sessionID string
			err       error
		}{sessionID, err},
	}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate, next tea.Cmd) Msg {
	return Msg{kind: MsgProgressUpdate, data: update, next: next}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result syncResult) Msg {
	return Msg{kind: MsgSyncComplete, data: result}
}
