package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/lineup/internal/tasks"
)

var _ list.Item = phaseItem{}

// phaseItem wraps a sync [tasks.Phase] with its enabled flag to implement [list.Item].
type phaseItem struct {
	phase   tasks.Phase
	enabled bool
}

func (i phaseItem) FilterValue() string { return i.phase.String() }
func (i phaseItem) Title() string {
	if i.enabled {
		return "[x] " + i.phase.String()
	}
	return "[ ] " + i.phase.String()
}
func (i phaseItem) Description() string {
	switch i.phase {
	case tasks.PhaseSyncArtists:
		return "Fetch and upsert every artist"
	case tasks.PhaseSyncEvents:
		return "Fetch and upsert every event"
	case tasks.PhaseParseLineups:
		return "Scrape lineups from event pages"
	case tasks.PhaseLinkArtists:
		return "Link artists to events by lineup and name"
	case tasks.PhaseEnrichArtists:
		return "Add Spotify metadata to unenriched artists"
	case tasks.PhaseCheckMissing:
		return "Report unlinked artists and missing lineup entries"
	default:
		return ""
	}
}

// phaseItems lists every sync phase, enabled per opts.
func phaseItems(opts tasks.Options) []list.Item {
	enabled := map[tasks.Phase]bool{}
	for _, p := range opts.Phases() {
		enabled[p] = true
	}
	all := tasks.AllPhases().Phases()
	items := make([]list.Item, len(all))
	for i, p := range all {
		items[i] = phaseItem{phase: p, enabled: enabled[p]}
	}
	return items
}

// optionsOf collects the enabled phases from items.
func optionsOf(items []list.Item, base tasks.Options) tasks.Options {
	opts := tasks.Options{From: base.From, To: base.To}
	for _, it := range items {
		if p, ok := it.(phaseItem); ok {
			opts.Set(p.phase, p.enabled)
		}
	}
	return opts
}
