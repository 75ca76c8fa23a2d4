package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lineup/internal/models"
	"github.com/desertthunder/lineup/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	OptionsView ViewState = iota
	SyncView
	ResultView
)

// logTail is how many session log lines the sync view shows.
const logTail = 8

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	engine    *tasks.Engine
	base      tasks.Options
	width     int
	height    int
	phases    list.Model
	bar       progress.Model
	sessionID string
	progress  tasks.ProgressUpdate
	session   tasks.Session
	result    *syncResult
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// opts preselects phases; enrichment is switched off when the engine has no enricher.
func NewModel(ctx context.Context, engine *tasks.Engine, opts tasks.Options) *Model {
	if engine.Enricher() == nil {
		opts.EnrichArtists = false
	}

	phases := list.New(phaseItems(opts), list.NewDefaultDelegate(), 0, 0)
	phases.Title = "Comprehensive Sync"
	phases.SetFilteringEnabled(false)
	phases.SetShowStatusBar(false)
	phases.SetShowHelp(false)

	return &Model{
		ctx:    ctx,
		view:   OptionsView,
		engine: engine,
		base:   opts,
		phases: phases,
		bar:    progress.New(progress.WithDefaultGradient()),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init is a no-op; the sync starts when the user confirms the phases.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.phases.SetSize(msg.Width-4, msg.Height-6)
		m.bar.Width = min(max(msg.Width-8, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case OptionsView:
			return m.handleOptionsKeys(msg)
		case SyncView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	if m.view == OptionsView {
		m.phases, cmd = m.phases.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSyncStarted:
		data := msg.data.(struct {
			sessionID string
			err       error
		})
		if data.err != nil {
			m.err = data.err
			m.view = OptionsView
			return m, nil
		}
		m.sessionID = data.sessionID
		m.view = SyncView
		return m, m.run(m.Options())

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		m.refreshSession()
		return m, msg.next

	case MsgSyncComplete:
		result := msg.data.(syncResult)
		m.result = &result
		m.refreshSession()
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case OptionsView:
		return m.renderOptions()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

// Options returns the phases currently selected.
func (m *Model) Options() tasks.Options {
	return optionsOf(m.phases.Items(), m.base)
}

func (m *Model) handleOptionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		idx := m.phases.Index()
		if item, ok := m.phases.SelectedItem().(phaseItem); ok {
			item.enabled = !item.enabled
			if item.phase == tasks.PhaseEnrichArtists && m.engine.Enricher() == nil {
				item.enabled = false
				m.err = fmt.Errorf("enrichment needs Spotify credentials")
			}
			return m, m.phases.SetItem(idx, item)
		}
		return m, nil
	case key.Matches(msg, m.keys.start):
		opts := m.Options()
		if len(opts.Phases()) == 0 {
			m.err = fmt.Errorf("select at least one phase")
			return m, nil
		}
		m.err = nil
		return m, m.prepare(opts)
	}

	var cmd tea.Cmd
	m.phases, cmd = m.phases.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = OptionsView
		m.sessionID = ""
		m.progress = tasks.ProgressUpdate{}
		m.session = tasks.Session{}
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) prepare(opts tasks.Options) tea.Cmd {
	return func() tea.Msg {
		id, err := m.engine.PrepareComprehensive("", opts)
		return syncStartedMsg(id, err)
	}
}

// run starts the sync and streams its updates back as messages.
//
// The channels are captured by the returned commands so the model is never touched
// from the sync goroutine.
func (m *Model) run(opts tasks.Options) tea.Cmd {
	updates := make(chan tasks.ProgressUpdate, 64)
	done := make(chan syncResult, 1)
	id := m.sessionID

	go func() {
		stats, err := m.engine.RunComprehensive(m.ctx, id, opts, updates)
		done <- syncResult{stats: stats, err: err}
		close(updates)
	}()

	return waitForProgress(updates, done)
}

func waitForProgress(updates <-chan tasks.ProgressUpdate, done <-chan syncResult) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return syncCompleteMsg(<-done)
		}
		return progressUpdateMsg(update, waitForProgress(updates, done))
	}
}

func (m *Model) refreshSession() {
	if m.sessionID == "" {
		return
	}
	if s, err := m.engine.Sessions().Get(m.sessionID); err == nil {
		m.session = s
	}
}

func (m *Model) renderOptions() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.start, m.keys.quit}
	out := m.phases.View()
	if m.err != nil {
		out += "\n" + styles.err.Render(m.err.Error())
	}
	return fmt.Sprintf("%s\n\n%s", out, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Comprehensive Sync · " + m.sessionID))
	b.WriteString("\n")

	phase := m.progress.Phase.String()
	if m.progress.Total > 0 {
		phase = fmt.Sprintf("%s (%d/%d)", phase, m.progress.Step, m.progress.Total)
	}
	fmt.Fprintf(&b, "%s\n%s\n%s\n", styles.ok.Render(phase), m.bar.ViewAs(m.progress.Progress/100), m.progress.Message)
	if m.session.CurrentItem != "" {
		b.WriteString(styles.help.Render("→ "+m.session.CurrentItem) + "\n")
	}

	if stats, ok := m.session.Stats.(tasks.SyncStats); ok {
		b.WriteString("\n" + renderStats(stats) + "\n")
	}
	b.WriteString("\n" + renderLogs(m.session.Logs, logTail))
	b.WriteString("\n\n" + m.help.ShortHelpView([]key.Binding{m.keys.quit}))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	var b strings.Builder
	if m.result.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("✗ Sync failed during %s: %v", m.session.Phase, m.result.err)))
	} else {
		b.WriteString(styles.ok.Render("✓ Sync Complete"))
	}
	b.WriteString("\n\n" + renderStats(m.result.stats))

	if report, ok := m.session.Report.(*models.GapReport); ok && report != nil {
		fmt.Fprintf(&b, "\n\n%s\n%s%d\n%s%d\n%s%d",
			styles.warn.Render("Gap report"),
			styles.label.Render("Artists without events"), report.ArtistsWithoutEvents,
			styles.label.Render("Missing lineup artists"), len(report.MissingArtists),
			styles.label.Render("Potential events"), tasks.PotentialEvents(report),
		)
	}

	b.WriteString("\n\n" + renderLogs(m.session.Logs, logTail))
	b.WriteString("\n\n" + helpView)
	return b.String()
}

func renderStats(s tasks.SyncStats) string {
	rows := []struct {
		label string
		value string
	}{
		{"Artists", fmt.Sprintf("%d fetched, %d new, %d updated, %d failed", s.ArtistsFetched, s.ArtistsCreated, s.ArtistsUpdated, s.ArtistsFailed)},
		{"Events", fmt.Sprintf("%d fetched, %d new, %d updated, %d failed", s.EventsFetched, s.EventsCreated, s.EventsUpdated, s.EventsFailed)},
		{"Lineups", fmt.Sprintf("%d parsed, %d found, %d entries, %d errors", s.LineupsParsed, s.LineupsFound, s.LineupEntries, s.LineupErrors)},
		{"Links", fmt.Sprintf("%d new, %d existing, %d missing artists, %d errors", s.LinksCreated, s.LinksExisting, s.MissingArtists, s.LinkErrors)},
		{"Enrichment", fmt.Sprintf("%d/%d enriched, %d errors", s.ArtistsEnriched, s.ArtistsToEnrich, s.EnrichmentErrors)},
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = styles.label.Render(r.label) + r.value
	}
	return styles.box.Render(strings.Join(lines, "\n"))
}

func renderLogs(logs []tasks.LogEntry, n int) string {
	if len(logs) > n {
		logs = logs[len(logs)-n:]
	}
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = styles.level(l.Level).Render(fmt.Sprintf("%s %s", l.Time.Format("15:04:05"), l.Message))
	}
	return strings.Join(lines, "\n")
}
