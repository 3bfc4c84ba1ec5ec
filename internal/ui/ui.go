package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/services"
	"github.com/desertthunder/trx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	TrackListView
	ConfirmView
	MigrationView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx              context.Context
	view             ViewState
	source           services.Source
	engine           *tasks.MigrationEngine
	width            int
	height           int
	playlistList     list.Model
	playlists        []models.Playlist
	trackList        list.Model
	selectedPlaylist *models.Playlist
	progressChan     chan tasks.ProgressUpdate
	progress         tasks.ProgressUpdate
	result           *models.MigrationResult
	err              error
	help             help.Model
	keys             keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, source services.Source, engine *tasks.MigrationEngine) *Model {
	return &Model{
		ctx:    ctx,
		view:   PlaylistListView,
		source: source,
		engine: engine,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by fetching the source playlist listing.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Spotify Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selectedPlaylist = msg.playlist
		items := make([]list.Item, len(msg.playlist.Tracks))
		for i, track := range msg.playlist.Tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks in '%s'", msg.playlist.Name)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case migrationCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case MigrationView:
		return m.renderMigration()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				return m, m.fetchTracks(pl.playlist.SourceID)
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = MigrationView
		return m, m.startMigration()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PlaylistListView
		m.selectedPlaylist = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.source.GetPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) fetchTracks(playlistID string) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.source.GetPlaylist(m.ctx, playlistID)
		return tracksFetchedMsg{playlist: playlist, err: err}
	}
}

func (m *Model) startMigration() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Migrate(m.ctx, m.progressChan, m.selectedPlaylist.SourceID, tasks.MigrateOpts{})
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return migrationCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return migrationCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderTrackList() string {
	migrateKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "migrate"),
	)
	helpKeys := []key.Binding{migrateKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Migrate '%s' to YouTube Music?", m.selectedPlaylist.Name))
	info := fmt.Sprintf("\nPlaylist: %s\nTracks: %d\nVisibility: %s\n",
		m.selectedPlaylist.Name, len(m.selectedPlaylist.Tracks), visibilityLabel(m.selectedPlaylist.Public))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderMigration() string {
	title := styles.title.Render("Migrating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchSource:
		phase = "Fetching source playlist..."
	case tasks.CreatePlaylist:
		phase = "Creating playlist on YouTube Music..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.InsertTracks:
		phase = "Adding matched tracks..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Migration failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Migration Complete!")
	info := fmt.Sprintf(
		"\nSource: %s\nDestination playlist ID: %s\nSuccess rate: %d/%d (%.1f%%)",
		m.selectedPlaylist.Name,
		m.result.DestPlaylistID,
		m.result.Successful,
		m.result.TotalTracks,
		m.result.SuccessRate(),
	)

	var failed string
	if len(m.result.Failed) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Failed to match %d tracks:", len(m.result.Failed))))
		for _, track := range m.result.Failed {
			failed += fmt.Sprintf("\n  • %s - %s", track.ArtistLine(), track.Name)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}

func visibilityLabel(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
