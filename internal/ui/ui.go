package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/waveform"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TreeView ViewState = iota
	TrackListView
	ConfirmView
)

// Playlists reads the playlist tree. [services.PlaylistService] implements it.
type Playlists interface {
	Tree(ctx context.Context) ([]*models.PlaylistNode, error)
}

// Members reads and edits playlist entries. [services.MembershipService] implements it.
type Members interface {
	Tracks(ctx context.Context, listID int64) ([]*models.PlaylistTrack, error)
	Remove(ctx context.Context, listID, entityID int64) error
}

// Waveforms loads overview previews. [services.WaveformService] implements it.
type Waveforms interface {
	Get(ctx context.Context, trackIDs []int64) (map[int64][]waveform.Bar, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	playlists Playlists
	members   Members
	waveforms Waveforms
	width     int
	height    int
	tree      list.Model
	trackList list.Model
	selected  *models.Playlist
	previews  map[int64][]waveform.Bar
	status    string
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies. waveforms may be nil.
func NewModel(ctx context.Context, playlists Playlists, members Members, waveforms Waveforms) *Model {
	return &Model{
		ctx:       ctx,
		view:      TreeView,
		playlists: playlists,
		members:   members,
		waveforms: waveforms,
		tree:      newList("Playlists", nil),
		trackList: newList("Tracks", nil),
		previews:  map[int64][]waveform.Bar{},
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init loads the playlist tree.
func (m *Model) Init() tea.Cmd {
	return m.fetchTree()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TreeView:
			return m.handleTreeKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTreeFetched:
		data := msg.data.(treeFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.err = nil
		cmd := m.tree.SetItems(flatten(data.roots))
		return m, cmd

	case MsgTracksFetched:
		data := msg.data.(tracksFetched)
		if data.err != nil {
			m.err = data.err
			m.view = TreeView
			return m, nil
		}
		m.err = nil
		cmd := m.trackList.SetItems(trackItems(data.tracks))
		m.view = TrackListView
		return m, tea.Batch(cmd, m.fetchWaveforms(data.tracks))

	case MsgWaveformsFetched:
		for id, bars := range msg.data.(map[int64][]waveform.Bar) {
			m.previews[id] = bars
		}
		return m, nil

	case MsgEntryRemoved:
		data := msg.data.(entryRemoved)
		m.view = TrackListView
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("remove failed: %v", data.err))
			return m, nil
		}
		m.status = styles.ok.Render(fmt.Sprintf("removed entry %d", data.entityID))
		return m, m.fetchTracks(data.listID)
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to reload, q to quit", m.err))
	}

	switch m.view {
	case TreeView:
		return m.renderTree()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) resize() {
	w, h := max(m.width-4, 0), max(m.height-8, 0)
	m.tree.SetSize(w, h)
	m.trackList.SetSize(w, h)
}

func (m *Model) handleTreeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tree.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tree, cmd = m.tree.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchTree()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.tree.SelectedItem().(playlistItem); ok {
			p := item.playlist
			m.selected = &p
			m.status = ""
			m.trackList.Title = fmt.Sprintf("Tracks in '%s'", p.Title)
			return m, m.fetchTracks(p.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tree, cmd = m.tree.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = TreeView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchTracks(m.selected.ID)
	case key.Matches(msg, m.keys.remove):
		if _, ok := m.trackList.SelectedItem().(trackItem); ok {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		item, ok := m.trackList.SelectedItem().(trackItem)
		if !ok {
			m.view = TrackListView
			return m, nil
		}
		return m, m.removeEntry(m.selected.ID, item.track.EntityID)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = TrackListView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case TreeView:
		m.tree, cmd = m.tree.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchTree() tea.Cmd {
	return func() tea.Msg {
		roots, err := m.playlists.Tree(m.ctx)
		return treeFetchedMsg(roots, err)
	}
}

func (m *Model) fetchTracks(listID int64) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.members.Tracks(m.ctx, listID)
		return tracksFetchedMsg(listID, tracks, err)
	}
}

func (m *Model) fetchWaveforms(tracks []*models.PlaylistTrack) tea.Cmd {
	if m.waveforms == nil || len(tracks) == 0 {
		return nil
	}
	var ids []int64
	for _, t := range tracks {
		if _, seen := m.previews[t.ID]; !seen {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return func() tea.Msg {
		previews, err := m.waveforms.Get(m.ctx, ids)
		if err != nil {
			return waveformsFetchedMsg(nil)
		}
		return waveformsFetchedMsg(previews)
	}
}

func (m *Model) removeEntry(listID, entityID int64) tea.Cmd {
	return func() tea.Msg {
		return entryRemovedMsg(listID, entityID, m.members.Remove(m.ctx, listID, entityID))
	}
}

func (m *Model) renderTree() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.refresh, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.tree.View(), helpView)
}

func (m *Model) renderTrackList() string {
	preview := ""
	if item, ok := m.trackList.SelectedItem().(trackItem); ok {
		preview = Sparkline(m.previews[item.track.ID])
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.remove, m.keys.back, m.keys.refresh, m.keys.quit})
	out := fmt.Sprintf("%s\n\n%s\n%s", m.trackList.View(), preview, helpView)
	if m.status != "" {
		out += "\n" + m.status
	}
	return out
}

func (m *Model) renderConfirm() string {
	item, ok := m.trackList.SelectedItem().(trackItem)
	if !ok {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Remove '%s' from '%s'?", item.Title(), m.selected.Title))
	info := styles.warn.Render("The track stays in the library; only this entry is removed.")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n\n%s", title, info, helpView)
}
