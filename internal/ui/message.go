package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/waveform"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTreeFetched MsgKind = iota
	MsgTracksFetched
	MsgWaveformsFetched
	MsgEntryRemoved
)

type treeFetched struct {
	roots []*models.PlaylistNode
	err   error
}

type tracksFetched struct {
	listID int64
	tracks []*models.PlaylistTrack
	err    error
}

type entryRemoved struct {
	listID   int64
	entityID int64
	err      error
}

// treeFetchedMsg is the constructor for [MsgTreeFetched]
func treeFetchedMsg(roots []*models.PlaylistNode, err error) Msg {
	return Msg{kind: MsgTreeFetched, data: treeFetched{roots, err}}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(listID int64, tracks []*models.PlaylistTrack, err error) Msg {
	return Msg{kind: MsgTracksFetched, data: tracksFetched{listID, tracks, err}}
}

// waveformsFetchedMsg is the constructor for [MsgWaveformsFetched]. Lookup failures
// only cost the preview, so no error is carried.
func waveformsFetchedMsg(previews map[int64][]waveform.Bar) Msg {
	return Msg{kind: MsgWaveformsFetched, data: previews}
}

// entryRemovedMsg is the constructor for [MsgEntryRemoved]
func entryRemovedMsg(listID, entityID int64, err error) Msg {
	return Msg{kind: MsgEntryRemoved, data: entryRemoved{listID, entityID, err}}
}
