// Package ui implements an interactive terminal browser for a library using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [TreeView] : the playlist tree, flattened depth first in sibling order
//  2. [TrackListView] : the selected playlist's entries in chain order, with a waveform preview of the highlighted track
//  3. [ConfirmView] : confirm removing the highlighted entry from the playlist
//
// The [Model] implements bubbletea's Init/Update/View pattern and receives results of
// library calls through the [Msg] union type. Library access goes through the small
// [Playlists], [Members] and [Waveforms] interfaces.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, y/n, r, q) with help rendered by charmbracelet/bubbles/help.
package ui
