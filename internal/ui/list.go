package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem is one row of the flattened playlist tree.
type playlistItem struct {
	playlist models.Playlist
	depth    int
	children int
}

func (i playlistItem) FilterValue() string { return i.playlist.Title }
func (i playlistItem) Title() string {
	return strings.Repeat("  ", i.depth) + i.playlist.Title
}
func (i playlistItem) Description() string {
	indent := strings.Repeat("  ", i.depth)
	if i.children == 0 {
		return fmt.Sprintf("%s#%d", indent, i.playlist.ID)
	}
	return fmt.Sprintf("%s#%d • %d nested", indent, i.playlist.ID, i.children)
}

// flatten lists the tree depth first in sibling order.
func flatten(roots []*models.PlaylistNode) []list.Item {
	var items []list.Item
	for _, root := range roots {
		root.Walk(0, func(n *models.PlaylistNode, depth int) {
			items = append(items, playlistItem{playlist: n.Playlist, depth: depth, children: len(n.Children)})
		})
	}
	return items
}

// trackItem wraps a playlist entry to implement [list.Item].
type trackItem struct {
	position int
	track    *models.PlaylistTrack
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }
func (i trackItem) Title() string {
	title := i.track.Title
	if title == "" {
		title = i.track.Filename
	}
	if title == "" {
		title = fmt.Sprintf("track %d", i.track.ID)
	}
	return fmt.Sprintf("%d. %s", i.position, title)
}
func (i trackItem) Description() string {
	parts := []string{}
	if i.track.Artist != "" {
		parts = append(parts, i.track.Artist)
	}
	if i.track.Album != "" {
		parts = append(parts, i.track.Album)
	}
	if i.track.Length > 0 {
		parts = append(parts, shared.FormatDuration(i.track.Length))
	}
	if i.track.BPM > 0 {
		parts = append(parts, fmt.Sprintf("%.0f bpm", i.track.BPM))
	}
	return strings.Join(parts, " • ")
}

func trackItems(tracks []*models.PlaylistTrack) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{position: i + 1, track: t}
	}
	return items
}
