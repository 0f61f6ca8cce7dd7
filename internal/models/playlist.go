package models

import (
	"fmt"
	"strings"
)

// RootID is the parent id of top-level playlists and the next id of a chain tail.
const RootID int64 = 0

// Playlist is a node of the playlist tree.
//
// Siblings sharing ParentID form a singly-linked chain through NextID, ending at 0.
// LastEditTime, IsPersisted and IsExplicitlyExported are passed through unmodified.
type Playlist struct {
	ID                   int64  `json:"id"`
	Title                string `json:"title"`
	ParentID             int64  `json:"parentListId"`
	NextID               int64  `json:"nextListId"`
	LastEditTime         string `json:"lastEditTime,omitempty"`
	IsPersisted          bool   `json:"isPersisted"`
	IsExplicitlyExported bool   `json:"isExplicitlyExported"`
}

func (p *Playlist) Key() int64 { return p.ID }

// Validate checks the fields required to insert a playlist.
func (p *Playlist) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("playlist id must be positive, got %d", p.ID)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("playlist title is required")
	}
	if p.ParentID < 0 {
		return fmt.Errorf("playlist parent must not be negative, got %d", p.ParentID)
	}
	return nil
}

// PlaylistNode is a playlist with its children in sibling-chain order.
type PlaylistNode struct {
	Playlist
	Children []*PlaylistNode `json:"children,omitempty"`
}

// Walk calls fn for n and every descendant, depth first, with the node's depth.
func (n *PlaylistNode) Walk(depth int, fn func(*PlaylistNode, int)) {
	fn(n, depth)
	for _, c := range n.Children {
		c.Walk(depth+1, fn)
	}
}

// PlaylistEntity is a track membership.
//
// Entities sharing ListID form a singly-linked chain through NextID, ending at 0.
// DatabaseUUID scopes TrackID to the library the track came from.
type PlaylistEntity struct {
	ID                  int64  `json:"id"`
	ListID              int64  `json:"listId"`
	TrackID             int64  `json:"trackId"`
	DatabaseUUID        string `json:"databaseUuid"`
	NextID              int64  `json:"nextEntityId"`
	MembershipReference int64  `json:"membershipReference"`
}

func (e *PlaylistEntity) Key() int64 { return e.ID }

// Validate checks the fields required to insert a membership.
func (e *PlaylistEntity) Validate() error {
	if e.ID <= 0 {
		return fmt.Errorf("entity id must be positive, got %d", e.ID)
	}
	if e.ListID <= 0 {
		return fmt.Errorf("entity list id must be positive, got %d", e.ListID)
	}
	if e.TrackID <= 0 {
		return fmt.Errorf("entity track id must be positive, got %d", e.TrackID)
	}
	return nil
}

// PlaylistTrack is a membership joined with its track metadata.
// Track fields are zero when the referenced track is missing.
type PlaylistTrack struct {
	EntityID            int64  `json:"entityId"`
	ListID              int64  `json:"listId"`
	DatabaseUUID        string `json:"databaseUuid"`
	NextID              int64  `json:"nextEntityId"`
	MembershipReference int64  `json:"membershipReference"`
	Track
}
