// Package models defines the library entities and persistence interfaces for edbx.
//
// A library file stores two ordered collections as chains embedded in rows:
//   - [Playlist] : a node of the playlist tree; siblings under one parent are linked through NextID
//   - [PlaylistEntity] : a track membership; entries of one playlist are linked through NextID
//
// The remaining types are flat records and read models:
//   - [Track] : track metadata, updated through a field allowlist
//   - [PlaylistTrack] : a membership joined with its track, as listed in chain order
//   - [Information] : the library's identity row
//   - [Stats], [DatabaseSummary] : counts reported for the open library and for every file in the library directory
//
// The Repository[T] interface defines the read operations shared by the database repositories.
package models
