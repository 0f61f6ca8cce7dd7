// Package services implements the operations callers run against the active library.
//
// # Playlist tree
//
// [PlaylistService] creates, renames, deletes, moves and reorders playlists. Siblings form
// a chain through nextListId under a shared parentListId; every mutation loads the chain
// into a [chain.Collection], edits it in memory, then applies the resulting plan inside
// one scoped transaction.
//
// # Membership lists
//
// [MembershipService] manages the PlaylistEntity chain of each playlist: add, remove,
// bulk remove and reorder. [TrackService.Purge] splices a track out of every list before
// deleting it.
//
// # Reads
//
// [TrackService], [WaveformService] and [IntegrityService] are read-mostly. Waveform decode
// failures and a missing PerformanceData table are not errors.
//
// # Error Handling
//
// Services return the sentinel errors of the shared package, wrapped with context:
//   - [shared.ErrNotFound] (and the playlist, entity and track variants)
//   - [shared.ErrAlreadyExists] : the track is already in the playlist
//   - [shared.ErrInvalidOperation] : a move would create a cycle, or a reorder is not a permutation
//   - [shared.ErrNoValidFields] : an update named no editable field
//
// Structural checks run against the in-memory collection, so a rejected operation never writes.
package services
