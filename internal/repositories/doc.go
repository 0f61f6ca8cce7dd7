// Package repositories implements SQLite persistence for the tables of a library file.
//
// Every repository wraps a [shared.Querier], so the same code runs against the open
// database or inside a transaction obtained from the store (see the TX methods).
//
// Key Implementations:
//   - [PlaylistRepository] : Playlist rows and the writer for the playlist tree chains
//   - [EntityRepository] : PlaylistEntity rows, membership joins and the writer for membership chains
//   - [TrackRepository] : Track rows with the allowlisted field update
//   - [InformationRepository] : the library identity row
//   - [PerformanceRepository] : optional PerformanceData blobs such as overview waveforms
//
// New playlist and entity ids are assigned as the current maximum plus one, see [NextID].
package repositories
