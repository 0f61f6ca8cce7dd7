// Package tasks runs the long filesystem and export jobs with real-time progress reporting.
//
// # Core Operations
//
// [ResolveEngine] locates the audio files a library refers to:
//
//  1. [ResolveEngine.CheckFilePaths] : Check recorded track paths on disk
//     - Resolves relative paths against each root
//     - Stats files from a bounded worker pool, throttled by a rate limiter
//     - Returns track id → exists
//
//  2. [ResolveEngine.FindMatchingFiles] : Search for a moved or renamed file
//     - Walks the roots with [resolver.Find]
//     - Reports each scanned file, then the ranked candidates
//
// [ExportEngine.BulkExport] writes several playlists to a directory concurrently, then a manifest.
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking, so a slow reader misses updates rather than stalling a scan.
package tasks
