package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/formatter"
	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

// PlaylistReader loads a playlist. [services.PlaylistService] implements it.
type PlaylistReader interface {
	Get(ctx context.Context, id int64) (*models.Playlist, error)
}

// TrackLister loads a playlist's tracks in order. [services.MembershipService] implements it.
type TrackLister interface {
	Tracks(ctx context.Context, listID int64) ([]*models.PlaylistTrack, error)
}

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string // Export format: csv, markdown, txt, m3u, json
	OutputDir  string // Base output directory (default: playlist_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 4)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   int64  `json:"playlistId"`
	PlaylistName string `json:"playlistName"`
	Success      bool   `json:"success"`
	File         string `json:"file,omitempty"`
	Tracks       int    `json:"tracks"`
	Error        error  `json:"-"`
	Message      string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"totalPlaylists"`
	SuccessfulExports int                    `json:"successfulExports"`
	FailedExports     int                    `json:"failedExports"`
	OutputDirectory   string                 `json:"outputDirectory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

// ExportEngine writes playlists from the active library to files.
type ExportEngine struct {
	playlists PlaylistReader
	tracks    TrackLister
	logger    *log.Logger
}

// NewExportEngine creates an ExportEngine.
func NewExportEngine(playlists PlaylistReader, tracks TrackLister, logger *log.Logger) *ExportEngine {
	return &ExportEngine{playlists: playlists, tracks: tracks, logger: logger}
}

// Export loads one playlist with its tracks in order.
func (e *ExportEngine) Export(ctx context.Context, id int64) (*formatter.Export, error) {
	p, err := e.playlists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tracks, err := e.tracks.Tracks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &formatter.Export{Playlist: p, Tracks: tracks}, nil
}

// BulkExport exports several playlists concurrently and writes export_manifest.json
// summarizing the results. A playlist that fails does not stop the others.
func (e *ExportEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []int64, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if _, err := formatter.Render(&formatter.Export{Playlist: &models.Playlist{}}, opts.Format); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("playlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, maxWorkers)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	jobs := make(chan int64, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	for i, id := range ids {
		jobs <- id
		sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), id))
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, res.Tracks))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].PlaylistID < result.Results[j].PlaylistID })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	sendProgress(prog, manifestUpdate(manifestPath))
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("exported playlists", "ok", result.SuccessfulExports, "failed", result.FailedExports, "dir", opts.OutputDir)
	return result, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan int64,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for id := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- e.exportSinglePlaylist(ctx, id, opts)
	}
}

// exportSinglePlaylist exports a single playlist in the requested format.
func (e *ExportEngine) exportSinglePlaylist(ctx context.Context, id int64, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   id,
		PlaylistName: fmt.Sprintf("Unknown (%d)", id),
	}
	fail := func(err error) PlaylistExportResult {
		result.Error = err
		result.Message = err.Error()
		return result
	}

	export, err := e.Export(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("failed to load playlist: %w", err))
	}
	result.PlaylistName = export.Playlist.Title
	result.Tracks = len(export.Tracks)

	path, err := formatter.WriteExport(export, opts.Format, opts.OutputDir)
	if err != nil {
		return fail(fmt.Errorf("%s export failed: %w", opts.Format, err))
	}
	result.File = path
	result.Success = true
	return result
}
