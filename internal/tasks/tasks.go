package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/edbx/internal/metrics"
	"github.com/desertthunder/edbx/internal/resolver"
	"github.com/desertthunder/edbx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 4
	maxWorkers     = 32
)

// PathCheck is a recorded track path to look for.
type PathCheck struct {
	TrackID int64  `json:"trackId"`
	Path    string `json:"path"`
}

// MatchRequest describes a file to search for.
type MatchRequest struct {
	Filename string   `json:"filename"`
	FileType string   `json:"fileType,omitempty"`
	Bitrate  int64    `json:"bitrate,omitempty"`
	Length   float64  `json:"length,omitempty"`
	Roots    []string `json:"roots,omitempty"`
	Exclude  []string `json:"exclude,omitempty"`
	Probe    bool     `json:"probe,omitempty"`
}

// ResolveEngine checks and searches for the audio files of a library.
// Roots and exclusions from its config apply when a request names none.
type ResolveEngine struct {
	cfg    shared.ResolverConfig
	logger *log.Logger
}

// NewResolveEngine creates a ResolveEngine.
func NewResolveEngine(cfg shared.ResolverConfig, logger *log.Logger) *ResolveEngine {
	return &ResolveEngine{cfg: cfg, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type pathResult struct {
	check  PathCheck
	exists bool
}

// CheckFilePaths reports whether each recorded path exists. Relative paths are tried
// against every root in turn; absolute paths are checked as they are.
func (e *ResolveEngine) CheckFilePaths(ctx context.Context, progress chan<- ProgressUpdate, roots []string, files []PathCheck) (map[int64]bool, error) {
	if len(roots) == 0 {
		roots = e.cfg.Roots
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	workers = min(workers, maxWorkers, max(len(files), 1))

	limit := rate.Inf
	if e.cfg.StatRate > 0 {
		limit = rate.Limit(e.cfg.StatRate)
	}
	limiter := rate.NewLimiter(limit, max(workers, 1))

	jobs := make(chan PathCheck, len(files))
	results := make(chan pathResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.checkWorker(ctx, &wg, limiter, roots, jobs, results)
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	found := make(map[int64]bool, len(files))
	completed := 0
	for res := range results {
		completed++
		found[res.check.TrackID] = res.exists

		status := "missing"
		if res.exists {
			status = "found"
		}
		metrics.PathChecksTotal.WithLabelValues(status).Inc()
		sendProgress(progress, checkPathUpdate(completed, len(files), res.check, res.exists))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.logger.Debug("checked file paths", "files", len(files), "roots", len(roots))
	return found, nil
}

// checkWorker stats the paths from jobs until it is drained or ctx is done.
func (e *ResolveEngine) checkWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	roots []string,
	jobs <-chan PathCheck,
	results chan<- pathResult,
) {
	defer wg.Done()

	for job := range jobs {
		exists := false
		for _, p := range candidatePaths(roots, job.Path) {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			if resolver.Exists(p) {
				exists = true
				break
			}
		}
		results <- pathResult{check: job, exists: exists}
	}
}

func candidatePaths(roots []string, p string) []string {
	if p == "" {
		return nil
	}
	if filepath.IsAbs(p) || len(roots) == 0 {
		return []string{p}
	}
	paths := make([]string, 0, len(roots))
	for _, root := range roots {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(p)))
	}
	return paths
}

// FindMatchingFiles searches the roots for files that may be req.Filename and returns them
// best first. A file name without an extension takes req.FileType as its extension.
func (e *ResolveEngine) FindMatchingFiles(ctx context.Context, progress chan<- ProgressUpdate, req MatchRequest) ([]resolver.Candidate, error) {
	name := resolver.BaseName(req.Filename)
	if filepath.Ext(name) == "" && req.FileType != "" {
		name += "." + strings.TrimPrefix(strings.ToLower(req.FileType), ".")
	}

	roots := req.Roots
	if len(roots) == 0 {
		roots = e.cfg.Roots
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no search roots given or configured", shared.ErrMissingArgument)
	}

	scanned := 0
	query := resolver.Query{
		Filename: name,
		Bitrate:  req.Bitrate,
		Duration: req.Length,
		Roots:    roots,
		Exclude:  append(append([]string(nil), e.cfg.Exclude...), req.Exclude...),
		Probe:    req.Probe || e.cfg.Probe,
		OnFile: func(path string) {
			scanned++
			sendProgress(progress, scanFileUpdate(scanned, path))
		},
	}

	found, err := resolver.Find(ctx, query)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, rankedUpdate(scanned, found))
	e.logger.Debug("searched for file", "name", name, "roots", roots, "scanned", scanned, "candidates", len(found))
	return found, nil
}
