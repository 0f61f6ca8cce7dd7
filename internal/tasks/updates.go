package tasks

import (
	"fmt"

	"github.com/desertthunder/edbx/internal/resolver"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CheckPaths Phase = iota
	ScanFiles
	RankCandidates
	ExportPlaylist
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case CheckPaths:
		return "check_paths"
	case ScanFiles:
		return "scan_files"
	case RankCandidates:
		return "rank_candidates"
	case ExportPlaylist:
		return "export_playlist"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func checkPathUpdate(step, total int, check PathCheck, exists bool) ProgressUpdate {
	mark := "✓"
	if !exists {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   CheckPaths,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, check.Path),
		Data:    check,
	}
}

func scanFileUpdate(step int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    step,
		Message: fmt.Sprintf("Scanning %s", path),
	}
}

func rankedUpdate(files int, found []resolver.Candidate) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RankCandidates,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d candidates in %d files", len(found), files),
		Data:    found,
	}
}

func exportingPlaylistUpdate(step, total int, id int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting playlist %d...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, name string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, name, tracks),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s", path),
	}
}
