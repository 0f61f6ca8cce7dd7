// Package resolver finds audio files that a library entry may refer to after the file
// moved or was renamed.
//
// [Find] walks each root, skipping excluded directories, and ranks every file against the
// recorded file name: an exact name match first, then files with a similar name, then files
// whose size is close to the size estimated from the recorded bitrate and length.
package resolver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/edbx/internal/metrics"
	"github.com/desertthunder/edbx/internal/shared"
)

// SystemDirs returns the directories never searched on goos.
func SystemDirs(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Windows`, `C:\Program Files`, `C:\Program Files (x86)`,
			`C:\ProgramData`, `C:\$Recycle.Bin`, `C:\System Volume Information`,
		}
	case "darwin":
		return []string{"/System", "/Library", "/dev", "/cores", "/usr", "/bin", "/sbin"}
	default:
		return []string{"/proc", "/sys", "/dev", "/run", "/boot", "/usr", "/bin", "/sbin", "/lib", "/etc", "/var/lib"}
	}
}

// Query describes the file being looked for.
type Query struct {
	// Filename is the recorded file name or path. Only its last element is matched.
	Filename string `json:"filename"`

	// Bitrate in kbps and Duration in seconds give the size estimate. Zero disables it.
	Bitrate  int64    `json:"bitrate,omitempty"`
	Duration float64  `json:"duration,omitempty"`
	Roots    []string `json:"roots"`
	Exclude  []string `json:"exclude,omitempty"`

	// Probe reads duration and bitrate from each candidate's tags.
	Probe bool `json:"probe,omitempty"`

	// OnFile is called with each file examined.
	OnFile func(path string) `json:"-"`
}

// Candidate is a file that may be the one looked for.
type Candidate struct {
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Rank     Rank    `json:"rank"`
	Duration float64 `json:"duration,omitempty"`
	Bitrate  int64   `json:"bitrate,omitempty"`
}

// Find walks q.Roots and returns every candidate ordered by rank, ties in discovery order.
// Files reached through more than one root are reported once. Unreadable directories are
// skipped; a missing root is not an error.
func Find(ctx context.Context, q Query) ([]Candidate, error) {
	target := BaseName(q.Filename)
	if target == "" || target == "." || target == "/" {
		return nil, shared.ErrMissingArgument
	}
	if len(q.Roots) == 0 {
		return nil, shared.ErrMissingArgument
	}

	start := time.Now()
	defer func() { metrics.ResolverScanDuration.Observe(time.Since(start).Seconds()) }()

	estimate := EstimateSize(q.Bitrate, q.Duration)
	exclude := newExclusions(append(SystemDirs(runtime.GOOS), q.Exclude...))

	var found []Candidate
	seen := make(map[string]bool)
	for _, root := range q.Roots {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				return nil
			}
			if d.IsDir() {
				if exclude.match(p) {
					return filepath.SkipDir
				}
				return nil
			}

			metrics.ResolverFilesScanned.Inc()
			if q.OnFile != nil {
				q.OnFile(p)
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			rank, ok := Match(target, d.Name(), info.Size(), estimate)
			if !ok {
				return nil
			}

			resolved := resolve(p)
			if seen[resolved] {
				return nil
			}
			seen[resolved] = true
			found = append(found, Candidate{Path: resolved, Name: d.Name(), Size: info.Size(), Rank: rank})
			return nil
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Rank < found[j].Rank })
	for i := range found {
		metrics.ResolverCandidatesTotal.WithLabelValues(found[i].Rank.String()).Inc()
		if q.Probe {
			Probe(&found[i])
		}
	}
	return found, nil
}

// Exists reports whether a regular file is at p.
func Exists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// resolve returns the absolute path of p with symlinks evaluated where possible.
func resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return filepath.Clean(abs)
}

// exclusions matches directories by resolved, lower-cased path on path element boundaries.
type exclusions []string

func newExclusions(dirs []string) exclusions {
	var ex exclusions
	for _, d := range dirs {
		if strings.TrimSpace(d) == "" {
			continue
		}
		ex = append(ex, normalize(d))
	}
	return ex
}

func (ex exclusions) match(dir string) bool {
	p := normalize(dir)
	for _, e := range ex {
		if p == e || strings.HasPrefix(p, strings.TrimSuffix(e, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	return strings.ToLower(resolve(p))
}
