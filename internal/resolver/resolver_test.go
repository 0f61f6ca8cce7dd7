package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/edbx/internal/shared"
	tu "github.com/desertthunder/edbx/internal/testing"
)

func TestMatch(t *testing.T) {
	tc := []struct {
		name     string
		target   string
		file     string
		size     int64
		estimate int64
		want     Rank
		ok       bool
	}{
		{name: "exact", target: "song.mp3", file: "song.mp3", want: RankExact, ok: true},
		{name: "exact ignores case", target: "Song.MP3", file: "song.mp3", want: RankExact, ok: true},
		{name: "copy suffix", target: "song.mp3", file: "song (1).mp3", want: RankSimilarName, ok: true},
		{name: "truncated", target: "A Very Long Title.mp3", file: "A Very Long.mp3", want: RankSimilarName, ok: true},
		{name: "one typo", target: "Strobe.flac", file: "Strobi.flac", want: RankSimilarName, ok: true},
		{name: "different extension", target: "song.mp3", file: "song (1).flac", ok: false},
		{name: "size within tolerance", target: "song.mp3", file: "track9.mp3", size: 1050, estimate: 1000, want: RankSimilarSize, ok: true},
		{name: "size outside tolerance", target: "song.mp3", file: "track9.mp3", size: 1200, estimate: 1000, ok: false},
		{name: "no estimate", target: "song.mp3", file: "track9.mp3", size: 0, estimate: 0, ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Match(tt.target, tt.file, tt.size, tt.estimate)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("Match(%q, %q) = %v, %v; want %v, %v", tt.target, tt.file, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSimilarStems(t *testing.T) {
	tc := []struct {
		a, b string
		want bool
	}{
		{"song", "SONG (1)", true},
		{"abcdefghij", "abcdefghiX", true},
		{"abcdefghij", "abcdefghXY", true},
		{"abcdefghij", "abcdefgXYZ", false},
		{"abcde", "abcdefg", true},
		{"abcde", "xbcdefg", false},
		{"", "song", false},
	}
	for _, tt := range tc {
		if got := SimilarStems(tt.a, tt.b); got != tt.want {
			t.Errorf("SimilarStems(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}

	t.Run("long stems only match by containment", func(t *testing.T) {
		long := make([]byte, 320)
		for i := range long {
			long[i] = 'a'
		}
		other := append([]byte(nil), long...)
		other[0] = 'b'
		if SimilarStems(string(long), string(other)) {
			t.Error("expected no approximate comparison over the length limit")
		}
	})
}

func TestEstimateSize(t *testing.T) {
	if got := EstimateSize(320, 240); got != 9_600_000 {
		t.Errorf("expected 9600000 bytes, got %d", got)
	}
	if got := EstimateSize(0, 240); got != 0 {
		t.Errorf("expected no estimate without bitrate, got %d", got)
	}
}

func TestBaseName(t *testing.T) {
	for in, want := range map[string]string{
		"../Music/song.mp3":         "song.mp3",
		`C:\Users\dj\Music\set.wav`: "set.wav",
		"song.mp3":                  "song.mp3",
	} {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q) = %q, want %q", in, got, want)
		}
	}
}

func names(found []Candidate) []string {
	out := make([]string, len(found))
	for i, c := range found {
		out[i] = c.Name
	}
	return out
}

func TestFind(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks exact, similar name, then similar size", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "a", "track9.mp3"), 1000)
		tu.WriteFile(t, filepath.Join(root, "b", "song (1).mp3"), 10)
		tu.WriteFile(t, filepath.Join(root, "c", "song.mp3"), 10)
		tu.WriteFile(t, filepath.Join(root, "c", "unrelated.mp3"), 10)
		tu.WriteFile(t, filepath.Join(root, "c", "song.txt"), 1000)

		found, err := Find(ctx, Query{Filename: "../old/song.mp3", Bitrate: 8, Duration: 1, Roots: []string{root}})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		got := names(found)
		// any file type can match on size alone
		want := []string{"song.mp3", "song (1).mp3", "track9.mp3", "song.txt"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("expected %v, got %v", want, got)
				break
			}
		}
		if found[0].Rank != RankExact || found[2].Rank != RankSimilarSize || found[3].Rank != RankSimilarSize {
			t.Errorf("unexpected ranks %+v", found)
		}
		if !filepath.IsAbs(found[0].Path) {
			t.Errorf("expected an absolute path, got %s", found[0].Path)
		}
	})

	t.Run("ties keep discovery order", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "1", "song-edit.mp3"), 1)
		tu.WriteFile(t, filepath.Join(root, "2", "song (1).mp3"), 1)

		found, err := Find(ctx, Query{Filename: "song.mp3", Roots: []string{root}})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if got := names(found); len(got) != 2 || got[0] != "song-edit.mp3" {
			t.Errorf("expected discovery order, got %v", got)
		}
	})

	t.Run("excluded directories are skipped", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "keep", "song.mp3"), 1)
		tu.WriteFile(t, filepath.Join(root, "Trash", "song.mp3"), 1)
		tu.WriteFile(t, filepath.Join(root, "Trashcan", "song.mp3"), 1)

		found, err := Find(ctx, Query{
			Filename: "song.mp3",
			Roots:    []string{root},
			Exclude:  []string{filepath.Join(root, "trash")},
		})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(found) != 2 {
			t.Fatalf("expected 2 candidates, got %+v", found)
		}
		for _, c := range found {
			if filepath.Base(filepath.Dir(c.Path)) == "Trash" {
				t.Errorf("excluded directory was searched: %s", c.Path)
			}
		}
	})

	t.Run("overlapping roots report a file once", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "music", "song.mp3"), 1)

		found, err := Find(ctx, Query{Filename: "song.mp3", Roots: []string{root, filepath.Join(root, "music")}})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(found) != 1 {
			t.Errorf("expected one candidate, got %+v", found)
		}
	})

	t.Run("reports progress and tolerates missing roots", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "x.mp3"), 1)
		tu.WriteFile(t, filepath.Join(root, "y.flac"), 1)

		var visited int
		found, err := Find(ctx, Query{
			Filename: "song.mp3",
			Roots:    []string{filepath.Join(root, "missing"), root},
			OnFile:   func(string) { visited++ },
		})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(found) != 0 || visited != 2 {
			t.Errorf("expected 2 files visited and no candidates, got %d and %+v", visited, found)
		}
	})

	t.Run("invalid queries", func(t *testing.T) {
		if _, err := Find(ctx, Query{Filename: "", Roots: []string{"."}}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument for empty name, got %v", err)
		}
		if _, err := Find(ctx, Query{Filename: "song.mp3"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without roots, got %v", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "song.mp3"), 1)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := Find(cctx, Query{Filename: "song.mp3", Roots: []string{root}}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("probe leaves unreadable files unchanged", func(t *testing.T) {
		root := t.TempDir()
		tu.WriteFile(t, filepath.Join(root, "song.mp3"), 16)

		found, err := Find(ctx, Query{Filename: "song.mp3", Roots: []string{root}, Probe: true})
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(found) != 1 || found[0].Duration != 0 || found[0].Bitrate != 0 {
			t.Errorf("expected an unprobed candidate, got %+v", found)
		}
	})
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := tu.WriteFile(t, filepath.Join(dir, "a.mp3"), 1)

	if !Exists(file) {
		t.Error("expected file to exist")
	}
	if Exists(dir) {
		t.Error("expected a directory not to count")
	}
	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	if Exists(file) {
		t.Error("expected removed file to be missing")
	}
}
