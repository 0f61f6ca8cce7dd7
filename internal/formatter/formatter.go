// package formatter exports a playlist's tracks to CSV, Markdown, plain text, M3U and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/edbx/internal/models"
	"github.com/desertthunder/edbx/internal/shared"
)

// Export is a playlist with its tracks in playing order.
type Export struct {
	Playlist *models.Playlist       `json:"playlist"`
	Tracks   []*models.PlaylistTrack `json:"tracks"`
}

// Format names accepted by [Render].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatM3U      = "m3u"
	FormatJSON     = "json"
)

// Formats lists every supported format.
var Formats = []string{FormatCSV, FormatMarkdown, FormatText, FormatM3U, FormatJSON}

var extensions = map[string]string{
	FormatCSV:      ".csv",
	FormatMarkdown: ".md",
	FormatText:     ".txt",
	FormatM3U:      ".m3u",
	FormatJSON:     ".json",
}

// ExportToCSV converts an Export to CSV with columns: Position, TrackID, Title, Artist, Album, BPM, Key, Length, Path
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "TrackID", "Title", "Artist", "Album", "BPM", "Key", "Length", "Path"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, t := range export.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(t.Track.ID, 10),
			t.Title,
			t.Artist,
			t.Album,
			strconv.FormatFloat(t.BPM, 'f', -1, 64),
			strconv.FormatInt(t.MusicalKey, 10),
			shared.FormatDuration(t.Length),
			t.Path,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to a Markdown document with a numbered track list
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Tracks))
	fmt.Fprintf(&buf, "**Length**: %s\n\n", shared.FormatDuration(totalLength(export)))

	buf.WriteString("## Tracks\n\n")
	for i, t := range export.Tracks {
		albumPart := ""
		if t.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", t.Album)
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s]\n", i+1, displayName(t), albumPart, shared.FormatDuration(t.Length))
	}
	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Title)
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))
	for i, t := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, displayName(t))
	}
	return buf.Bytes(), nil
}

// ExportToM3U converts an Export to an extended M3U playlist. Paths are written as recorded.
func ExportToM3U(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	fmt.Fprintf(&buf, "#PLAYLIST:%s\n", export.Playlist.Title)
	for _, t := range export.Tracks {
		if t.Path == "" {
			continue
		}
		fmt.Fprintf(&buf, "#EXTINF:%d,%s\n%s\n", int(t.Length), displayName(t), t.Path)
	}
	return buf.Bytes(), nil
}

// ExportToJSON converts an Export to indented JSON
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Render converts an Export to format.
func Render(export *Export, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export)
	case FormatText, "text":
		return ExportToText(export)
	case FormatM3U, "m3u8":
		return ExportToM3U(export)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Filename returns the default file name for an export: {id}_{title}{ext}.
func Filename(p *models.Playlist, format string) string {
	ext, ok := extensions[format]
	if !ok {
		ext = "." + format
	}
	return fmt.Sprintf("%d_%s%s", p.ID, sanitize(p.Title), ext)
}

// WriteExport renders export to format and writes it to path.
//
// When path is a directory or empty, the file is named with [Filename] inside it.
func WriteExport(export *Export, format, path string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = Filename(export.Playlist, format)
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, Filename(export.Playlist, format))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

func displayName(t *models.PlaylistTrack) string {
	title := t.Title
	if title == "" {
		title = t.Filename
	}
	if title == "" {
		title = fmt.Sprintf("Track %d", t.Track.ID)
	}
	if t.Artist == "" {
		return title
	}
	return t.Artist + " - " + title
}

func totalLength(export *Export) float64 {
	var total float64
	for _, t := range export.Tracks {
		total += t.Length
	}
	return total
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "playlist"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
