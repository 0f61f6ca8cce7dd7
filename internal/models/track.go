package models

import "fmt"

// Track is a flat track record.
type Track struct {
	ID             int64   `json:"trackId"`
	Title          string  `json:"title"`
	Artist         string  `json:"artist"`
	Album          string  `json:"album"`
	Genre          string  `json:"genre"`
	BPM            float64 `json:"bpm"`
	BPMAnalyzed    float64 `json:"bpmAnalyzed"`
	MusicalKey     int64   `json:"key"`
	Rating         int64   `json:"rating"`
	Length         float64 `json:"length"`
	Year           int64   `json:"year"`
	Label          string  `json:"label"`
	Comment        string  `json:"comment"`
	Composer       string  `json:"composer"`
	Remixer        string  `json:"remixer"`
	Filename       string  `json:"filename"`
	Path           string  `json:"filePath"`
	Bitrate        int64   `json:"bitrate"`
	FileType       string  `json:"fileType"`
	DateAdded      string  `json:"dateAdded,omitempty"`
	TimeLastPlayed string  `json:"timeLastPlayed,omitempty"`

	// DatabaseUUID is set when the track was listed through playlist memberships.
	DatabaseUUID string `json:"databaseUuid,omitempty"`
}

func (t *Track) Key() int64 { return t.ID }

// TrackFields lists the columns an update may change, by their column name.
var TrackFields = []string{
	"title", "artist", "album", "genre", "bpm", "bpmAnalyzed", "key",
	"rating", "length", "year", "label", "comment", "composer", "remixer",
	"filename", "path", "bitrate", "fileType", "dateAdded", "timeLastPlayed",
}

// IsTrackField reports whether name is an updatable track column.
func IsTrackField(name string) bool {
	for _, f := range TrackFields {
		if f == name {
			return true
		}
	}
	return false
}

// Validate checks that the track has an id.
func (t *Track) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("track id must be positive, got %d", t.ID)
	}
	return nil
}
