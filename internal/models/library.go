package models

// Information is the identity row of a library file.
type Information struct {
	ID                 int64  `json:"id"`
	UUID               string `json:"uuid"`
	SchemaVersionMajor int64  `json:"schemaVersionMajor"`
	SchemaVersionMinor int64  `json:"schemaVersionMinor"`
	SchemaVersionPatch int64  `json:"schemaVersionPatch"`
}

func (i *Information) Key() int64 { return i.ID }

func (i *Information) Validate() error { return nil }

// Stats summarises the open library.
type Stats struct {
	File      string       `json:"file"`
	Playlists int          `json:"playlists"`
	Tracks    int          `json:"tracks"`
	Entities  int          `json:"entities"`
	Info      *Information `json:"info,omitempty"`
}

// DatabaseSummary describes one library file found in the library directory.
// Counts are zero and UUID empty when the file lacks the corresponding tables.
type DatabaseSummary struct {
	File      string `json:"file"`
	UUID      string `json:"uuid,omitempty"`
	Playlists int    `json:"playlists"`
	Tracks    int    `json:"tracks"`
	Entities  int    `json:"entities"`
	Active    bool   `json:"active"`
}
