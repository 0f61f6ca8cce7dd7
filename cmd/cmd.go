// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/formatter"
)

// rootFlags apply to every command.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Library directory (overrides database.path)",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Library file inside the directory (overrides database.file)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log debug messages",
		},
	}
}

// setupCommand writes a config file and creates the library file when missing.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and an empty library if they do not exist",
		Action: r.Setup,
	}
}

// libraryCommand handles library files in the library directory
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Library directory and database files",
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Create a new empty library file",
				ArgsUsage: "<file>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Action: r.LibraryInit,
			},
			{
				Name:   "list",
				Usage:  "List library files with their counts",
				Action: r.LibraryList,
			},
			{
				Name:   "stats",
				Usage:  "Show counts and identity of the open library",
				Action: r.withLibrary(r.LibraryStats),
			},
			{
				Name:   "verify",
				Usage:  "Check every playlist and entry chain for broken links",
				Action: r.withLibrary(r.LibraryVerify),
			},
			{
				Name:   "watch",
				Usage:  "Print library files as they are created, changed or removed",
				Action: r.LibraryWatch,
			},
		},
	}
}

// playlistCommand handles the playlist tree and playlist entries
func playlistCommand(r *Runner) *cli.Command {
	parentFlag := func() cli.Flag {
		return &cli.Int64Flag{
			Name:    "parent",
			Aliases: []string{"p"},
			Usage:   "Parent playlist id (0 for the top level)",
		}
	}

	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist tree and playlist entries",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all playlists",
				Action: r.withLibrary(r.PlaylistList),
			},
			{
				Name:   "tree",
				Usage:  "Show the playlist tree in order",
				Action: r.withLibrary(r.PlaylistTree),
			},
			{
				Name:      "search",
				Usage:     "Find playlists by title",
				ArgsUsage: "<term>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "term"},
				},
				Action: r.withLibrary(r.PlaylistSearch),
			},
			{
				Name:      "create",
				Usage:     "Create a playlist at the end of its parent",
				ArgsUsage: "<title>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "title"},
				},
				Flags:  []cli.Flag{parentFlag()},
				Action: r.withLibrary(r.PlaylistCreate),
			},
			{
				Name:      "rename",
				Usage:     "Rename a playlist",
				ArgsUsage: "<id> <title>",
				Action:    r.withLibrary(r.PlaylistRename),
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist; nested playlists move up one level",
				ArgsUsage: "<id>",
				Action:    r.withLibrary(r.PlaylistDelete),
			},
			{
				Name:      "move",
				Usage:     "Move a playlist to the end of another parent",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{parentFlag()},
				Action:    r.withLibrary(r.PlaylistMove),
			},
			{
				Name:      "reorder",
				Usage:     "Set the order of every playlist under a parent",
				ArgsUsage: "<id>...",
				Flags:     []cli.Flag{parentFlag()},
				Action:    r.withLibrary(r.PlaylistReorder),
			},
			{
				Name:      "tracks",
				Usage:     "List a playlist's tracks in order",
				ArgsUsage: "<id>",
				Action:    r.withLibrary(r.PlaylistTracks),
			},
			{
				Name:      "add",
				Usage:     "Append a track to a playlist",
				ArgsUsage: "<id> <track-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "uuid",
						Usage: "Database uuid the track belongs to (default: the open library's)",
					},
				},
				Action: r.withLibrary(r.PlaylistAdd),
			},
			{
				Name:      "remove",
				Usage:     "Remove entries from a playlist",
				ArgsUsage: "<id> <entry-id>...",
				Action:    r.withLibrary(r.PlaylistRemove),
			},
			{
				Name:      "reorder-tracks",
				Usage:     "Set the order of every entry in a playlist",
				ArgsUsage: "<id> <entry-id>...",
				Action:    r.withLibrary(r.PlaylistReorderTracks),
			},
			{
				Name:      "export",
				Usage:     "Export playlists to files",
				ArgsUsage: "<id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, markdown, txt, m3u, json",
						Value: formatter.FormatM3U,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent exports",
						Value: 4,
					},
				},
				Action: r.withLibrary(r.PlaylistExport),
			},
		},
	}
}

// trackCommand handles track rows
func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "track",
		Usage: "Track records",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List tracks",
				Action: r.withLibrary(r.TrackList),
			},
			{
				Name:      "get",
				Usage:     "Show one track",
				ArgsUsage: "<id>",
				Action:    r.withLibrary(r.TrackGet),
			},
			{
				Name:      "update",
				Usage:     "Change track columns",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "set",
						Usage:    "column=value; an empty value clears the column",
						Required: true,
					},
				},
				Action: r.withLibrary(r.TrackUpdate),
			},
			{
				Name:      "purge",
				Usage:     "Delete a track and remove it from every playlist",
				ArgsUsage: "<id>",
				Action:    r.withLibrary(r.TrackPurge),
			},
		},
	}
}

// resolveCommand handles locating audio files on disk
func resolveCommand(r *Runner) *cli.Command {
	rootFlag := func() cli.Flag {
		return &cli.StringSliceFlag{
			Name:  "root",
			Usage: "Directory to search (repeatable; default: resolver.roots)",
		}
	}

	return &cli.Command{
		Name:  "resolve",
		Usage: "Check recorded paths and search for moved files",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Report tracks whose recorded file is missing",
				Flags: []cli.Flag{
					rootFlag(),
					&cli.Int64Flag{
						Name:  "playlist",
						Usage: "Only check the tracks of this playlist",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Also list tracks that were found",
					},
				},
				Action: r.withLibrary(r.ResolveCheck),
			},
			{
				Name:      "find",
				Usage:     "Search for files that may be a track",
				ArgsUsage: "[filename]",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "filename"},
				},
				Flags: []cli.Flag{
					rootFlag(),
					&cli.StringSliceFlag{
						Name:  "exclude",
						Usage: "Directory to skip (repeatable)",
					},
					&cli.Int64Flag{
						Name:  "track",
						Usage: "Take filename, bitrate and length from this track",
					},
					&cli.Int64Flag{
						Name:  "bitrate",
						Usage: "Bitrate in kbps, enables size matching with --length",
					},
					&cli.Float64Flag{
						Name:  "length",
						Usage: "Duration in seconds",
					},
					&cli.BoolFlag{
						Name:  "probe",
						Usage: "Read duration and bitrate of each candidate",
					},
				},
				Action: r.ResolveFind,
			},
		},
	}
}

// waveformCommand prints overview waveforms
func waveformCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "waveform",
		Aliases:   []string{"wf"},
		Usage:     "Show the overview waveform of tracks",
		ArgsUsage: "<track-id>...",
		Action:    r.withLibrary(r.Waveform),
	}
}

// serveCommand runs the JSON API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the library as a local JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port)",
			},
		},
		Action: r.withLibrary(r.Serve),
	}
}

// tuiCommand returns the top-level TUI command for browsing the library.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse playlists and tracks interactively",
		Action:  r.withLibrary(r.TUI),
	}
}
