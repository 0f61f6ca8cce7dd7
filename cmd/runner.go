package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/edbx/internal/services"
	"github.com/desertthunder/edbx/internal/shared"
	"github.com/desertthunder/edbx/internal/store"
	"github.com/desertthunder/edbx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	file       string
	store      *store.Store
	logger     *log.Logger
	logCloser  io.Closer
	output     io.Writer

	playlists *services.PlaylistService
	members   *services.MembershipService
	tracks    *services.TrackService
	waveforms *services.WaveformService
	integrity *services.IntegrityService
	resolve   *tasks.ResolveEngine
	export    *tasks.ExportEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      *store.Store
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Store == nil {
		opts.Store = store.New(opts.Config.Database, opts.Logger)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.wire()
	return r
}

// wire builds the services over the store with the current logger.
func (r *Runner) wire() {
	r.playlists = services.NewPlaylistService(r.store, r.logger)
	r.members = services.NewMembershipService(r.store, r.logger)
	r.tracks = services.NewTrackService(r.store, r.logger)
	r.waveforms = services.NewWaveformService(r.store, r.logger)
	r.integrity = services.NewIntegrityService(r.store, r.logger)
	r.resolve = tasks.NewResolveEngine(r.config.Resolver, r.logger)
	r.export = tasks.NewExportEngine(r.playlists, r.members, r.logger)
}

// SetLogger replaces the logger of the runner and every service.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

// configure applies the root flags: it loads the config file when one exists, picks the
// log level and log file, and points the store at the configured library directory.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.store = store.New(config.Database, r.logger)
	}

	if dir := cmd.String("dir"); dir != "" {
		r.config.Database.Path = dir
		r.store = store.New(r.config.Database, r.logger)
	}
	r.file = cmd.String("file")

	level := shared.ParseLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	if r.config.Log.File != "" {
		logger, closer, err := shared.NewFileLogger(r.config.Log.File)
		if err != nil {
			return ctx, err
		}
		r.logger, r.logCloser = logger, closer
	}
	shared.SetLogLevel(r.logger, level)

	r.wire()
	return ctx, nil
}

// Close releases the open library and the log file.
func (r *Runner) Close() error {
	err := r.store.Close()
	if r.logCloser != nil {
		r.logCloser.Close()
	}
	return err
}

// open makes sure a library file is open: --file when given, the configured file otherwise.
func (r *Runner) open() error {
	if r.store.Current() != "" {
		return nil
	}
	file := r.config.Database.File
	if r.file != "" {
		file = r.file
	}
	if file == "" {
		file = store.DefaultFile
	}
	if err := r.store.Switch(file); err != nil {
		return fmt.Errorf("failed to open library %s in %s: %w", file, r.store.Dir(), err)
	}
	return nil
}

// withLibrary wraps a command action so it runs against the open library.
func (r *Runner) withLibrary(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.open(); err != nil {
			return err
		}
		return action(ctx, cmd)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, libraryCommand, playlistCommand, trackCommand, resolveCommand, waveformCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeTable renders rows under headers with a plain border.
func (r *Runner) writeTable(headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	return r.writePlain("%s\n", t.String())
}

// emit writes v as JSON when --json is set and calls plain otherwise.
func (r *Runner) emit(cmd *cli.Command, v any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(v, cmd.Bool("pretty"))
	}
	return plain()
}

// parseID parses a positive row id.
func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q is not a positive id", shared.ErrInvalidArgument, what, raw)
	}
	return id, nil
}

// argID parses positional argument i as an id.
func argID(cmd *cli.Command, i int, what string) (int64, error) {
	if cmd.Args().Len() <= i {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, what)
	}
	return parseID(cmd.Args().Get(i), what)
}

// argIDs parses every positional argument from i on as an id. Comma separated lists are accepted.
func argIDs(cmd *cli.Command, i int, what string) ([]int64, error) {
	var ids []int64
	for _, arg := range cmd.Args().Slice()[min(i, cmd.Args().Len()):] {
		for _, part := range strings.Split(arg, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(part, what)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, what)
	}
	return ids, nil
}
