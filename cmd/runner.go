package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discwatch/internal/repositories"
	"github.com/desertthunder/discwatch/internal/services"
	"github.com/desertthunder/discwatch/internal/shared"
	"github.com/desertthunder/discwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, metadata provider and dispatcher are built on first use so commands that never touch them
// (setup, help) work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   services.MetadataProvider
	dispatcher services.Dispatcher
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	app        *watchApp
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.MetadataProvider // Defaults to Spotify built from Config
	Dispatcher services.Dispatcher       // Defaults to the download queue client built from Config
	DB         *sql.DB                   // Defaults to Config.Database.Path
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// watchApp is the wired artist watch stack shared by the commands of one process.
type watchApp struct {
	db       *sql.DB
	store    *repositories.WatchRepository
	history  *repositories.CheckRunRepository
	settings *shared.WatchSettings
	engine   *tasks.Engine
	svc      *tasks.WatchService
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		dispatcher: opts.Dispatcher,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, watchCommand, artistCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// watch returns the wired watch stack, opening the database and building the clients on first use.
func (r *Runner) watch(ctx context.Context) (*watchApp, error) {
	if r.app != nil {
		return r.app, nil
	}

	provider := r.provider
	if provider == nil {
		spotify, err := services.NewSpotifyService(r.config.Credentials.Spotify, r.httpClient)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
		}
		provider = spotify
	}

	dispatcher := r.dispatcher
	if dispatcher == nil {
		client := &http.Client{Timeout: r.config.Downloads.RequestTimeout(), Transport: r.httpClient.Transport}
		dispatcher = services.NewDownloadService(r.config.Downloads.BaseURL, client)
	}

	db := r.db
	if db == nil {
		var err error
		if db, err = r.openDatabase(); err != nil {
			return nil, err
		}
		r.db = db
	}

	if err := r.config.Watch.Validate(); err != nil {
		return nil, err
	}

	app := &watchApp{
		db:       db,
		store:    repositories.NewWatchRepository(db),
		history:  repositories.NewCheckRunRepository(db),
		settings: shared.NewWatchSettings(r.config.Watch),
	}
	app.engine = tasks.NewEngine(tasks.EngineOpts{
		Provider:   provider,
		Dispatcher: dispatcher,
		Store:      app.store,
		Settings:   app.settings,
		Logger:     r.logger,
	})
	app.svc = tasks.NewWatchService(tasks.WatchServiceOpts{
		Engine:            app.engine,
		DownloadAlbumType: r.config.Downloads.AlbumType,
	})

	r.logger.Debug("watch stack ready", "database", r.config.Database.Path, "enabled", r.config.Watch.Enabled)
	r.app = app
	return app, nil
}

func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// scheduler builds a scheduler over the watch stack. Polling is only enabled for long running commands.
func (r *Runner) scheduler(app *watchApp, prog chan<- tasks.ProgressUpdate, polling bool) *tasks.Scheduler {
	return tasks.NewScheduler(tasks.SchedulerOpts{
		Engine:         app.engine,
		History:        app.history,
		Logger:         r.logger,
		Progress:       prog,
		DisablePolling: !polling,
	})
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.app = nil
	return err
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
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
