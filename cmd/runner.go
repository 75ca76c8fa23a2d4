package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lineup/internal/services"
	"github.com/desertthunder/lineup/internal/shared"
	"github.com/desertthunder/lineup/internal/tasks"
	"github.com/desertthunder/lineup/internal/web"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, festival client, Spotify client and engine are built on first use so
// commands that only touch configuration never open a connection.
type Runner struct {
	config      *shared.Config
	configPath  string
	configFixed bool
	db          *shared.Database
	source      services.ProgramSource
	program     web.ProgramProxy
	provider    services.EnrichmentProvider
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	engine      *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
// Dependencies left nil are built from the configuration.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *shared.Database
	Source     services.ProgramSource
	Provider   services.EnrichmentProvider
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	fixed := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		configFixed: fixed,
		db:          opts.DB,
		source:      opts.Source,
		provider:    opts.Provider,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
	}
	if p, ok := opts.Source.(web.ProgramProxy); ok {
		r.program = p
	}
	return r
}

// SetLogger replaces the logger; it must be called before the engine is built.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, syncCommand, linkCommand, enrichCommand, statsCommand, reportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "lineup",
		Usage:   "Sync festival artists and events, link lineups and enrich artists",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("LINEUP_CONFIG"),
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

// before loads the configuration named by --config unless one was injected.
// A missing file falls back to the embedded defaults.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}
	if !r.configFixed {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.config.ApplyEnv()
		}
	}
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, shared.ParseLevel(r.config.Log.Level))
	return ctx, nil
}

// openDB opens the configured database and applies migrations.
func (r *Runner) openDB() (*shared.Database, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenFromConfig(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	r.db = db
	return db, nil
}

// ready builds the engine and its collaborators.
func (r *Runner) ready() (*tasks.Engine, error) {
	if r.engine != nil {
		return r.engine, nil
	}
	db, err := r.openDB()
	if err != nil {
		return nil, err
	}

	if r.source == nil {
		client := services.NewFestivalClient(r.config.Source, r.httpClient, r.logger)
		r.source = client
		r.program = client
	}
	if r.provider == nil && r.config.HasSpotifyCredentials() {
		spotify, err := services.NewSpotifyService(r.config.Credentials.Spotify, services.SpotifyOptions{
			FallbackMarkets: r.config.Enrichment.FallbackMarkets,
			Logger:          r.logger,
		})
		if err != nil {
			return nil, err
		}
		r.provider = spotify
	}

	r.engine = tasks.NewEngine(tasks.Deps{
		DB:       db,
		Source:   r.source,
		Provider: r.provider,
		Config:   r.config,
		Logger:   r.logger,
	})
	return r.engine, nil
}

// close releases the database.
func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
