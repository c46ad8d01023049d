package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	api        *services.APIService
	creds      services.Credentials
	cache      tasks.TrackCacher
	catalog    *services.CatalogService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.CatalogEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	API         *services.APIService
	Credentials services.Credentials // Session store (default: in-memory)
	Cache       tasks.TrackCacher    // Optional track cache for offline listings
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
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
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient)
	}
	if opts.Credentials == nil {
		opts.Credentials = services.NewMemoryCredentials()
	}

	r := &Runner{
		config:     opts.Config,
		api:        opts.API,
		creds:      opts.Credentials,
		cache:      opts.Cache,
		httpClient: opts.HTTPClient,
		output:     opts.Output,
	}
	r.SetLogger(opts.Logger)
	return r
}

// SetLogger replaces the logger and rebuilds the clients that log through it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.catalog = services.NewCatalogService(r.api, r.creds, logger)
	r.engine = tasks.NewCatalogEngine(r.catalog, r.catalog, r.api, logger)
	if r.cache != nil {
		r.engine.WithCache(r.cache)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracksCommand, authorsCommand, genresCommand,
		selectionsCommand, favoritesCommand, cacheCommand, apiCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
