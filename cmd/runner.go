package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/mpq/internal/services"
	"github.com/desertthunder/mpq/internal/shared"
)

// Runner carries the config, logger and output shared by every mpq subcommand.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts overrides the defaults picked by [NewRunner]. Zero fields are filled in.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner fills in defaults for any unset option.
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
		// Long polls run up to their own timeout; the server enforces the ceiling.
		opts.HTTPClient = &http.Client{Timeout: 6 * time.Minute}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	builders := []func(*Runner) *cli.Command{
		setupCommand, serveCommand, indexCommand, queueCommand, watchCommand,
	}
	commands := make([]*cli.Command, 0, len(builders))
	for _, build := range builders {
		commands = append(commands, build(r))
	}
	return commands
}

// loadConfig replaces the runner's config with the file named by --config, if it exists.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	level := r.config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)
	return ctx, nil
}

// SetLogger swaps the logger, for commands that take over the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// openDatabase opens the configured database and brings its schema up to date.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, path, err := r.connect()
	if err != nil {
		return nil, err
	}

	n, err := shared.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if n > 0 {
		r.logger.Info("applied migrations", "count", n, "path", path)
	}
	return db, nil
}

// connect opens the configured database without touching its schema.
func (r *Runner) connect() (*sql.DB, string, error) {
	path, err := shared.ExpandPath(r.config.Database.Path)
	if err != nil {
		return nil, "", err
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, path, nil
}

// client returns a queue client for the server named by --server, defaulting to the configured one.
func (r *Runner) client(cmd *cli.Command) *services.QueueClient {
	baseURL := cmd.String("server")
	if baseURL == "" {
		baseURL = r.config.Server.URL()
	}
	return services.NewQueueClient(baseURL, r.httpClient)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	marshal := json.Marshal
	if pretty {
		marshal = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	}

	body, err := marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(body); err != nil {
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

const rule = "───────────────────────────────────────"

func (r *Runner) writeHeader(title string) {
	r.writePlain("%s\n%s\n%s\n", rule, title, rule)
}
