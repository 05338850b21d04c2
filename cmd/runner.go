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
	"github.com/desertthunder/klix/internal/classifier"
	"github.com/desertthunder/klix/internal/events"
	"github.com/desertthunder/klix/internal/repositories"
	"github.com/desertthunder/klix/internal/services"
	"github.com/desertthunder/klix/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, repositories and webhook service are opened on first use by [Runner.open].
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	db       *sql.DB
	users    *repositories.UserRepository
	trials   *repositories.TrialUserRepository
	bus      *events.Bus
	webhooks *services.WebhookService
	errors   *services.ErrorHandler
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// DB skips opening the configured database. The runner still runs migrations on it.
	DB *sql.DB
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
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// SetLogger replaces the runner's logger. Must be called before [Runner.open].
func (r *Runner) SetLogger(l *log.Logger) {
	l.SetLevel(r.logger.GetLevel())
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, classifyCommand, webhookCommand, registerCommand, usersCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the --config file when present, otherwise keeps the defaults.
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

	level := r.config.Logging.Level
	if cmd.Bool("debug") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// open connects to the database and wires the webhook service. Safe to call more than once.
func (r *Runner) open() error {
	if r.webhooks != nil {
		return nil
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database.Driver, r.config.Database.Path)
		if err != nil {
			return err
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
	}

	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.users = repositories.NewUserRepository(r.db)
	r.trials = repositories.NewTrialUserRepository(r.db)
	r.bus = events.NewBus(0, r.logger.WithPrefix("events"))

	userPoster, adminPoster := services.NewPosterFromConfig(r.config.Webhooks, r.httpClient)
	r.webhooks = services.NewWebhookService(r.config.Webhooks, r.users, r.trials,
		services.WithPoster(userPoster),
		services.WithAdminPoster(adminPoster),
		services.WithBus(r.bus),
		services.WithLogger(r.logger),
	)

	c := classifier.New(classifier.WithAuthFailureHook(services.CredentialFailedHook(r.bus)))
	r.errors = services.NewErrorHandler(c, r.webhooks, r.logger.WithPrefix("errors"))
	return nil
}

// Close drains pending deliveries and releases the database.
func (r *Runner) Close(ctx context.Context) error {
	var err error
	if r.webhooks != nil {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err = r.webhooks.Close(ctx); err != nil {
			r.logger.Warn("pending deliveries were cancelled", "error", err)
		}
	}
	if r.bus != nil {
		r.bus.Close()
	}
	if r.db != nil {
		if cerr := r.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
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
