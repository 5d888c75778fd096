package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/photosync/internal/formatter"
	"github.com/desertthunder/photosync/internal/models"
	"github.com/desertthunder/photosync/internal/repositories"
	"github.com/desertthunder/photosync/internal/services"
	"github.com/desertthunder/photosync/internal/shared"
	"github.com/desertthunder/photosync/internal/tasks"
	"github.com/desertthunder/photosync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	source services.SourceService
	dest   services.DestinationService
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Source and Dest are built from Config on first use when nil.
type RunnerOpts struct {
	Config *shared.Config
	Source services.SourceService
	Dest   services.DestinationService
	Logger *log.Logger
	Output io.Writer
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

	return &Runner{
		config: opts.Config,
		source: opts.Source,
		dest:   opts.Dest,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, connectCommand, searchCommand, albumsCommand, transferCommand, thumbsCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger. Services built afterwards log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func credentials(s shared.ServiceConfig) models.Credentials {
	return models.Credentials{BaseURL: s.URL, Username: s.Username, Password: s.Password}
}

func (r *Runner) sourceService() services.SourceService {
	if r.source == nil {
		r.source = services.NewPhotoPrismService(credentials(r.config.PhotoPrism), services.ClientOpts{
			Timeout: r.config.PhotoPrism.Timeout(),
			Logger:  r.logger,
		})
	}
	return r.source
}

func (r *Runner) destService() services.DestinationService {
	if r.dest == nil {
		r.dest = services.NewLycheeService(credentials(r.config.Lychee), services.ClientOpts{
			Timeout: r.config.Lychee.Timeout(),
			Logger:  r.logger,
		}, r.config.Transfer.StreamingFallback)
	}
	return r.dest
}

// connect opens a session on every given service and joins the failures.
func (r *Runner) connect(ctx context.Context, svcs ...services.Service) error {
	var errs []error
	for _, svc := range svcs {
		if err := svc.Connect(ctx); err != nil {
			r.logger.Error("connection failed", "service", svc.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", svc.Name(), err))
			continue
		}
		r.logger.Debug("connected", "service", svc.Name())
	}
	return errors.Join(errs...)
}

// openHistory opens the transfer history database. It returns a nil repository when history is disabled.
func (r *Runner) openHistory() (*repositories.TransferRepository, func(), error) {
	if !r.config.Transfer.RecordHistory {
		return nil, func() {}, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return repositories.NewTransferRepository(db), func() { closeDB(r.logger, db) }, nil
}

func closeDB(logger *log.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
}

func (r *Runner) newEngine(history *repositories.TransferRepository, legacy bool) *tasks.TransferEngine {
	opts := tasks.TransferOpts{Logger: r.logger}
	if legacy || r.config.Transfer.LegacyTokenFallback {
		opts.TokenChain = tasks.LegacyTokenChain
	}
	if history != nil {
		opts.History = history
	}
	return tasks.NewTransferEngine(r.sourceService(), r.destService(), opts)
}

func (r *Runner) newPrefetcher(decode bool, progress chan<- tasks.ProgressUpdate) *tasks.Prefetcher {
	opts := tasks.PrefetchOpts{
		MaxWorkers: r.config.Thumbnails.MaxWorkers,
		RateLimit:  r.config.Thumbnails.RateLimit,
		Progress:   progress,
		Logger:     r.logger,
	}
	if decode {
		opts.Decode = ui.PreviewDecoder(r.config.Thumbnails.PreviewWidth)
	}
	return tasks.NewPrefetcher(opts)
}

// export writes data to path, or to the runner output when path is empty.
func (r *Runner) export(path string, data []byte) error {
	if path == "" {
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := formatter.WriteExport(path, data); err != nil {
		return err
	}
	r.logger.Info("export written", "path", path, "bytes", len(data))
	return nil
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
