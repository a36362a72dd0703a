package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/mmcdole/lunastream/internal/config"
	"github.com/mmcdole/lunastream/internal/logging"
	"github.com/mmcdole/lunastream/internal/service"
	"github.com/mmcdole/lunastream/internal/store"
	"github.com/mmcdole/lunastream/internal/tmdb"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Options with all CLI options
type Options struct {
	Config  string `short:"c" long:"config" env:"LUNASTREAM_CONFIG" description:"path to config file"`
	Debug   bool   `long:"dbg" env:"DEBUG" description:"debug logging"`
	Version bool   `short:"V" long:"version" description:"show version info"`

	Serve     ServeCmd     `command:"serve" description:"run the HTTP API and admin panel"`
	Recommend RecommendCmd `command:"recommend" description:"show personalized recommendations"`
	Search    SearchCmd    `command:"search" description:"search movies and series"`
	History   HistoryCmd   `command:"history" description:"show viewing history"`
	Export    ExportCmd    `command:"export" description:"export the local profile as JSON"`
	Import    ImportCmd    `command:"import" description:"import a profile snapshot"`
	Reset     ResetCmd     `command:"reset" description:"delete all local profile data"`
	Token     TokenCmd     `command:"token" description:"issue an admin token"`
}

// appCommand is a subcommand that runs against the wired application
type appCommand interface {
	run(ctx context.Context, a *app, args []string) error
}

// wired marks commands dispatched through the parser's command handler
type wired struct{}

func (wired) Execute([]string) error {
	return errors.New("command must be dispatched with an application")
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		ac, ok := cmd.(appCommand)
		if !ok {
			return cmd.Execute(args)
		}

		a, err := newApp(opts, parser.Active != nil && parser.Active.Name == "serve")
		if err != nil {
			return err
		}
		defer a.Close()
		return ac.run(ctx, a, args)
	}

	// the parser prints errors itself (flags.PrintErrors)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		stop()
		os.Exit(1)
	}

	switch {
	case opts.Version:
		fmt.Printf("lunastream %s (%s)\n", Version, runtime.Version())
	case parser.Active == nil:
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
}

// app holds the services shared by every command
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tmdb    *tmdb.Client
	store   *store.ProfileStore
	profile *service.ProfileService
	recs    *service.RecommendationService
	search  *service.SearchService
	genres  *service.GenreService
	out     *renderer
	closers []io.Closer
}

// newApp loads config and wires the services. Short-lived commands log
// warnings only unless --dbg is set or a log file is configured.
func newApp(opts Options, serving bool) (*app, error) {
	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case opts.Debug:
		cfg.Logging.Level = "DEBUG"
	case !serving && cfg.Logging.File == "":
		cfg.Logging.Level = "WARN"
	}

	logger, logCloser, err := logging.SetupLogger(cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger, logCloser = logging.NullLogger(), io.NopCloser(nil)
	}
	slog.SetDefault(logger)
	logger.Info("starting lunastream", "version", Version)

	if !cfg.IsConfigured() {
		logger.Warn("no metadata API key configured; upstream calls will be rejected")
	}

	kv, err := store.NewProfileStore(cfg.Store.Path)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}

	client := tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, cfg.TMDB.Timeout, logger)
	profile := service.NewProfileService(kv, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		tmdb:    client,
		store:   kv,
		profile: profile,
		recs:    service.NewRecommendationService(client, profile, logger),
		search:  service.NewSearchService(client, logger),
		genres:  service.NewGenreService(client, logger),
		out:     newRenderer(os.Stdout),
		closers: []io.Closer{kv, logCloser},
	}, nil
}

// Close releases the store and the log file
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
