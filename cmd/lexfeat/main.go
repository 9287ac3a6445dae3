package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat"
	"github.com/cognicore/lexfeat/pkg/lexfeat/config"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store/sqlite"
)

// UI contains the output streams for the application.
// Used for injecting buffers during testing.
type UI struct {
	Out io.Writer
	Err io.Writer
}

func main() {
	ui := UI{Out: os.Stdout, Err: os.Stderr}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(ui).RunContext(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(ui.Err, "lexfeat: %v\n", err)
		os.Exit(1)
	}
}

func newApp(ui UI) *cli.App {
	return &cli.App{
		Name:      "lexfeat",
		Usage:     "parse, annotate and featurize text corpora",
		Writer:    ui.Out,
		ErrWriter: ui.Err,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"LEXFEAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database, overrides store.path",
			},
		},
		Commands: []*cli.Command{
			parseCommand(ui),
			markCommand(ui),
			exportCommand(ui),
			featurizeCommand(ui),
		},
	}
}

// session holds what every command needs: configuration, logger and the
// configured store.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}

	st, err := sqlite.OpenSQLite(c.Context, cfg.Store.Path)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}
	return &session{cfg: cfg, logger: logger, store: st}, nil
}

// engine builds an Engine over the session store.
func (s *session) engine(opts lexfeat.Options) *lexfeat.Engine {
	opts.Store = s.store
	opts.Logger = s.logger
	return lexfeat.New(opts)
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("close store", zap.Error(err))
	}
	s.logger.Sync()
}

// output opens path for writing, or returns ui.Out for "" and "-".
func output(ui UI, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return ui.Out, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeTo(ui UI, path string, write func(io.Writer) error) error {
	w, closeOut, err := output(ui, path)
	if err != nil {
		return err
	}
	err = write(w)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	return err
}
