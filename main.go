// main.go
//
// Entry point for the motus binary.
//
// Commands:
//   serve (default)  HTTP API + websocket streams for web clients
//   play             terminal game
//   mcp              MCP tool server on stdio
//   words            refresh the cached word list and print statistics
//
// Configuration comes from defaults, an optional YAML file (--config) and
// the environment (.env is loaded when present); see internal/config.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/db"
	"github.com/robalobadob/motus/internal/game"
	"github.com/robalobadob/motus/internal/httpserver"
	"github.com/robalobadob/motus/internal/mcptools"
	"github.com/robalobadob/motus/internal/store"
	"github.com/robalobadob/motus/internal/tui"
	"github.com/robalobadob/motus/internal/words"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "motus",
		Usage:   "guess the word, one letter at a time",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				Sources: cli.EnvVars("MOTUS_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace|debug|info|warn|error (overrides LOG_LEVEL)",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "play",
				Usage:  "play in the terminal",
				Action: play,
			},
			{
				Name:   "mcp",
				Usage:  "serve MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			{
				Name:  "words",
				Usage: "load the word list and print statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "refresh", Usage: "bypass the cache and fetch from upstream"},
				},
				Action: wordStats,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("motus exited")
	}
}

// setup resolves configuration and configures the global logger.
func setup(cmd *cli.Command, out io.Writer) (config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return cfg, nil
}

func engineOptions(cfg config.Config) []game.Option {
	return []game.Option{game.WithLetterCount(cfg.LetterCount), game.WithMaxAttempts(cfg.MaxAttempts)}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}

	conn, err := db.OpenMigrated(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer conn.Close()

	repo, closeCache, err := openRepository(cfg, conn)
	if err != nil {
		return err
	}
	defer closeCache()

	srv := httpserver.New(store.NewMemoryStore(), conn, cfg)
	go deliverWords(ctx, repo, srv.SetWords)

	log.Info().Str("port", cfg.Port).Str("db", cfg.DBPath).Msg("starting motus server")
	return srv.Start(ctx, ":"+cfg.Port)
}

func play(ctx context.Context, cmd *cli.Command) error {
	// the alternate screen owns the terminal; keep logs off it
	cfg, err := setup(cmd, io.Discard)
	if err != nil {
		return err
	}
	repo, closeCache, err := openRepository(cfg, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	return tui.Run(ctx, game.New(engineOptions(cfg)...), repo.Words)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the protocol
	cfg, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	repo, closeCache, err := openRepository(cfg, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	tools := mcptools.New(store.NewMemoryStore(), repo.Words, version, engineOptions(cfg)...)
	log.Info().Msg("MCP stdio server ready")
	return tools.ServeStdio()
}

func wordStats(ctx context.Context, cmd *cli.Command) error {
	cfg, err := setup(cmd, os.Stderr)
	if err != nil {
		return err
	}
	repo, closeCache, err := openRepository(cfg, nil)
	if err != nil {
		return err
	}
	defer closeCache()

	load := repo.Words
	if cmd.Bool("refresh") {
		load = repo.Refresh
	}
	list, err := load(ctx)
	if err != nil {
		return err
	}
	st := words.Summarize(list)
	fmt.Printf("%d words of %d letters, %d distinct first letters\n", st.Count, cfg.LetterCount, st.FirstLetters)
	return nil
}
