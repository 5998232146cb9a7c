package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/config"
	"github.com/standardbeagle/quickreply/internal/corpus"
	"github.com/standardbeagle/quickreply/internal/logging"
	"github.com/standardbeagle/quickreply/internal/matcher"
	"github.com/standardbeagle/quickreply/internal/version"
)

// app holds what every command needs once flags are parsed
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *matcher.Engine
	guard  *matcher.Guard
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		root = absRoot
	}

	cfg, err := config.LoadWithRoot(c.String("config"), root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if include := c.StringSlice("include"); len(include) > 0 {
		cfg.Corpus.Include = config.DeduplicatePatterns(append(cfg.Corpus.Include, include...))
	}
	if c.Bool("no-defaults") {
		cfg.Corpus.UseDefault = false
	}
	if c.IsSet("threshold") {
		cfg.Matching.Threshold = c.Float64("threshold")
	}
	if c.Bool("debug") {
		cfg.Matching.Debug = true
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadCorpus builds the corpus described by cfg
func loadCorpus(cfg *config.Config) (*corpus.Corpus, error) {
	return corpus.Load(corpus.Source{
		Root:       cfg.Corpus.Root,
		Include:    cfg.Corpus.Include,
		Inline:     cfg.Corpus.Inline,
		UseDefault: cfg.Corpus.UseDefault,
	})
}

// setup loads config, logger, corpus, engine and guard
func setup(c *cli.Context) (*app, error) {
	logger, err := logging.New(logging.Options{
		Verbose: c.Bool("verbose"),
		JSON:    c.Bool("json-logs"),
		File:    c.String("log-file"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}

	responses, err := loadCorpus(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := matcher.New(cfg, responses, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("corpus loaded",
		zap.Int(logging.FieldCount, responses.Len()),
		zap.String(logging.FieldFile, cfg.Corpus.Root),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		guard:  matcher.NewGuard(engine, cfg.Resilience, logger),
	}, nil
}

func (a *app) reloadCorpus() (*corpus.Corpus, error) {
	return loadCorpus(a.cfg)
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "quickreply",
		Usage:                  "Fuzzy-match user messages to canned responses",
		Version:                version.String(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: " + config.ConfigFileName + " in the root directory)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory corpus patterns are relative to (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Add corpus files matching glob patterns (e.g., --include 'replies/**/*.kdl')",
			},
			&cli.BoolFlag{
				Name:  "no-defaults",
				Usage: "Do not seed the corpus with the built-in responses",
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Minimum confidence for a match (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Attach candidate details to results",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Debug logging",
			},
			&cli.BoolFlag{
				Name:  "json-logs",
				Usage: "Emit JSON log lines on stderr",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "match",
				Aliases:   []string{"m"},
				Usage:     "Match one message",
				ArgsUsage: "<message>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: matchCommand,
			},
			{
				Name:      "batch",
				Aliases:   []string{"b"},
				Usage:     "Match one message per line from a file or stdin",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON lines",
					},
				},
				Action: batchCommand,
			},
			{
				Name:  "chat",
				Usage: "Interactive prompt; type :help for commands",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Reload the corpus when its files change",
					},
				},
				Action: chatCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the matcher as MCP tools over stdio",
				Action: mcpCommand,
			},
			{
				Name:  "corpus",
				Usage: "List corpus keys and where they came from",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: corpusCommand,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
