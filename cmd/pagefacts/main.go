package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagefacts/internal/app"
)

// Exit codes.
const (
	exitOK          = 0
	exitUsage       = 1
	exitUnavailable = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, builds the configuration and executes one extraction.
// Precedence is flags, then PAGEFACTS_* env, then the config file, then
// defaults: flags are parsed once to find the config file and once more on
// top of the file and env values so only explicitly given flags override.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	probe := app.DefaultConfig()
	fs, configPath, envFile := newFlagSet(&probe, stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if err := app.LoadEnvFiles(*envFile); err != nil {
		log.Error().Err(err).Str("file", *envFile).Msg("load env file")
		return exitUsage
	}

	cfg := app.DefaultConfig()
	if *configPath != "" {
		fc, err := app.LoadConfigFile(*configPath)
		if err != nil {
			log.Error().Err(err).Str("file", *configPath).Msg("load config")
			return exitUsage
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	fs, _, _ = newFlagSet(&cfg, stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		cfg.Source = fs.Arg(0)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		fs.Usage()
		return exitUsage
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("setup failed")
		return exitUsage
	}
	a.In = stdin
	a.Out = stdout
	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		if errors.Is(err, app.ErrSourceUnavailable) {
			return exitUnavailable
		}
		return exitUsage
	}
	return exitOK
}

// newFlagSet binds every flag to cfg, using the current field values as
// defaults.
func newFlagSet(cfg *app.Config, stderr io.Writer) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet("pagefacts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pagefacts [flags] <file | - | url>\n\n")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Path to a YAML or JSON config file")
	envFile := fs.String("env", ".env", "Dotenv file loaded before reading PAGEFACTS_* variables")

	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format: json, yaml, markdown or pdf")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Write output to this path instead of stdout (required for pdf)")
	fs.StringVar(&cfg.BaseURL, "base", cfg.BaseURL, "Base URL for resolving relative links (defaults to the fetched URL)")

	o := &cfg.Options
	fs.StringVar(&o.Table, "table", o.Table, "Selector of the table to parse")
	fs.StringVar(&o.List, "list", o.List, "Selector of the list to parse")
	fs.StringVar(&o.Links, "links", o.Links, "Container selector for link extraction")
	fs.StringVar(&o.Images, "images", o.Images, "Container selector for image extraction")
	fs.StringVar(&o.Form, "form", o.Form, "Selector of the form to parse")
	fs.StringVar(&o.Breadcrumb, "breadcrumb", o.Breadcrumb, "Selector of the breadcrumb container")
	fs.StringVar(&o.DefinitionList, "dl", o.DefinitionList, "Selector of the definition list to parse")
	fs.StringVar(&o.Code, "code", o.Code, "Selector of code blocks")
	fs.StringVar(&o.Article.Title, "article.title", o.Article.Title, "Selector of the article title")
	fs.StringVar(&o.Article.Author, "article.author", o.Article.Author, "Selector of the article author")
	fs.StringVar(&o.Article.Date, "article.date", o.Article.Date, "Selector of the article date")
	fs.StringVar(&o.Article.Content, "article.content", o.Article.Content, "Selector of the article body")
	fs.StringVar(&o.Article.Tags, "article.tags", o.Article.Tags, "Selector of article tags")
	fs.StringVar(&o.TreeRoot, "tree", o.TreeRoot, "Root selector of the DOM tree")
	fs.IntVar(&o.TreeDepth, "tree.depth", o.TreeDepth, "Maximum DOM tree depth (0 = root only)")

	fs.BoolVar(&cfg.Rewrite, "rewrite", cfg.Rewrite, "Rewrite leetcode.cn problem links in lists to leetcode.com")
	fs.StringVar(&cfg.RewriteOutputPath, "rewrite.output", cfg.RewriteOutputPath, "Write the rewritten HTML to this path")

	fs.StringVar(&cfg.UserAgent, "ua", cfg.UserAgent, "User-Agent for HTTP requests and robots.txt matching")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request HTTP timeout")
	fs.BoolVar(&cfg.RespectRobots, "robots", cfg.RespectRobots, "Honour robots.txt when fetching URLs")

	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Cache directory for fetched pages (empty disables)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Purge cache entries older than this before running (0 keeps all)")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", cfg.CacheClear, "Clear the cache directory before running")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", cfg.CacheStrictPerms, "Create cache files with 0600 and directories with 0700")

	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	return fs, configPath, envFile
}
