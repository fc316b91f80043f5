package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"scribe/internal/cache"
	"scribe/internal/cli"
	"scribe/internal/config"
	"scribe/internal/llm"
	"scribe/internal/mcp"
	"scribe/internal/operations"
	"scribe/internal/search"
	"scribe/internal/server"
	"scribe/internal/tools"
)

var log = commonlog.GetLogger("scribe")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the command line flags
type options struct {
	help       bool
	configPath string
	provider   string
	model      string
	serverPort int
	token      string
	cachePath  string
	logFile    string
	debug      bool
	mcpMode    bool
	serveMode  bool
}

func parseFlags(args []string, out io.Writer) (*options, *flag.FlagSet, error) {
	var o options
	fs := flag.NewFlagSet("scribe", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.BoolVar(&o.help, "help", false, "Show help message")
	fs.BoolVar(&o.help, "h", false, "Show help message (shorthand)")
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&o.provider, "provider", "", "Model provider: openrouter, openai or anthropic (overrides config)")
	fs.StringVar(&o.model, "model", "", "Model name (overrides config)")
	fs.IntVar(&o.serverPort, "port", 0, "Port for the HTTP API (overrides config)")
	fs.StringVar(&o.token, "token", "", "Optional auth token for the HTTP API (can also use SCRIBE_TOKEN env var)")
	fs.StringVar(&o.cachePath, "cache", "", "SQLite file for caching search results (can also use SCRIBE_CACHE env var)")
	fs.StringVar(&o.logFile, "log-file", "", "Write logs to this file")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug output for troubleshooting")
	fs.BoolVar(&o.mcpMode, "mcp", false, "Run as MCP server for AI assistants (requires stdio connection)")
	fs.BoolVar(&o.serveMode, "serve", false, "Run only the HTTP API for the editor front end")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &o, fs, nil
}

func printHelp(out io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(out, "scribe - AI writing assistant")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  scribe [flags] [file.md]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	fs.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment Variables:")
	fmt.Fprintln(out, "  OPENROUTER_API_KEY   OpenRouter API key")
	fmt.Fprintln(out, "  OPENAI_API_KEY       OpenAI API key")
	fmt.Fprintln(out, "  ANTHROPIC_API_KEY    Anthropic API key")
	fmt.Fprintln(out, "  JINA_API_KEY         Search API key for link suggestions")
	fmt.Fprintln(out, "  SCRIBE_TOKEN         Optional auth token for the HTTP API")
	fmt.Fprintln(out, "  SCRIBE_PROVIDER      Model provider")
	fmt.Fprintln(out, "  SCRIBE_MODEL         Model name")
	fmt.Fprintln(out, "  SCRIBE_CACHE         Search cache file")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Without a model API key, AI features are disabled; selection and link merging still work.")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "MCP Server Mode:")
	fmt.Fprintln(out, "  Run with -mcp flag to start as an MCP server for AI assistants.")
	fmt.Fprintln(out, "  This mode requires stdin/stdout to be connected (not a terminal).")
}

func run(args []string, out io.Writer) error {
	o, fs, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if o.help {
		printHelp(out, fs)
		return nil
	}

	setupLogging(o.debug, o.logFile, o.mcpMode)

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	ops, closeOps, err := buildOperations(cfg, o.debug)
	if err != nil {
		return err
	}
	defer closeOps()

	switch {
	case o.mcpMode:
		if err := mcp.RunMCPServer(ops); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
	case o.serveMode:
		if err := serve(cfg, ops, out); err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
	default:
		cliInterface := cli.NewCLI(ops)
		if path := fs.Arg(0); path != "" {
			if err := cliInterface.Open(path); err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
		}
		if err := cliInterface.Run(context.Background()); err != nil {
			return fmt.Errorf("CLI error: %w", err)
		}
	}
	return nil
}

// loadConfig reads the config file and environment, then applies flag overrides.
// The result is validated again since flags bypass the checks Load makes.
func loadConfig(o *options) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if o.provider != "" {
		cfg.Provider = o.provider
	}
	if o.model != "" {
		cfg.Model = o.model
	}
	if o.serverPort != 0 {
		cfg.Port = o.serverPort
	}
	if o.token != "" {
		cfg.Token = o.token
	}
	if o.cachePath != "" {
		cfg.CachePath = o.cachePath
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// setupLogging configures commonlog. Logs go to stderr unless logFile is set, and the
// interactive CLI only shows warnings unless debugging.
func setupLogging(debug bool, logFile string, mcpMode bool) {
	verbosity := -1
	if mcpMode || logFile != "" {
		verbosity = 1
	}
	if debug {
		verbosity = 2
	}

	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}
}

// buildOperations wires the model provider, search client and optional cache.
// A missing model key disables the AI features but keeps the editor operations.
func buildOperations(cfg config.Config, debug bool) (*operations.Operations, func(), error) {
	closeFn := func() {}

	var provider llm.Provider
	if key := cfg.APIKey(cfg.Provider); key != "" {
		p, err := llm.NewProvider(cfg.Provider, key)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to initialize %s provider: %w", cfg.Provider, err)
		}
		provider = p
		log.Infof("%s provider initialized", p.Name())
	} else {
		log.Warningf("no API key for %s provider, AI features disabled", cfg.Provider)
	}

	var searcher search.Searcher
	if key := cfg.SearchKey(); key != "" {
		opts := []search.Option{
			search.WithEndpoint(cfg.SearchEndpoint),
			search.WithLimit(cfg.MaxLinksPerExpression),
		}

		if cfg.CachePath != "" {
			searchCache, err := openSearchCache(cfg)
			if err != nil {
				log.Warningf("search cache disabled: %v", err)
			} else {
				opts = append(opts, search.WithCache(searchCache))
				closeFn = func() {
					if err := searchCache.Close(); err != nil {
						log.Warningf("failed to close search cache: %v", err)
					}
				}
			}
		}
		searcher = search.NewClient(key, opts...)
	} else {
		log.Warning("JINA_API_KEY not set, link suggestions disabled")
	}

	ops := operations.New(provider, searcher, operations.Options{
		Model:             cfg.Model,
		MaxExpressions:    cfg.MaxExpressions,
		MaxToolRoundTrips: cfg.MaxToolRoundTrips,
		ToolLogger:        tools.NewDefaultLogger(debug),
	})
	return ops, closeFn, nil
}

// openSearchCache opens the cache and drops entries that have expired
func openSearchCache(cfg config.Config) (*cache.SearchCache, error) {
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	searchCache, err := cache.NewSearchCache(cfg.CachePath, ttl)
	if err != nil {
		return nil, err
	}

	removed, err := searchCache.Prune()
	if err != nil {
		log.Warningf("%v", err)
	} else if removed > 0 {
		log.Infof("removed %d expired search results", removed)
	}
	log.Infof("caching search results in %s", cfg.CachePath)
	return searchCache, nil
}

// serve runs the HTTP API until interrupted
func serve(cfg config.Config, ops *operations.Operations, out io.Writer) error {
	apiServer := server.NewServer(cfg.Port, cfg.Token, ops)

	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	fmt.Fprintf(out, "API server listening on port %d\n", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return apiServer.Stop(shutdownCtx)
}
