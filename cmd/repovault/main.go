package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hpungsan/repovault/internal/config"
	"github.com/hpungsan/repovault/internal/gateway"
	"github.com/hpungsan/repovault/internal/logger"
	"github.com/hpungsan/repovault/internal/mcp"
	"github.com/hpungsan/repovault/internal/vault"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "delete": true, "clear": true,
	"list": true, "categories": true, "count": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// runtime bundles everything a command needs once storage is open.
type runtime struct {
	store   *vault.Store
	gw      gateway.Gateway
	cfg     *config.Config
	baseDir string
	log     logger.Logger
}

// Close flushes logs and releases the storage backend.
func (rt *runtime) Close() error {
	_ = rt.log.Sync()
	return rt.gw.Close()
}

// openRuntime loads config, opens the configured backend and loads the collection.
// ephemeral forces the in-memory backend.
func openRuntime(ctx context.Context, ephemeral bool) (*runtime, error) {
	baseDir, err := config.BaseDir()
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if ephemeral {
		cfg.Backend = config.BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)

	gw, err := gateway.Open(ctx, cfg, baseDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}

	store := vault.New(gw,
		vault.WithCollectionName(cfg.CollectionName),
		vault.WithLogger(log),
	)
	if err := store.Load(ctx); err != nil {
		gw.Close()
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}

	return &runtime{store: store, gw: gw, cfg: cfg, baseDir: baseDir, log: log}, nil
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] || arg == "--ephemeral" {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___               _   __          ____
  / _ \___ ___  ___ | | / /__ ___ __/ / /_
 / , _/ -_) _ \/ _ \| |/ / _ '/ // / / __/
/_/|_|\__/ .__/\___/|___/\_,_/\_,_/_/\__/
        /_/

  GitHub repository bookmarks

  Usage: repovault <command> [options]
         repovault --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	if isHelpOrVersion() || isCLIMode() {
		app := newCLIApp(openRuntime)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'repovault --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	rt, err := openRuntime(context.Background(), false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	if unknown := mcp.ValidateDisabledTools(rt.cfg.DisabledTools); len(unknown) > 0 {
		rt.log.Warnf("ignoring unknown disabled_tools: %v", unknown)
	}

	if err := mcp.Run(rt.store, rt.gw, rt.cfg, rt.baseDir, Version); err != nil {
		rt.Close()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
