// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/mcdonaldj/gunzip/internal/adapters/console"
	"github.com/mcdonaldj/gunzip/internal/adapters/osfs"
	"github.com/mcdonaldj/gunzip/internal/adapters/systrash"
	"github.com/mcdonaldj/gunzip/internal/config"
	"github.com/mcdonaldj/gunzip/internal/engine"
	"github.com/mcdonaldj/gunzip/internal/logger"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() (string, error)
	DefaultConfig() (*config.Config, error)
}

// EngineFactory builds the archive engine for a configuration.
type EngineFactory func(cfg *config.Config, logger *slog.Logger) (ports.ArchiveEngine, error)

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Context for archive operations. Nil means a context cancelled on
	// SIGINT or SIGTERM.
	Context context.Context

	// Injectable dependencies (nil means use defaults)
	ConfigSvc  ConfigService
	Engines    EngineFactory
	FileSystem ports.FileSystem
	Trash      ports.Trash
	Logger     *slog.Logger

	noColor bool

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	exitCode := 0
	return &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(code int) { exitCode = code; _ = exitCode },
		Logger:  slog.New(slog.DiscardHandler),
		noColor: true,
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error)          { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error          { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() (string, error)            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() (*config.Config, error) { return config.DefaultConfig() }

// Helper methods to get the service or default
func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) engines() EngineFactory {
	if c.Engines != nil {
		return c.Engines
	}
	return engine.New
}

func (c *CLI) fileSystem() ports.FileSystem {
	if c.FileSystem != nil {
		return c.FileSystem
	}
	return osfs.New()
}

func (c *CLI) trash() ports.Trash {
	if c.Trash != nil {
		return c.Trash
	}
	return systrash.New()
}

func (c *CLI) notifier(quiet bool, out, errOut io.Writer) ports.Notifier {
	opts := []console.Option{console.WithQuiet(quiet)}
	if c.noColor {
		opts = append(opts, console.WithoutColor())
	}
	return console.New(out, errOut, opts...)
}

// context returns the operation context and a function releasing it.
func (c *CLI) context() (context.Context, context.CancelFunc) {
	if c.Context != nil {
		return c.Context, func() {}
	}
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newLogger builds the logger described by cfg. Console records go to Err
// unless the configuration asks for quiet output.
func (c *CLI) newLogger(cfg *config.Config) (*slog.Logger, func()) {
	if c.Logger != nil {
		return c.Logger, func() {}
	}
	var stderr io.Writer
	if !cfg.Quiet {
		stderr = c.Err
	}
	l, err := logger.New(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(c.Err, "%s logging disabled: %v\n", c.yellow("!"), err)
		return slog.New(slog.DiscardHandler), func() {}
	}
	return l.Logger, func() { _ = l.Shutdown() }
}

// loadConfig loads the configuration, reporting failures.
func (c *CLI) loadConfig() (*config.Config, bool) {
	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(1)
		return nil, false
	}
	return cfg, true
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		fmt.Fprintln(c.Err, "No archive specified. Use 'gunzip help' for usage.")
		c.Exit(1)
		return
	}

	switch c.Args[1] {
	case "extract", "x":
		c.RunExtract(c.Args[2:])
	case "list", "l":
		c.ListArchive()
	case "test", "t":
		c.TestArchive()
	case "init":
		c.InitConfig()
	case "config":
		c.ShowConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "gunzip v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		if strings.HasPrefix(c.Args[1], "-") {
			fmt.Fprintf(c.Err, "Unknown command: %s\n", c.Args[1])
			c.PrintUsage()
			c.Exit(1)
			return
		}
		// Bare paths, as passed by a file association.
		c.RunExtract(c.Args[1:])
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `gunzip - Smart Archive Extraction

Usage:
  gunzip <archive>...                      Extract archives next to themselves
  gunzip extract [flags] <archive>...      Extract with per-run overrides
      --trash | --keep                     Move the archive to trash afterwards (or not)
      --notify | --no-notify               Print a completion line (or not)
      --verify                             Test archive integrity before extracting
      -q, --quiet                          Only print errors
  gunzip list <archive>                    List archive contents and the chosen layout
  gunzip test <archive>                    Test archive integrity
  gunzip init                              Create default config file
  gunzip config                            Show effective configuration
  gunzip version, -v                       Show version
  gunzip help, -h                          Show this help

Config: ~/.gunzip/config.yaml`)
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	cfg, err := svc.DefaultConfig()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}
	if err := svc.Save(cfg); err != nil {
		fmt.Fprintf(c.Err, "Error saving config: %v\n", err)
		c.Exit(1)
		return
	}
	path, err := svc.ConfigPath()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", path)
}

// ShowConfig prints the effective configuration.
func (c *CLI) ShowConfig() {
	cfg, ok := c.loadConfig()
	if !ok {
		return
	}
	configPath, err := c.configSvc().ConfigPath()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	engineName := cfg.Engine
	if cfg.SevenZipPath != "" {
		engineName += " (" + cfg.SevenZipPath + ")"
	}
	fmt.Fprintln(c.Out, "gunzip config:")
	fmt.Fprintf(c.Out, "  Config:   %s\n", configPath)
	fmt.Fprintf(c.Out, "  Engine:   %s\n", engineName)
	fmt.Fprintf(c.Out, "  Staging:  %s_XXXXXX\n", cfg.StagingPrefix)
	fmt.Fprintf(c.Out, "  Trash:    %s\n", c.onOff(cfg.MoveToTrash))
	fmt.Fprintf(c.Out, "  Notify:   %s\n", c.onOff(cfg.ShowCompletion))
	fmt.Fprintf(c.Out, "  Verify:   %s\n", c.onOff(cfg.VerifyBeforeExtract))
	fmt.Fprintf(c.Out, "  Quiet:    %s\n", c.onOff(cfg.Quiet))
	fmt.Fprintf(c.Out, "  Log:      %s %s %s\n", cfg.Log.Level, cfg.Log.Format, c.gray(cfg.Log.File))
}

func (c *CLI) onOff(v bool) string {
	if v {
		return c.green("on")
	}
	return c.gray("off")
}
