package cli

import (
	"fmt"
	"path/filepath"

	"github.com/mcdonaldj/gunzip/internal/model"
)

// ListArchive prints the entries of an archive and the layout extraction
// would produce.
func (c *CLI) ListArchive() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: gunzip list <archive>")
		c.Exit(1)
		return
	}
	path := c.Args[2]

	cfg, ok := c.loadConfig()
	if !ok {
		return
	}
	log, closeLog := c.newLogger(cfg)
	defer closeLog()

	eng, err := c.engines()(cfg, log)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	ctx, stop := c.context()
	defer stop()

	contents, err := eng.List(ctx, path)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", model.Classify(err))
		c.Exit(1)
		return
	}

	fmt.Fprintf(c.Out, "Contents of %s:\n\n", c.cyan(filepath.Base(path)))
	fmt.Fprintf(c.Out, "  %-4s %10s  %s\n", "TYPE", "SIZE", "PATH")
	fmt.Fprintf(c.Out, "  %-4s %10s  %s\n", "----", "----", "----")
	for _, e := range contents.Entries {
		kind, size := "file", formatSize(e.Size)
		if e.IsDir {
			kind, size = "dir", "-"
		}
		if e.Encrypted {
			kind += c.yellow("*")
		}
		fmt.Fprintf(c.Out, "  %-4s %10s  %s\n", kind, size, e.Path)
	}

	strategy, item := model.DetermineStrategy(contents)
	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "%d files, %d directories, %s\n",
		contents.FileCount(), contents.DirectoryCount(), c.yellow(formatSize(contents.TotalSize)))
	switch strategy {
	case model.MultipleFilesToFolder:
		fmt.Fprintf(c.Out, "Layout: %s %s\n", strategy, c.gray("(into new folder)"))
	default:
		fmt.Fprintf(c.Out, "Layout: %s %s\n", strategy, c.gray("("+item.Name+")"))
	}
	if contents.HasEncrypted() {
		fmt.Fprintf(c.Out, "%s archive contains encrypted entries\n", c.yellow("!"))
	}
}

// TestArchive runs the engine's integrity test.
func (c *CLI) TestArchive() {
	if len(c.Args) < 3 {
		fmt.Fprintln(c.Out, "Usage: gunzip test <archive>")
		c.Exit(1)
		return
	}
	path := c.Args[2]

	cfg, ok := c.loadConfig()
	if !ok {
		return
	}
	log, closeLog := c.newLogger(cfg)
	defer closeLog()

	eng, err := c.engines()(cfg, log)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	ctx, stop := c.context()
	defer stop()

	if err := eng.Test(ctx, path); err != nil {
		fmt.Fprintf(c.Err, "Verification failed: %v\n", model.Classify(err))
		c.Exit(1)
		return
	}
	fmt.Fprintf(c.Out, "%s %s: no errors\n", c.green("*"), filepath.Base(path))
}

// formatSize formats bytes as a human-readable size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
