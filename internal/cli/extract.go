package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mcdonaldj/gunzip/internal/config"
	"github.com/mcdonaldj/gunzip/internal/extract"
	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// extractArgs is the parsed form of the extract command line.
type extractArgs struct {
	opts  extract.Options
	quiet bool
	paths []string
}

// parseExtractArgs applies flags on top of the configured defaults.
func parseExtractArgs(args []string, cfg *config.Config) (extractArgs, error) {
	parsed := extractArgs{
		opts: extract.Options{
			MoveToTrash:         cfg.MoveToTrash,
			ShowCompletion:      cfg.ShowCompletion,
			VerifyBeforeExtract: cfg.VerifyBeforeExtract,
		},
		quiet: cfg.Quiet,
	}

	flagsDone := false
	for _, arg := range args {
		if flagsDone || !strings.HasPrefix(arg, "-") || arg == "-" {
			parsed.paths = append(parsed.paths, arg)
			continue
		}
		switch arg {
		case "--":
			flagsDone = true
		case "--trash":
			parsed.opts.MoveToTrash = true
		case "--keep":
			parsed.opts.MoveToTrash = false
		case "--notify":
			parsed.opts.ShowCompletion = true
		case "--no-notify":
			parsed.opts.ShowCompletion = false
		case "--verify":
			parsed.opts.VerifyBeforeExtract = true
		case "-q", "--quiet":
			parsed.quiet = true
		default:
			return extractArgs{}, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	if len(parsed.paths) == 0 {
		return extractArgs{}, fmt.Errorf("no archive specified")
	}
	return parsed, nil
}

// RunExtract extracts every archive named in args, one after another.
func (c *CLI) RunExtract(args []string) {
	cfg, ok := c.loadConfig()
	if !ok {
		return
	}

	parsed, err := parseExtractArgs(args, cfg)
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		fmt.Fprintln(c.Err, "Usage: gunzip extract [--trash|--keep] [--notify|--no-notify] [--verify] [-q] <archive>...")
		c.Exit(1)
		return
	}

	log, closeLog := c.newLogger(cfg)
	defer closeLog()

	// The service goroutine notifies while this one renders progress.
	out := &syncWriter{w: c.Out}
	errOut := &syncWriter{w: c.Err}

	svc, err := c.newService(cfg, log, c.notifier(parsed.quiet, out, errOut))
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(1)
		return
	}

	ctx, stop := c.context()
	defer stop()

	extracted, failed := 0, 0
	for _, path := range parsed.paths {
		if ctx.Err() != nil {
			failed++
			continue
		}
		view := newProgressView(c, out, filepath.Base(path), parsed.quiet)
		run := svc.Extract(ctx, path, parsed.opts)
		for p := range run.Progress() {
			view.update(p)
		}
		view.finish()

		// Failures are reported by the notifier.
		if _, err := run.Wait(); err != nil {
			failed++
			continue
		}
		extracted++
	}

	if len(parsed.paths) > 1 && !parsed.quiet {
		fmt.Fprintf(c.Out, "\nDone: %s extracted", c.green(fmt.Sprintf("%d", extracted)))
		if failed > 0 {
			fmt.Fprintf(c.Out, ", %s failed", c.red(fmt.Sprintf("%d", failed)))
		}
		fmt.Fprintln(c.Out)
	}
	if failed > 0 {
		c.Exit(1)
	}
}

// newService wires the extraction service for cfg.
func (c *CLI) newService(cfg *config.Config, log *slog.Logger, notifier ports.Notifier) (*extract.Service, error) {
	eng, err := c.engines()(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Debug("engine selected", "engine", eng.Name())

	opts := []extract.Option{
		extract.WithLogger(log),
		extract.WithStagingPrefix(cfg.StagingPrefix),
		extract.WithNotifier(notifier),
		extract.WithTrash(c.trash()),
	}
	return extract.NewService(eng, c.fileSystem(), opts...), nil
}

var stageLabels = map[model.Stage]string{
	model.StageAnalyzing:  "Analyzing",
	model.StageExtracting: "Extracting",
	model.StageFinalizing: "Finalizing",
}

// progressView renders stage lines and a byte progress bar for one run.
type progressView struct {
	c     *CLI
	out   io.Writer
	name  string
	quiet bool
	stage model.Stage
	seen  bool
	bar   *progressbar.ProgressBar
}

func newProgressView(c *CLI, out io.Writer, name string, quiet bool) *progressView {
	return &progressView{c: c, out: out, name: name, quiet: quiet}
}

func (v *progressView) update(p model.Progress) {
	if v.quiet {
		return
	}
	if !v.seen || p.Stage != v.stage {
		v.finish()
		v.seen = true
		v.stage = p.Stage
		if label, ok := stageLabels[p.Stage]; ok {
			fmt.Fprintf(v.out, "%s %s %s\n", v.c.cyan("=>"), label, v.name)
		}
	}
	if p.Stage != model.StageExtracting {
		return
	}
	if v.bar == nil {
		v.bar = v.newBar(p.TotalBytes)
	}
	_ = v.bar.Set64(p.BytesProcessed)
}

func (v *progressView) newBar(total int64) *progressbar.ProgressBar {
	if total <= 0 {
		total = -1
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(v.out),
		progressbar.OptionSetDescription(v.name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// finish closes the bar of the current stage, if any.
func (v *progressView) finish() {
	if v.bar == nil {
		return
	}
	_ = v.bar.Finish()
	v.bar = nil
}

// syncWriter serializes writes to w.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
