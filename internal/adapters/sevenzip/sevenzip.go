// Package sevenzip provides an archive engine adapter that runs the 7-Zip
// command-line tool as a child process.
package sevenzip

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/mcdonaldj/gunzip/internal/model"
	"github.com/mcdonaldj/gunzip/internal/ports"
)

// DefaultBinaries are the executable names tried by LookPath, in order.
var DefaultBinaries = []string{"7z", "7zz", "7za"}

const (
	maxLineSize      = 1024 * 1024
	defaultWaitDelay = 5 * time.Second
)

// Engine implements ports.ArchiveEngine using exec.Command.
type Engine struct {
	// binary is the path to the 7-Zip executable. Defaults to "7z".
	binary    string
	logger    *slog.Logger
	waitDelay time.Duration
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithBinary sets a custom path to the 7-Zip executable.
func WithBinary(path string) Option {
	return func(e *Engine) {
		e.binary = path
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates a new Engine adapter.
func New(opts ...Option) *Engine {
	e := &Engine{
		binary:    "7z",
		logger:    slog.New(slog.DiscardHandler),
		waitDelay: defaultWaitDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LookPath resolves the 7-Zip executable. An explicit path wins; otherwise
// DefaultBinaries are searched on PATH.
func LookPath(explicit string) (string, error) {
	if explicit != "" {
		return exec.LookPath(explicit)
	}
	for _, name := range DefaultBinaries {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("7-Zip not found on PATH (tried %s): %w", strings.Join(DefaultBinaries, ", "), exec.ErrNotFound)
}

// Name identifies the engine.
func (e *Engine) Name() string {
	return "7z"
}

// Binary returns the configured executable.
func (e *Engine) Binary() string {
	return e.binary
}

// List runs "7z l -slt" and parses its technical listing.
func (e *Engine) List(ctx context.Context, archivePath string) (*model.ArchiveContents, error) {
	res, err := e.run(ctx, nil, "l", "-slt", "--", archivePath)
	if err != nil {
		return nil, err
	}
	if res.exitCode != 0 {
		return nil, classifyFailure(res.exitCode, res.combined())
	}
	return ParseListing(strings.NewReader(res.stdout))
}

// Test runs "7z t". A missing password is reported as such; any other
// non-zero exit code is an engine error.
func (e *Engine) Test(ctx context.Context, archivePath string) error {
	res, err := e.run(ctx, nil, "t", "-bsp0", "--", archivePath)
	if err != nil {
		return err
	}
	if res.exitCode != 0 {
		return classifyTestFailure(res.exitCode, res.combined())
	}
	return nil
}

// Extract runs "7z x" into destDir, overwriting existing files. Output is
// read line by line while the process runs so every extracted file produces
// a progress tick.
func (e *Engine) Extract(ctx context.Context, archivePath, destDir string, progress ports.ProgressFunc) error {
	files := 0
	onLine := func(line string) {
		name, ok := extractedName(line)
		if !ok {
			return
		}
		files++
		if progress != nil {
			progress(ports.ExtractProgress{CurrentFile: name, FilesProcessed: files})
		}
	}

	res, err := e.run(ctx, onLine, "x", "-aoa", "-y", "-bb1", "-bsp0", "-o"+destDir, "--", archivePath)
	if err != nil {
		return err
	}
	if res.exitCode != 0 {
		return classifyFailure(res.exitCode, res.combined())
	}
	return nil
}

// extractedName returns the path from a "- path" line printed by -bb1.
func extractedName(line string) (string, bool) {
	if !strings.HasPrefix(line, "- ") {
		return "", false
	}
	name := model.NormalizePath(strings.TrimPrefix(line, "- "))
	return name, name != ""
}

// result holds the outcome of one finished 7-Zip process.
type result struct {
	exitCode int
	stdout   string
	stderr   string
}

func (r *result) combined() string {
	return r.stdout + "\n" + r.stderr
}

// run starts the tool, passes each stdout line to onLine while the process
// runs, then waits for it to exit. A non-zero exit code is not an error here.
func (e *Engine) run(ctx context.Context, onLine func(string), args ...string) (*result, error) {
	cmd := e.command(ctx, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating 7z stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("starting 7z", "binary", e.binary, "args", args)
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		xerr := model.EngineError(-1, fmt.Sprintf("starting %s: %v", e.binary, err))
		xerr.Err = err
		return nil, xerr
	}

	var out strings.Builder
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		out.WriteString(line)
		out.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Keep the pipe drained so the child cannot block on a full buffer.
		_, _ = io.Copy(io.Discard, stdout)
	}

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	res := &result{stdout: out.String(), stderr: stderr.String()}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("waiting for 7z: %w", waitErr)
		}
		res.exitCode = exitErr.ExitCode()
	}
	if scanErr != nil && res.exitCode == 0 {
		return nil, fmt.Errorf("reading 7z output: %w", scanErr)
	}
	e.logger.Debug("7z finished", "args", args, "exit_code", res.exitCode)
	return res, nil
}

// command creates an exec.Cmd for the 7-Zip binary. Stdin stays nil so a
// password prompt reads EOF instead of blocking.
func (e *Engine) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.WaitDelay = e.waitDelay
	configureProcess(cmd)
	return cmd
}

var (
	passwordMarkers = []string{
		"wrong password",
		"enter password",
		"can not open encrypted archive",
		"cannot open encrypted archive",
	}
	corruptMarkers = []string{
		"data error",
		"crc failed",
		"headers error",
		"unexpected end of archive",
		"can not open the file as archive",
		"cannot open the file as archive",
		"is not archive",
	}
)

// classifyFailure refines a non-zero exit into a typed extraction error.
func classifyFailure(exitCode int, output string) error {
	lower := strings.ToLower(output)
	switch {
	case containsAny(lower, passwordMarkers):
		return model.PasswordRequired()
	case containsAny(lower, corruptMarkers):
		return model.CorruptedArchive(summarize(output), nil)
	}
	return model.EngineError(exitCode, summarize(output))
}

// classifyTestFailure only separates password failures; the caller reports
// everything else as a failed integrity test.
func classifyTestFailure(exitCode int, output string) error {
	if containsAny(strings.ToLower(output), passwordMarkers) {
		return model.PasswordRequired()
	}
	return model.EngineError(exitCode, summarize(output))
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// summarize returns the error lines of 7-Zip output, or the last non-empty
// line when none are marked.
func summarize(output string) string {
	var errs []string
	last := ""
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR") || strings.HasPrefix(line, "Error") {
			errs = append(errs, line)
		}
	}
	if len(errs) > 0 {
		return strings.Join(errs, "; ")
	}
	return last
}

// Compile-time check that Engine implements ports.ArchiveEngine.
var _ ports.ArchiveEngine = (*Engine)(nil)
