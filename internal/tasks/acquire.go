package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/tanin/internal/shared"
)

var (
	ErrToolNotFound   = fmt.Errorf("download tool not found")
	ErrToolFailed     = fmt.Errorf("download tool failed")
	ErrOutputNotFound = fmt.Errorf("download finished but file not found")
	ErrChannelClosed  = fmt.Errorf("worker disconnected")
)

// maxLineSize bounds a single line of tool output.
const maxLineSize = 1 << 20

var progressPattern = regexp.MustCompile(`\[download\]\s+(\d+(?:\.\d+)?)%`)

// DefaultExtensions is the search order for the finished file.
var DefaultExtensions = []string{"opus", "m4a", "mp3", "wav", "ogg"}

// Request describes one sound to fetch.
type Request struct {
	Name     string
	Category string
	Icon     string
	URL      string
}

// Result is the outcome of a successful fetch.
type Result struct {
	Name     string
	Category string
	Path     string
	Icon     string
	URL      string
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Fetcher runs the external download tool.
type Fetcher struct {
	Tool        string
	Dir         string
	AudioFormat string
	Extensions  []string
	Logger      *log.Logger

	command commandFunc
}

// NewFetcher creates a [Fetcher] from download settings.
func NewFetcher(cfg shared.DownloadConfig, logger *log.Logger) *Fetcher {
	f := &Fetcher{
		Tool:        cfg.Tool,
		Dir:         cfg.SoundsDir,
		AudioFormat: cfg.AudioFormat,
		Extensions:  cfg.Extensions,
		Logger:      logger,
		command:     exec.CommandContext,
	}
	if f.Tool == "" {
		f.Tool = "yt-dlp"
	}
	if f.AudioFormat == "" {
		f.AudioFormat = "opus"
	}
	if len(f.Extensions) == 0 {
		f.Extensions = DefaultExtensions
	}
	if f.Logger == nil {
		f.Logger = shared.NewLogger(nil)
	}
	return f
}

// Available reports whether the tool runs at all.
func (f *Fetcher) Available(ctx context.Context) bool {
	cmd := f.command(ctx, f.Tool, "--version")
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		f.Logger.Debug("download tool unavailable", "tool", f.Tool, "error", err)
		return false
	}
	return true
}

// Args builds the tool arguments that write req to the file stem safe.
func (f *Fetcher) Args(req Request, safe string) []string {
	return []string{
		"--ignore-config",
		"--no-playlist",
		"--force-overwrites",
		"-x",
		"--audio-format", f.AudioFormat,
		"-f", "ba[ext=webm]/ba",
		"-o", filepath.Join(f.Dir, safe+".%(ext)s"),
		"--newline",
		"--progress",
		req.URL,
	}
}

// Start fetches req in the background.
//
// The returned channel carries progress events, then exactly one success or error
// event, and is closed afterwards. Cancelling ctx kills the tool.
func (f *Fetcher) Start(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)

		res, err := f.run(ctx, req, events)
		final := successEvent(res)
		if err != nil {
			f.Logger.Error("download failed", "name", req.Name, "url", req.URL, "error", err)
			final = errorEvent(err)
		} else {
			f.Logger.Info("download complete", "name", req.Name, "path", res.Path)
		}

		select {
		case events <- final:
		case <-ctx.Done():
		}
	}()
	return events
}

func (f *Fetcher) run(ctx context.Context, req Request, events chan<- Event) (Result, error) {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return Result{}, fmt.Errorf("failed to create sounds directory: %w", err)
	}

	safe := shared.SafeFilename(req.Name)
	cmd := f.command(ctx, f.Tool, f.Args(req, safe)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %s", ErrToolNotFound, f.Tool)
		}
		return Result{}, fmt.Errorf("failed to start %s: %w", f.Tool, err)
	}

	lastErr := make(chan string, 1)
	go func() {
		var last string
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				last = line
			}
		}
		lastErr <- last
	}()

	logEvery := rate.Sometimes{Interval: time.Second}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		m := progressPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		logEvery.Do(func() { f.Logger.Debug("download progress", "name", req.Name, "percent", pct) })
		sendProgress(ctx, events, progressEvent(pct))
	}
	// Keep the pipe empty so the tool can exit after an unreadable line.
	scanErr := scanner.Err()
	if _, err := io.Copy(io.Discard, stdout); err != nil && scanErr == nil {
		scanErr = err
	}

	reason := <-lastErr
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if reason == "" {
				reason = fmt.Sprintf("exit status %d", exitErr.ExitCode())
			}
			return Result{}, fmt.Errorf("%w: %s", ErrToolFailed, reason)
		}
		return Result{}, fmt.Errorf("failed to wait on %s: %w", f.Tool, err)
	}
	if scanErr != nil {
		return Result{}, fmt.Errorf("%w: failed to read output: %w", ErrToolFailed, scanErr)
	}

	path, ok := f.locate(safe)
	if !ok {
		return Result{}, ErrOutputNotFound
	}
	return Result{
		Name:     req.Name,
		Category: req.Category,
		Path:     path,
		Icon:     req.Icon,
		URL:      req.URL,
	}, nil
}

// locate returns the first existing <Dir>/<safe>.<ext> in extension order.
func (f *Fetcher) locate(safe string) (string, bool) {
	for _, ext := range f.Extensions {
		path := filepath.Join(f.Dir, safe+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// sendProgress waits for room in ch unless ctx is done first.
func sendProgress(ctx context.Context, ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}
