package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tanin/internal/audio"
	"github.com/desertthunder/tanin/internal/shared"
	"github.com/desertthunder/tanin/internal/tasks"
	"github.com/desertthunder/tanin/internal/ui"
)

// TUI launches the interactive mixer.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, sink, err := shared.NewFileLogger(r.config.Logging)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer sink.Close()
	r.SetLogger(fileLogger)

	cat, err := r.loadCatalog()
	if err != nil {
		return err
	}
	defer r.close()

	rate := beep.SampleRate(r.config.Audio.SampleRate)
	opts := audio.EngineOpts{
		Logger:       shared.WithLogger(fileLogger, "component", "engine"),
		FadeDuration: r.config.Audio.FadeDuration(),
		SampleRate:   rate,
	}
	if spk, err := audio.OpenSpeaker(rate, r.config.Audio.BufferDuration()); err != nil {
		fileLogger.Warn("audio output unavailable, playback disabled", "error", err)
	} else {
		opts.Output = spk
	}
	engine := audio.NewEngine(opts)
	defer engine.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fetcher := tasks.NewFetcher(r.config.Download, shared.WithLogger(fileLogger, "component", "fetcher"))
	queue := tasks.NewQueue(ctx, fetcher, cat, shared.WithLogger(fileLogger, "component", "queue"))
	if fetcher.Available(ctx) {
		if n := queue.EnqueueMissing(cat.Missing()); n > 0 {
			fileLogger.Info("queued missing sounds", "count", n)
		}
	} else {
		fileLogger.Warn("download tool not found, downloads will fail", "tool", fetcher.Tool)
	}

	mixer := ui.NewMixer(ui.MixerOpts{
		Engine:        engine,
		Catalog:       cat,
		Presets:       r.presets,
		Session:       r.sessions,
		Logger:        shared.WithLogger(fileLogger, "component", "mixer"),
		InitialVolume: r.config.Audio.InitialVolume,
	})
	if err := mixer.Restore(); err != nil {
		fileLogger.Warn("failed to restore session", "error", err)
	}

	model := ui.NewModel(mixer, cat, queue, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
