package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tanin/internal/catalog"
	"github.com/desertthunder/tanin/internal/formatter"
	"github.com/desertthunder/tanin/internal/shared"
	"github.com/desertthunder/tanin/internal/tasks"
)

const pollInterval = 100 * time.Millisecond

// SoundsList prints the catalog in display order.
func (r *Runner) SoundsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	cat, err := r.loadCatalog()
	if err != nil {
		return err
	}
	defer r.close()

	sounds := cat.Visible("")
	if cmd.Bool("all") {
		sounds = cat.All()
	}

	data, err := formatter.Sounds(sounds, format)
	if err != nil {
		return fmt.Errorf("failed to format sounds: %w", err)
	}
	return r.export(data, cmd.String("output"), fmt.Sprintf("%d sounds", len(sounds)))
}

// SoundsAdd fetches a single sound and waits for it to finish.
func (r *Runner) SoundsAdd(ctx context.Context, cmd *cli.Command) error {
	cat, err := r.loadCatalog()
	if err != nil {
		return err
	}
	defer r.close()

	queue, err := r.downloadQueue(ctx, cat)
	if err != nil {
		return err
	}

	id, err := queue.Enqueue(tasks.Request{
		Name:     cmd.String("name"),
		Category: cmd.String("category"),
		Icon:     cmd.String("icon"),
		URL:      cmd.String("url"),
	})
	if err != nil {
		return err
	}

	if err := queue.Wait(ctx, pollInterval); err != nil {
		return err
	}

	for _, t := range queue.Tasks() {
		if t.ID != id {
			continue
		}
		if t.Status == tasks.Failed {
			return fmt.Errorf("failed to fetch %s: %w", t.Request.Name, t.Err)
		}
		r.writePlain("✓ Added %s\n", t.Request.Name)
		r.writePlain("Path: %s\n", t.Path)
	}
	return nil
}

// SoundsFetchMissing fetches every catalog sound whose file is absent.
func (r *Runner) SoundsFetchMissing(ctx context.Context, cmd *cli.Command) error {
	cat, err := r.loadCatalog()
	if err != nil {
		return err
	}
	defer r.close()

	queue, err := r.downloadQueue(ctx, cat)
	if err != nil {
		return err
	}

	n := queue.EnqueueMissing(cat.Missing())
	if n == 0 {
		r.writePlain("No missing sounds\n")
		return nil
	}
	r.logger.Info("fetching missing sounds", "count", n)

	if err := queue.Wait(ctx, pollInterval); err != nil {
		return err
	}

	failed := 0
	for _, t := range queue.Tasks() {
		if t.Status == tasks.Failed {
			failed++
		}
		r.writePlain("%-24s %s\n", t.Request.Name, t.Label())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, n)
	}
	return nil
}

func (r *Runner) downloadQueue(ctx context.Context, cat *catalog.Catalog) (*tasks.Queue, error) {
	fetcher := tasks.NewFetcher(r.config.Download, shared.WithLogger(r.logger, "component", "fetcher"))
	if !fetcher.Available(ctx) {
		return nil, fmt.Errorf("%w: %s", tasks.ErrToolNotFound, fetcher.Tool)
	}
	return tasks.NewQueue(ctx, fetcher, cat, shared.WithLogger(r.logger, "component", "queue")), nil
}

// export writes data to path when set, or to the runner's output.
func (r *Runner) export(data []byte, path, what string) error {
	if path == "" {
		return r.writeBytes(data)
	}

	written, err := formatter.WriteExport(data, path)
	if err != nil {
		return err
	}
	r.logger.Info("export complete", "path", written)
	return r.writePlain("Exported %s to %s\n", what, written)
}
