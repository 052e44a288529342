package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tanin/internal/models"
	"github.com/desertthunder/tanin/internal/shared"
)

// Starter begins one fetch and reports on the returned channel.
type Starter interface {
	Start(ctx context.Context, req Request) <-chan Event
}

// Sink receives every successful fetch.
type Sink interface {
	AddOrUpdate(name, category, path, icon, url string) error
}

// Task is one queued fetch.
type Task struct {
	ID      string
	Request Request
	Status  Status
	Percent float64
	Path    string
	Err     error
}

// Queue runs fetches one at a time in request order.
//
// It is driven by [Queue.Poll] from a single goroutine and never blocks there.
type Queue struct {
	ctx     context.Context
	starter Starter
	sink    Sink
	logger  *log.Logger

	tasks  []*Task
	active int
	events <-chan Event
}

// NewQueue creates a [Queue]. Fetches started by it are cancelled with ctx.
func NewQueue(ctx context.Context, starter Starter, sink Sink, logger *log.Logger) *Queue {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Queue{
		ctx:     ctx,
		starter: starter,
		sink:    sink,
		logger:  logger,
		active:  -1,
	}
}

// Enqueue appends a pending task. Name, category and url are required; an empty
// icon becomes [models.DefaultIcon].
func (q *Queue) Enqueue(req Request) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.URL = strings.TrimSpace(req.URL)
	req.Icon = strings.TrimSpace(req.Icon)

	if req.Name == "" || req.Category == "" || req.URL == "" {
		return "", fmt.Errorf("%w: name, category and url are required", shared.ErrInvalidInput)
	}
	if req.Icon == "" {
		req.Icon = models.DefaultIcon
	}

	t := &Task{ID: shared.GenerateID(), Request: req, Status: Pending}
	q.tasks = append(q.tasks, t)
	q.logger.Info("download queued", "id", t.ID, "name", req.Name, "url", req.URL)
	return t.ID, nil
}

// EnqueueMissing queues every sound that has a url. It returns how many were queued.
func (q *Queue) EnqueueMissing(sounds []*models.Sound) int {
	n := 0
	for _, s := range sounds {
		if s.URL == "" {
			continue
		}
		if _, err := q.Enqueue(Request{Name: s.Name, Category: s.Category, Icon: s.Icon, URL: s.URL}); err != nil {
			q.logger.Warn("skipping missing sound", "id", s.ID, "error", err)
			continue
		}
		n++
	}
	return n
}

// Poll admits the earliest pending task when nothing is active, then drains every
// ready event without blocking. Draining stops after a terminal event so the next
// task is admitted on the following call.
func (q *Queue) Poll() {
	q.admit()

	for q.active >= 0 {
		select {
		case ev, ok := <-q.events:
			if !ok {
				q.fail(ErrChannelClosed)
				return
			}
			switch ev.Kind {
			case ProgressEvent:
				q.tasks[q.active].Percent = min(max(ev.Percent, 0), 100)
			case SuccessEvent:
				q.succeed(ev.Result)
				return
			case ErrorEvent:
				q.fail(ev.Err)
				return
			}
		default:
			return
		}
	}
}

func (q *Queue) admit() {
	if q.active >= 0 {
		return
	}
	for i, t := range q.tasks {
		if t.Status != Pending {
			continue
		}
		t.Status = Downloading
		t.Percent = 0
		q.active = i
		q.events = q.starter.Start(q.ctx, t.Request)
		q.logger.Info("download started", "id", t.ID, "name", t.Request.Name)
		return
	}
}

func (q *Queue) succeed(res *Result) {
	t := q.tasks[q.active]
	q.release()

	if res == nil {
		t.Status = Failed
		t.Err = ErrOutputNotFound
		return
	}

	t.Status = Done
	t.Percent = 100
	t.Path = res.Path

	if q.sink == nil {
		return
	}
	if err := q.sink.AddOrUpdate(res.Name, res.Category, res.Path, res.Icon, res.URL); err != nil {
		q.logger.Error("failed to record downloaded sound", "name", res.Name, "path", res.Path, "error", err)
	}
}

func (q *Queue) fail(err error) {
	t := q.tasks[q.active]
	q.release()

	t.Status = Failed
	t.Err = err
	q.logger.Warn("download failed", "id", t.ID, "name", t.Request.Name, "error", err)
}

func (q *Queue) release() {
	q.active = -1
	q.events = nil
}

// Tasks returns a snapshot of every task in request order.
func (q *Queue) Tasks() []Task {
	out := make([]Task, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = *t
	}
	return out
}

// Active returns the task currently downloading.
func (q *Queue) Active() (Task, bool) {
	if q.active < 0 {
		return Task{}, false
	}
	return *q.tasks[q.active], true
}

// Busy reports whether any task is pending or downloading.
func (q *Queue) Busy() bool {
	if q.active >= 0 {
		return true
	}
	for _, t := range q.tasks {
		if t.Status == Pending {
			return true
		}
	}
	return false
}

// Wait polls every interval until the queue is idle or ctx is done.
func (q *Queue) Wait(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		q.Poll()
		if !q.Busy() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
