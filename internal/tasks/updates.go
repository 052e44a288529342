package tasks

import (
	"fmt"
)

// Event is one message from a running [Fetcher] to its reader.
type Event struct {
	Kind    EventKind // Which of the three messages this is
	Percent float64   // Download percentage for progress events
	Result  *Result   // Set on success
	Err     error     // Set on error
}

// Event kind enumeration
type EventKind int

const (
	ProgressEvent EventKind = iota
	SuccessEvent
	ErrorEvent
)

func (k EventKind) String() string {
	switch k {
	case ProgressEvent:
		return "progress"
	case SuccessEvent:
		return "success"
	case ErrorEvent:
		return "error"
	default:
		return ""
	}
}

// Terminal reports whether no further events follow e.
func (e Event) Terminal() bool {
	return e.Kind == SuccessEvent || e.Kind == ErrorEvent
}

func progressEvent(pct float64) Event {
	return Event{Kind: ProgressEvent, Percent: pct}
}

func successEvent(res Result) Event {
	return Event{Kind: SuccessEvent, Result: &res}
}

func errorEvent(err error) Event {
	return Event{Kind: ErrorEvent, Err: err}
}

// Status is the lifecycle position of a queued [Task].
type Status int

const (
	Pending Status = iota
	Downloading
	Done
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Downloading:
		return "downloading"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Label renders the task status for display, e.g. "Downloading 45.0%".
func (t Task) Label() string {
	switch t.Status {
	case Pending:
		return "Pending"
	case Downloading:
		return fmt.Sprintf("Downloading %.1f%%", t.Percent)
	case Done:
		return "Done"
	case Failed:
		if t.Err != nil {
			return fmt.Sprintf("Failed: %v", t.Err)
		}
		return "Failed"
	default:
		return ""
	}
}
