// Package notify carries user-facing notifications from the domain to
// whatever surface displays them. Delivery is fire-and-forget.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Kind is the severity of a notification.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Event is a single notification.
type Event struct {
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
}

// Notifier accepts notifications.
type Notifier interface {
	Notify(Event)
}

// Func adapts a plain function to Notifier.
type Func func(Event)

func (f Func) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Notifier = Func(func(Event) {})

// Infof, Successf and Errorf are shorthands used by callers that only have a message.
func Infof(n Notifier, msg string)    { notify(n, Info, msg) }
func Successf(n Notifier, msg string) { notify(n, Success, msg) }
func Errorf(n Notifier, msg string)   { notify(n, Error, msg) }

func notify(n Notifier, k Kind, msg string) {
	if n == nil {
		return
	}
	n.Notify(Event{Kind: k, Message: msg})
}

// Recorder keeps events in arrival order. The HTTP layer drains it into
// the response once a handler is done.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Logger writes notifications to a slog logger; used by the CLI.
type Logger struct {
	Ctx    context.Context
	Logger *slog.Logger
}

func (l Logger) Notify(e Event) {
	ctx := l.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if e.Kind == Error {
		level = slog.LevelError
	}
	logger.Log(ctx, level, e.Message, "notification", string(e.Kind))
}
