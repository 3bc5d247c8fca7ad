// Package notify carries user-visible toasts from the core components to
// whatever surface renders them.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Severity string

const (
	SeverityInfo        Severity = "info"
	SeveritySuccess     Severity = "success"
	SeverityDestructive Severity = "destructive"
)

type Toast struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	At          time.Time `json:"at"`
}

// Notifier is a fire-and-forget sink; implementations must not block.
type Notifier interface {
	Notify(Toast)
}

// Func adapts a function to Notifier.
type Func func(Toast)

func (f Func) Notify(t Toast) { f(t) }

// Discard drops every toast.
var Discard Notifier = Func(func(Toast) {})

type logNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) Notifier {
	return logNotifier{log: log}
}

func (n logNotifier) Notify(t Toast) {
	level := slog.LevelInfo
	if t.Severity == SeverityDestructive {
		level = slog.LevelWarn
	}
	n.log.Log(context.Background(), level, "toast", "title", t.Title, "description", t.Description)
}

type multi []Notifier

// Multi fans a toast out to every notifier in order.
func Multi(ns ...Notifier) Notifier {
	return multi(ns)
}

func (m multi) Notify(t Toast) {
	for _, n := range m {
		n.Notify(t)
	}
}

// Feed buffers the most recent toasts until a view drains them.
type Feed struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
	now    func() time.Time
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 20
	}
	return &Feed{limit: limit, now: time.Now}
}

func (f *Feed) Notify(t Toast) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.At.IsZero() {
		t.At = f.now()
	}
	f.toasts = append(f.toasts, t)
	if over := len(f.toasts) - f.limit; over > 0 {
		f.toasts = append([]Toast(nil), f.toasts[over:]...)
	}
}

// Drain returns the buffered toasts oldest first and empties the feed.
func (f *Feed) Drain() []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.toasts
	f.toasts = nil
	if out == nil {
		return []Toast{}
	}
	return out
}

// Recorder keeps every toast; handy in tests and the CLI.
type Recorder struct {
	mu     sync.Mutex
	Toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Toasts = append(r.Toasts, t)
}

func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Toasts) == 0 {
		return Toast{}, false
	}
	return r.Toasts[len(r.Toasts)-1], true
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Toasts)
}
