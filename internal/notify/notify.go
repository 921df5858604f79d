// Package notify is the seam for transient user-facing notifications.
// Core components report outcomes through a Notifier; the embedding UI
// decides how to render them. Notifications are never modal and never
// block the caller.
package notify

import (
	"log/slog"
	"sync"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notifier receives transient user-facing messages.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to the application log. Used when no
// richer UI channel is wired in.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n *LogNotifier) Success(msg string) {
	n.Logger.Info("notification", slog.String("kind", string(KindSuccess)), slog.String("message", msg))
}

func (n *LogNotifier) Info(msg string) {
	n.Logger.Info("notification", slog.String("kind", string(KindInfo)), slog.String("message", msg))
}

func (n *LogNotifier) Error(msg string) {
	n.Logger.Warn("notification", slog.String("kind", string(KindError)), slog.String("message", msg))
}

// Fanout delivers each notification to every wrapped Notifier.
type Fanout []Notifier

func (f Fanout) Success(msg string) {
	for _, n := range f {
		n.Success(msg)
	}
}

func (f Fanout) Info(msg string) {
	for _, n := range f {
		n.Info(msg)
	}
}

func (f Fanout) Error(msg string) {
	for _, n := range f {
		n.Error(msg)
	}
}

// Notification is one recorded message.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Recorder keeps notifications in memory for test assertions and for the
// HTTP facade to drain into responses.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

func (r *Recorder) Success(msg string) { r.record(KindSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.record(KindInfo, msg) }
func (r *Recorder) Error(msg string)   { r.record(KindError, msg) }

func (r *Recorder) record(kind Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Notification{Kind: kind, Message: msg})
}

// All returns a copy of every recorded notification.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Drain returns all recorded notifications and clears the recorder.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}
