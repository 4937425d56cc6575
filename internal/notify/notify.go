// Package notify carries short user-visible messages (toasts) from the
// cart and session flows to whatever renders them.
package notify

import (
	"context"
	"log"
	"sync"
	"time"
)

type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Error   Level = "error"
)

type Notice struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(context.Context, Notice) {}

// Feed keeps the most recent notices, oldest first, and logs each one.
type Feed struct {
	mu     sync.Mutex
	items  []Notice
	size   int
	logger *log.Logger
	now    func() time.Time
}

func NewFeed(size int, logger *log.Logger) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{size: size, logger: logger, now: time.Now}
}

func (f *Feed) Notify(_ context.Context, n Notice) {
	if n.At.IsZero() {
		n.At = f.now()
	}
	f.logger.Printf("notice level=%s title=%q message=%q", n.Level, n.Title, n.Message)

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == f.size {
		copy(f.items, f.items[1:])
		f.items = f.items[:f.size-1]
	}
	f.items = append(f.items, n)
}

// Recent returns a copy of the buffered notices.
func (f *Feed) Recent() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, len(f.items))
	copy(out, f.items)
	return out
}

// Drain returns the buffered notices and empties the feed.
func (f *Feed) Drain() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.items
	f.items = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}
