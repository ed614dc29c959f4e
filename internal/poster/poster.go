// Package poster defines the publish boundary.
//
// A Poster performs exactly one publish attempt per call. It applies its own
// internal timeout and never retries: retry policy belongs to the engine,
// which resolves a failed attempt into the backlog.
package poster

import (
	"context"
	"errors"

	"postpilot/internal/queue"
)

var ErrTimeout = errors.New("publish timed out")

// Request carries the content of one publish attempt.
type Request struct {
	Content   string
	PlainText string
	Media     *queue.Media
}

// Poster publishes a single piece of content to the configured destination.
// A nil error means the content is live.
type Poster interface {
	Post(ctx context.Context, req Request) error
}

// FromItem builds the publish request for a scheduled item.
func FromItem(it queue.Item) Request {
	return Request{Content: it.Content, PlainText: it.PlainText, Media: it.Media}
}

// Func adapts a function to the Poster interface. Used by tests.
type Func func(ctx context.Context, req Request) error

func (f Func) Post(ctx context.Context, req Request) error { return f(ctx, req) }
