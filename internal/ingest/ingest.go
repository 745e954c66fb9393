// Package ingest accepts new posts and appends them to their author's
// timeline.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jdholdren/murmur/internal/murmur"
)

// Clock is the source of post timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a func to a [Clock].
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Appender is where accepted posts go.
type Appender interface {
	Append(ctx context.Context, authorID, content string, timestamp int64) (murmur.Post, error)
}

type Publisher struct {
	timelines Appender
	clock     Clock
	maxLength int
}

// NewPublisher creates a Publisher. maxLength bounds content in runes; zero
// leaves it unbounded.
func NewPublisher(timelines Appender, clock Clock, maxLength int) *Publisher {
	return &Publisher{
		timelines: timelines,
		clock:     clock,
		maxLength: maxLength,
	}
}

// Publish validates content and appends it as the author's newest post.
func (p *Publisher) Publish(ctx context.Context, authorID, content string) (murmur.Post, error) {
	if strings.TrimSpace(content) == "" {
		return murmur.Post{}, fmt.Errorf("content is empty: %w", murmur.ErrInvalidArgument)
	}
	if n := utf8.RuneCountInString(content); p.maxLength > 0 && n > p.maxLength {
		return murmur.Post{}, fmt.Errorf("content is %d characters, max is %d: %w", n, p.maxLength, murmur.ErrInvalidArgument)
	}

	return p.timelines.Append(ctx, authorID, content, p.clock.Now().UnixMilli())
}
