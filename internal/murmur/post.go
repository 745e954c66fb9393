package murmur

import (
	"context"
	"time"
)

type PostRepo interface {
	// AppendPost stores p under a freshly assigned ID and makes it the head of
	// its author's timeline in one step. p.PredecessorID must name the current
	// head (nil for a first post), otherwise nothing is written and
	// [ErrHeadMoved] is returned.
	AppendPost(ctx context.Context, p Post) (Post, error)
	Post(ctx context.Context, id string) (Post, error)
}

// Post is an immutable entry in its author's timeline.
//
// PredecessorID links to the author's previous post, so following it from the
// author's head visits the whole timeline newest first.
type Post struct {
	ID            string  `db:"id"`
	AuthorID      string  `db:"author_id"`
	Content       string  `db:"content"`
	Timestamp     int64   `db:"published_at"` // unix milliseconds
	PredecessorID *string `db:"predecessor_id"`
}

// PublishedAt is the post's timestamp as a time.
func (p Post) PublishedAt() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}
