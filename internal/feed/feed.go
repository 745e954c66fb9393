// Package feed builds a user's feed: the newest posts across everyone they
// follow, merged into one reverse-chronological list.
//
// Each followed author contributes a timeline that is already sorted newest
// first, so the feed is a k-way merge. A heap (the frontier) holds the next
// unread post of each author; the newest is popped, emitted, and replaced by
// the post before it on the same timeline.
package feed

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"

	"github.com/jdholdren/murmur/internal/murmur"
)

// Graph resolves the authors a user reads.
type Graph interface {
	Following(ctx context.Context, userID string) ([]string, error)
}

// Timelines walks an author's posts from newest to oldest.
type Timelines interface {
	Head(ctx context.Context, authorID string) (*murmur.Post, error)
	Predecessor(ctx context.Context, p murmur.Post) (*murmur.Post, error)
}

type Merger struct {
	graph     Graph
	timelines Timelines
}

func NewMerger(graph Graph, timelines Timelines) *Merger {
	return &Merger{
		graph:     graph,
		timelines: timelines,
	}
}

// Feed returns at most limit posts from the authors userID follows, newest
// first. Posts with equal timestamps are ordered by author id.
//
// Nothing is written and no locks are taken. A concurrent publish may or may
// not be seen, but every author's contribution is always a prefix of their
// timeline.
func (m *Merger) Feed(ctx context.Context, userID string, limit int) ([]murmur.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, murmur.ErrInvalidArgument)
	}

	authors, err := m.graph.Following(ctx, userID)
	if err != nil {
		return nil, err
	}

	f := make(frontier, 0, len(authors))
	for _, author := range authors {
		head, err := m.timelines.Head(ctx, author)
		if err != nil {
			return nil, err
		}
		if head != nil {
			f = append(f, *head)
		}
	}
	heap.Init(&f)

	var (
		posts = make([]murmur.Post, 0, min(limit, len(f)))
		seen  = make(map[string]struct{})
	)
	for len(posts) < limit && f.Len() > 0 {
		p := heap.Pop(&f).(murmur.Post)
		if _, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("post %q reached twice: %w", p.ID, murmur.ErrDataCorruption)
		}
		seen[p.ID] = struct{}{}
		posts = append(posts, p)

		pred, err := m.timelines.Predecessor(ctx, p)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			continue
		}
		if err := checkLink(p, *pred); err != nil {
			return nil, err
		}
		heap.Push(&f, *pred)
	}

	slog.DebugContext(ctx, "merged feed", "user_id", userID, "authors", len(authors), "posts", len(posts))

	return posts, nil
}

// checkLink verifies pred can sit behind p on one timeline. Anything else
// means the stored chain is broken and walking it could revisit posts.
func checkLink(p, pred murmur.Post) error {
	if pred.AuthorID != p.AuthorID {
		return fmt.Errorf("post %q by %q links to post %q by %q: %w", p.ID, p.AuthorID, pred.ID, pred.AuthorID, murmur.ErrDataCorruption)
	}
	if pred.Timestamp >= p.Timestamp {
		return fmt.Errorf("post %q at %d links to newer post %q at %d: %w", p.ID, p.Timestamp, pred.ID, pred.Timestamp, murmur.ErrDataCorruption)
	}

	return nil
}

// frontier is a max-heap of the next unread post per author, ordered by
// timestamp and then author id.
type frontier []murmur.Post

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].Timestamp != f[j].Timestamp {
		return f[i].Timestamp > f[j].Timestamp
	}
	return f[i].AuthorID < f[j].AuthorID
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
}

func (f *frontier) Push(x any) {
	*f = append(*f, x.(murmur.Post))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[0 : n-1]
	return item
}
