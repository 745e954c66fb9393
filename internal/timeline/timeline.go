// Package timeline owns every author's chain of posts.
//
// A timeline is a newest-first singly linked list: the author's record points
// at their latest post and each post points at the one before it. Appends for
// one author are serialized here; reads take no locks.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jdholdren/murmur/internal/keylock"
	"github.com/jdholdren/murmur/internal/murmur"
)

// Repo is the part of the record store a timeline needs.
type Repo interface {
	murmur.UserRepo
	murmur.PostRepo
}

type Store struct {
	repo  Repo
	locks *keylock.Locks

	// Posts never change once written, so anything fetched by id can be kept.
	posts *lru.Cache[string, murmur.Post]
}

// NewStore creates a Store caching up to cacheSize posts.
func NewStore(repo Repo, cacheSize int) (*Store, error) {
	cache, err := lru.New[string, murmur.Post](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("error creating post cache: %s", err)
	}

	return &Store{
		repo:  repo,
		locks: keylock.New(),
		posts: cache,
	}, nil
}

// Append links a new post onto the author's timeline and makes it the head.
//
// Timestamps must keep increasing along a timeline; one at or before the
// current head is moved to just after it.
func (s *Store) Append(ctx context.Context, authorID, content string, timestamp int64) (murmur.Post, error) {
	unlock := s.locks.Lock(authorID)
	defer unlock()

	usr, err := s.repo.User(ctx, authorID)
	if err != nil {
		return murmur.Post{}, murmur.Internal(err)
	}

	p := murmur.Post{
		AuthorID:  authorID,
		Content:   content,
		Timestamp: timestamp,
	}
	if usr.HeadPostID != nil {
		head, err := s.linked(ctx, *usr.HeadPostID)
		if err != nil {
			return murmur.Post{}, err
		}
		if p.Timestamp <= head.Timestamp {
			slog.WarnContext(ctx, "clock behind timeline head", "author_id", authorID, "timestamp", p.Timestamp, "head_timestamp", head.Timestamp)
			p.Timestamp = head.Timestamp + 1
		}
		p.PredecessorID = &head.ID
	}

	p, err = s.repo.AppendPost(ctx, p)
	if err != nil {
		return murmur.Post{}, murmur.Internal(err)
	}
	s.posts.Add(p.ID, p)

	slog.DebugContext(ctx, "appended post", "author_id", authorID, "post_id", p.ID)

	return p, nil
}

// Head returns the author's newest post, or nil if they have never posted.
func (s *Store) Head(ctx context.Context, authorID string) (*murmur.Post, error) {
	usr, err := s.repo.User(ctx, authorID)
	if err != nil {
		return nil, murmur.Internal(err)
	}
	if usr.HeadPostID == nil {
		return nil, nil
	}

	head, err := s.linked(ctx, *usr.HeadPostID)
	if err != nil {
		return nil, err
	}

	return &head, nil
}

// Predecessor returns the post before p on its author's timeline, or nil at
// the start of it.
func (s *Store) Predecessor(ctx context.Context, p murmur.Post) (*murmur.Post, error) {
	if p.PredecessorID == nil {
		return nil, nil
	}

	pred, err := s.linked(ctx, *p.PredecessorID)
	if err != nil {
		return nil, err
	}

	return &pred, nil
}

// Post looks up a single post by id.
func (s *Store) Post(ctx context.Context, id string) (murmur.Post, error) {
	if p, ok := s.posts.Get(id); ok {
		return p, nil
	}

	p, err := s.repo.Post(ctx, id)
	if err != nil {
		return murmur.Post{}, murmur.Internal(err)
	}
	s.posts.Add(id, p)

	return p, nil
}

// Timeline returns up to limit of the author's posts, newest first.
func (s *Store) Timeline(ctx context.Context, authorID string, limit int) ([]murmur.Post, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, murmur.ErrInvalidArgument)
	}

	cur, err := s.Head(ctx, authorID)
	if err != nil {
		return nil, err
	}

	var (
		posts = []murmur.Post{}
		seen  = make(map[string]struct{})
	)
	for cur != nil && len(posts) < limit {
		if _, ok := seen[cur.ID]; ok {
			return nil, fmt.Errorf("post %q repeats in timeline of %q: %w", cur.ID, authorID, murmur.ErrDataCorruption)
		}
		seen[cur.ID] = struct{}{}
		posts = append(posts, *cur)

		if cur, err = s.Predecessor(ctx, *cur); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

// linked fetches a post that another record points at. A dangling reference
// means the timeline is broken rather than that the caller asked for
// something missing.
func (s *Store) linked(ctx context.Context, id string) (murmur.Post, error) {
	p, err := s.Post(ctx, id)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, murmur.ErrNotFound) {
		return murmur.Post{}, fmt.Errorf("dangling reference to post %q: %w", id, murmur.ErrDataCorruption)
	}

	return murmur.Post{}, err
}
