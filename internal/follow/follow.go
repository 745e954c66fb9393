// Package follow maintains who follows whom.
//
// Every user implicitly follows themselves; that edge can be neither added
// nor removed through the graph.
package follow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jdholdren/murmur/internal/keylock"
	"github.com/jdholdren/murmur/internal/murmur"
)

// Repo is the part of the record store the graph needs.
type Repo interface {
	murmur.UserRepo
	murmur.FollowRepo
}

type Graph struct {
	repo  Repo
	locks *keylock.Locks
}

func NewGraph(repo Repo) *Graph {
	return &Graph{
		repo:  repo,
		locks: keylock.New(),
	}
}

// Follow makes followerID follow followeeID. Following someone twice is not
// an error.
func (g *Graph) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return fmt.Errorf("user %q always follows themselves: %w", followerID, murmur.ErrInvalidArgument)
	}

	unlock := g.locks.Lock(followerID)
	defer unlock()

	if err := g.ensureUsers(ctx, followerID, followeeID); err != nil {
		return err
	}

	added, err := g.repo.AddFollow(ctx, followerID, followeeID)
	if err != nil {
		return murmur.Internal(err)
	}
	if added {
		slog.DebugContext(ctx, "followed", "follower_id", followerID, "followee_id", followeeID)
	}

	return nil
}

// Unfollow removes the edge from followerID to followeeID, failing with
// [murmur.ErrNotFound] when there is no such edge.
func (g *Graph) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return fmt.Errorf("user %q can't unfollow themselves: %w", followerID, murmur.ErrInvalidArgument)
	}

	unlock := g.locks.Lock(followerID)
	defer unlock()

	if err := g.ensureUsers(ctx, followerID, followeeID); err != nil {
		return err
	}

	removed, err := g.repo.RemoveFollow(ctx, followerID, followeeID)
	if err != nil {
		return murmur.Internal(err)
	}
	if !removed {
		return fmt.Errorf("%q does not follow %q: %w", followerID, followeeID, murmur.ErrNotFound)
	}
	slog.DebugContext(ctx, "unfollowed", "follower_id", followerID, "followee_id", followeeID)

	return nil
}

// Following returns the sorted ids userID follows, themselves included.
func (g *Graph) Following(ctx context.Context, userID string) ([]string, error) {
	if _, err := g.repo.User(ctx, userID); err != nil {
		return nil, murmur.Internal(err)
	}

	ids, err := g.repo.Following(ctx, userID)
	if err != nil {
		return nil, murmur.Internal(err)
	}

	set := map[string]struct{}{userID: {}}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	following := make([]string, 0, len(set))
	for id := range set {
		following = append(following, id)
	}
	sort.Strings(following)

	return following, nil
}

func (g *Graph) ensureUsers(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := g.repo.User(ctx, id); err != nil {
			return murmur.Internal(err)
		}
	}

	return nil
}
