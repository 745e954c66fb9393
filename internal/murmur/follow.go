package murmur

import "context"

type FollowRepo interface {
	// AddFollow inserts the edge, reporting false if it already existed.
	AddFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	// RemoveFollow deletes the edge, reporting false if there was none.
	RemoveFollow(ctx context.Context, followerID, followeeID string) (bool, error)
	// Following lists the followee ids of followerID.
	Following(ctx context.Context, followerID string) ([]string, error)
}
