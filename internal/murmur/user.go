package murmur

import "context"

type UserRepo interface {
	// CreateUser stores a new user together with its permanent self edge.
	CreateUser(ctx context.Context, name string) (User, error)
	User(ctx context.Context, id string) (User, error)
	Users(ctx context.Context) ([]User, error)
}

// User is an account that can publish and follow.
type User struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	HeadPostID *string `db:"head_post_id"`
}
