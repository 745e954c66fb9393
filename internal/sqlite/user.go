package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/murmur/internal/murmur"
)

const userNamespace = "-usr"

func (r Repo) CreateUser(ctx context.Context, name string) (murmur.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return murmur.User{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	usr := murmur.User{
		ID:   newID(userNamespace),
		Name: name,
	}
	const insertQ = `INSERT INTO users (id, name) VALUES (:id, :name);`
	if _, err := tx.NamedExecContext(ctx, insertQ, usr); err != nil {
		return murmur.User{}, fmt.Errorf("error inserting user: %w", err)
	}

	// Every user follows themselves from the start.
	const selfQ = `INSERT INTO follows (follower_id, followee_id) VALUES (?, ?);`
	if _, err := tx.ExecContext(ctx, selfQ, usr.ID, usr.ID); err != nil {
		return murmur.User{}, fmt.Errorf("error inserting self follow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return murmur.User{}, fmt.Errorf("error committing transaction: %w", err)
	}

	return usr, nil
}

func (r Repo) User(ctx context.Context, id string) (murmur.User, error) {
	const q = `SELECT id, name, head_post_id FROM users WHERE id = ?;`

	var usr murmur.User
	err := r.db.GetContext(ctx, &usr, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return murmur.User{}, fmt.Errorf("user %q: %w", id, murmur.ErrNotFound)
	}
	if err != nil {
		return murmur.User{}, fmt.Errorf("error fetching user: %w", err)
	}

	return usr, nil
}

// Users returns every user, oldest first.
func (r Repo) Users(ctx context.Context) ([]murmur.User, error) {
	query, args, err := sq.Select("id", "name", "head_post_id").
		From("users").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	users := []murmur.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting users: %w", err)
	}

	return users, nil
}
