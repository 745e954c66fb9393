package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jdholdren/murmur/internal/murmur"
)

const postNamespace = "-pst"

func (r Repo) AppendPost(ctx context.Context, p murmur.Post) (murmur.Post, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return murmur.Post{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const insertQ = `INSERT INTO posts (id, author_id, content, published_at, predecessor_id)
	VALUES (:id, :author_id, :content, :published_at, :predecessor_id);`

	p.ID = newID(postNamespace)
	_, err = tx.NamedExecContext(ctx, insertQ, p)
	if sqliteCode(err) == codeConstraintForeignKey {
		return murmur.Post{}, fmt.Errorf("author %q: %w", p.AuthorID, murmur.ErrNotFound)
	}
	if err != nil {
		return murmur.Post{}, fmt.Errorf("error inserting post: %w", err)
	}

	// Only swap the head if it is still the post we linked to.
	const headQ = `UPDATE users SET head_post_id = ? WHERE id = ? AND head_post_id IS ?;`
	res, err := tx.ExecContext(ctx, headQ, p.ID, p.AuthorID, p.PredecessorID)
	if err != nil {
		return murmur.Post{}, fmt.Errorf("error updating user head: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return murmur.Post{}, fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return murmur.Post{}, fmt.Errorf("author %q: %w", p.AuthorID, murmur.ErrHeadMoved)
	}

	if err := tx.Commit(); err != nil {
		return murmur.Post{}, fmt.Errorf("error committing transaction: %w", err)
	}

	return p, nil
}

func (r Repo) Post(ctx context.Context, id string) (murmur.Post, error) {
	const q = `SELECT id, author_id, content, published_at, predecessor_id FROM posts WHERE id = ?;`

	var p murmur.Post
	err := r.db.GetContext(ctx, &p, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return murmur.Post{}, fmt.Errorf("post %q: %w", id, murmur.ErrNotFound)
	}
	if err != nil {
		return murmur.Post{}, fmt.Errorf("error fetching post: %w", err)
	}

	return p, nil
}
