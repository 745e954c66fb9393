package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/murmur/internal/murmur"
)

func (r Repo) AddFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	const q = `INSERT INTO follows (follower_id, followee_id) VALUES (?, ?);`

	_, err := r.db.ExecContext(ctx, q, followerID, followeeID)
	switch sqliteCode(err) {
	case codeConstraintPrimaryKey, codeConstraintUnique:
		return false, nil
	case codeConstraintForeignKey:
		return false, fmt.Errorf("follow %q -> %q: %w", followerID, followeeID, murmur.ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("error inserting follow: %w", err)
	}

	return true, nil
}

func (r Repo) RemoveFollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	const q = `DELETE FROM follows WHERE follower_id = ? AND followee_id = ?;`

	res, err := r.db.ExecContext(ctx, q, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("error deleting follow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading affected rows: %w", err)
	}

	return n > 0, nil
}

func (r Repo) Following(ctx context.Context, followerID string) ([]string, error) {
	query, args, err := sq.Select("followee_id").
		From("follows").
		Where(sq.Eq{"follower_id": followerID}).
		OrderBy("followee_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting following: %w", err)
	}

	return ids, nil
}
