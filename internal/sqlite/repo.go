// Package sqlite is the sqlite backed record store for murmur.
package sqlite

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/jdholdren/murmur/internal/murmur"
)

// Ensure Repo implements the Repository interface
var _ murmur.Repository = (*Repo)(nil)

// Extended result codes from sqlite, see https://www.sqlite.org/rescode.html.
const (
	codeConstraintForeignKey = 787
	codeConstraintPrimaryKey = 1555
	codeConstraintUnique     = 2067
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db}
}

// Ping checks the database can be reached.
func (r Repo) Ping() error {
	return r.db.Ping()
}

func newID(namespace string) string {
	return fmt.Sprintf("%s%s", uuid.NewString(), namespace)
}

func sqliteCode(err error) int {
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}

	return 0
}
