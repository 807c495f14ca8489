// Package inmem implements the repository interfaces on mutex-guarded maps.
// It backs tests and local development without a running Postgres.
package inmem

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	"github.com/umarmughal824/micromasters-sub002/core/program"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

type DB struct {
	noExec
	sync.RWMutex

	pkCount         int
	users           map[int]*user.User
	roles           map[int]*user.Role
	programs        map[int]*program.Program
	enrollments     map[int]*program.Enrollment
	queries         map[int]*search.PercolateQuery
	memberships     map[int]*search.Membership
	channels        map[int]*discussions.Channel
	discussionUsers map[int]*discussions.DiscussionUser
}

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		users:           make(map[int]*user.User),
		roles:           make(map[int]*user.Role),
		programs:        make(map[int]*program.Program),
		enrollments:     make(map[int]*program.Enrollment),
		queries:         make(map[int]*search.PercolateQuery),
		memberships:     make(map[int]*search.Membership),
		channels:        make(map[int]*discussions.Channel),
		discussionUsers: make(map[int]*discussions.DiscussionUser),
	}
	return db, nil
}

// nextID must be called with the write lock held.
func (db *DB) nextID() int {
	db.pkCount++
	return db.pkCount
}

// BeginTxx returns a no-op transactor. The map stores mutate in place, so
// there is nothing to commit or roll back.
func (db *DB) BeginTxx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return &tx{}, nil
}

type tx struct {
	noExec
}

func (*tx) Commit() error   { return nil }
func (*tx) Rollback() error { return nil }

var errNoSQL = errors.New("inmem: raw SQL not supported")

// noExec satisfies core.DBExecutor for stores that never run SQL.
type noExec struct{}

func (noExec) DriverName() string     { return "inmem" }
func (noExec) Rebind(q string) string { return q }
func (noExec) BindNamed(q string, arg interface{}) (string, []interface{}, error) {
	return q, nil, nil
}
func (noExec) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}
func (noExec) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, errNoSQL
}
func (noExec) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return nil
}
func (noExec) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}
func (noExec) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNoSQL
}
func (noExec) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNoSQL
}
