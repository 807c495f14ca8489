package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

type queryRow struct {
	ID         int       `db:"id"`
	SourceType string    `db:"source_type"`
	Query      string    `db:"query"`
	IsDeleted  bool      `db:"is_deleted"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r queryRow) toQuery() search.PercolateQuery {
	return search.PercolateQuery{
		ID:         r.ID,
		SourceType: r.SourceType,
		Query:      r.Query,
		IsDeleted:  r.IsDeleted,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type membershipRow struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	QueryID     int       `db:"query_id"`
	IsMember    bool      `db:"is_member"`
	NeedsUpdate bool      `db:"needs_update"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r membershipRow) toMembership() search.Membership {
	return search.Membership{
		ID:          r.ID,
		UserID:      r.UserID,
		QueryID:     r.QueryID,
		IsMember:    r.IsMember,
		NeedsUpdate: r.NeedsUpdate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type searchRepository struct {
	exec core.DBExecutor
}

var _ search.Repository = (*searchRepository)(nil) // interface compliance check

func NewSearchRepository(exec core.DBExecutor) *searchRepository {
	return &searchRepository{exec: exec}
}

func (repo searchRepository) CreateQuery(ctx context.Context, q search.PercolateQuery, exec ...core.DBExecutor) (search.PercolateQuery, error) {
	exe := getExec(repo.exec, exec)

	var r queryRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO percolate_query (source_type, query)
		VALUES ($1, $2)
		RETURNING *`,
		q.SourceType, q.Query,
	).StructScan(&r)
	if err != nil {
		return search.PercolateQuery{}, errors.Wrap(err, "inserting percolate query")
	}
	return r.toQuery(), nil
}

func (repo searchRepository) GetQueryByID(ctx context.Context, id int, exec ...core.DBExecutor) (search.PercolateQuery, error) {
	exe := getExec(repo.exec, exec)

	var r queryRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM percolate_query WHERE id = $1`, id); err != nil {
		return search.PercolateQuery{}, trapNoRowsErr(err, search.ErrQueryNotFound, "finding percolate query")
	}
	return r.toQuery(), nil
}

// SoftDeleteQuery flags the query deleted and forces all of its memberships
// to a removal-pending state in one statement each.
func (repo searchRepository) SoftDeleteQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)

	res, err := exe.ExecContext(ctx, `
		UPDATE percolate_query SET is_deleted = TRUE, updated_at = now() WHERE id = $1`, queryID)
	if err != nil {
		return errors.Wrap(err, "soft-deleting percolate query")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return search.ErrQueryNotFound
	}

	_, err = exe.ExecContext(ctx, `
		UPDATE percolate_query_membership
		SET is_member = FALSE, needs_update = TRUE, updated_at = now()
		WHERE query_id = $1`, queryID)
	return errors.Wrap(err, "dirtying memberships of deleted query")
}

func (repo searchRepository) MembershipsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]search.Membership, error) {
	exe := getExec(repo.exec, exec)

	var rows []membershipRow
	err := exe.SelectContext(ctx, &rows, `
		SELECT * FROM percolate_query_membership WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying memberships by user")
	}
	members := make([]search.Membership, 0, len(rows))
	for _, r := range rows {
		members = append(members, r.toMembership())
	}
	return members, nil
}

// UpsertMembership creates the (user, query) row lazily, or flips IsMember;
// both paths leave the row dirty so the reconciler picks it up. An upsert
// that changes nothing leaves the row untouched.
func (repo searchRepository) UpsertMembership(ctx context.Context, userID, queryID int, isMember bool, exec ...core.DBExecutor) (search.Membership, error) {
	exe := getExec(repo.exec, exec)

	var r membershipRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO percolate_query_membership (user_id, query_id, is_member, needs_update)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (user_id, query_id) DO UPDATE
		SET is_member    = EXCLUDED.is_member,
		    needs_update = TRUE,
		    updated_at   = now()
		WHERE percolate_query_membership.is_member IS DISTINCT FROM EXCLUDED.is_member
		RETURNING *`,
		userID, queryID, isMember,
	).StructScan(&r)
	if err != nil {
		// the WHERE clause suppressed a no-op update; return the current row
		var cur membershipRow
		if gerr := exe.GetContext(ctx, &cur, `
			SELECT * FROM percolate_query_membership WHERE user_id = $1 AND query_id = $2`,
			userID, queryID); gerr == nil {
			return cur.toMembership(), nil
		}
		return search.Membership{}, errors.Wrap(err, "upserting membership")
	}
	return r.toMembership(), nil
}

func (repo searchRepository) MarkMembershipsNeedingUpdate(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	exe := getExec(repo.exec, exec)

	res, err := exe.ExecContext(ctx, `
		UPDATE percolate_query_membership pqm
		SET needs_update = TRUE, updated_at = now()
		FROM percolate_query pq
		WHERE pq.id = pqm.query_id AND pq.source_type = $1 AND NOT pqm.needs_update`,
		search.SourceTypeChannel)
	if err != nil {
		return 0, errors.Wrap(err, "marking memberships for update")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "marking memberships for update")
	}
	return int(n), nil
}

// MembershipIDsNeedingSync biases toward granting access before revoking
// it, freshest rows first within each group.
func (repo searchRepository) MembershipIDsNeedingSync(ctx context.Context, exec ...core.DBExecutor) ([]int, error) {
	exe := getExec(repo.exec, exec)

	var ids []int
	err := exe.SelectContext(ctx, &ids, `
		SELECT pqm.id
		FROM percolate_query_membership pqm
		JOIN percolate_query pq ON pq.id = pqm.query_id
		JOIN "user" u ON u.id = pqm.user_id
		WHERE pqm.needs_update
		  AND pq.source_type = $1
		  AND u.is_active
		ORDER BY pqm.is_member DESC, pqm.updated_at DESC`,
		search.SourceTypeChannel)
	if err != nil {
		return nil, errors.Wrap(err, "selecting memberships needing sync")
	}
	return ids, nil
}
