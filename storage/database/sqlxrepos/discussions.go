package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

type channelRow struct {
	ID                int       `db:"id"`
	Name              string    `db:"name"`
	Title             string    `db:"title"`
	PublicDescription string    `db:"public_description"`
	ChannelType       string    `db:"channel_type"`
	QueryID           null.Int  `db:"query_id"`
	ProgramID         int       `db:"program_id"`
	CreatedAt         time.Time `db:"created_at"`
}

func (r channelRow) toChannel() discussions.Channel {
	return discussions.Channel{
		ID:                r.ID,
		Name:              r.Name,
		Title:             r.Title,
		PublicDescription: r.PublicDescription,
		ChannelType:       r.ChannelType,
		QueryID:           r.QueryID,
		ProgramID:         r.ProgramID,
		CreatedAt:         r.CreatedAt,
	}
}

type discussionUserRow struct {
	ID       int         `db:"id"`
	UserID   int         `db:"user_id"`
	Username null.String `db:"username"`
	LastSync null.Time   `db:"last_sync"`
}

func (r discussionUserRow) toDiscussionUser() discussions.DiscussionUser {
	return discussions.DiscussionUser{ID: r.ID, UserID: r.UserID, Username: r.Username, LastSync: r.LastSync}
}

type discussionRepository struct {
	exec core.DBExecutor
}

var _ discussions.Repository = (*discussionRepository)(nil) // interface compliance check

func NewDiscussionRepository(exec core.DBExecutor) *discussionRepository {
	return &discussionRepository{exec: exec}
}

func (repo discussionRepository) CreateChannel(ctx context.Context, ch discussions.Channel, exec ...core.DBExecutor) (discussions.Channel, error) {
	exe := getExec(repo.exec, exec)

	var r channelRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO channel (name, title, public_description, channel_type, query_id, program_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *`,
		ch.Name, ch.Title, ch.PublicDescription, ch.ChannelType, ch.QueryID, ch.ProgramID,
	).StructScan(&r)
	if err != nil {
		return discussions.Channel{}, errors.Wrap(err, "inserting channel")
	}
	return r.toChannel(), nil
}

func (repo discussionRepository) GetChannelByName(ctx context.Context, name string, exec ...core.DBExecutor) (discussions.Channel, error) {
	exe := getExec(repo.exec, exec)

	var r channelRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM channel WHERE name = $1`, name); err != nil {
		return discussions.Channel{}, trapNoRowsErr(err, discussions.ErrChannelNotFound, "finding channel by name")
	}
	return r.toChannel(), nil
}

func (repo discussionRepository) FirstChannelForQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) (discussions.Channel, error) {
	exe := getExec(repo.exec, exec)

	var r channelRow
	err := exe.GetContext(ctx, &r, `
		SELECT * FROM channel WHERE query_id = $1 ORDER BY id LIMIT 1`, queryID)
	if err != nil {
		return discussions.Channel{}, trapNoRowsErr(err, discussions.ErrChannelNotFound, "finding channel for query")
	}
	return r.toChannel(), nil
}

func (repo discussionRepository) GetDiscussionUser(ctx context.Context, userID int, exec ...core.DBExecutor) (discussions.DiscussionUser, error) {
	exe := getExec(repo.exec, exec)

	var r discussionUserRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM discussion_user WHERE user_id = $1`, userID); err != nil {
		return discussions.DiscussionUser{}, trapNoRowsErr(err, discussions.ErrDiscussionUserNotFound, "finding discussion user")
	}
	return r.toDiscussionUser(), nil
}

// GetOrCreateDiscussionUserForUpdate inserts the row if absent, then locks
// it for the rest of the transaction so concurrent profile syncs of the
// same user serialize.
func (repo discussionRepository) GetOrCreateDiscussionUserForUpdate(ctx context.Context, userID int, exec core.DBExecutor) (discussions.DiscussionUser, error) {
	_, err := exec.ExecContext(ctx, `
		INSERT INTO discussion_user (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return discussions.DiscussionUser{}, errors.Wrap(err, "ensuring discussion user")
	}

	var r discussionUserRow
	err = exec.GetContext(ctx, &r, `
		SELECT * FROM discussion_user WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return discussions.DiscussionUser{}, trapNoRowsErr(err, discussions.ErrDiscussionUserNotFound, "locking discussion user")
	}
	return r.toDiscussionUser(), nil
}

func (repo discussionRepository) UpdateDiscussionUser(ctx context.Context, du discussions.DiscussionUser, exec ...core.DBExecutor) (discussions.DiscussionUser, error) {
	exe := getExec(repo.exec, exec)

	var r discussionUserRow
	err := exe.QueryRowxContext(ctx, `
		UPDATE discussion_user SET username = $2, last_sync = $3 WHERE id = $1
		RETURNING *`,
		du.ID, du.Username, du.LastSync,
	).StructScan(&r)
	if err != nil {
		return discussions.DiscussionUser{}, trapNoRowsErr(err, discussions.ErrDiscussionUserNotFound, "updating discussion user")
	}
	return r.toDiscussionUser(), nil
}

// GetMembershipForSync locks the membership row; the query fields ride
// along so the caller can resolve the channel without a second read.
func (repo discussionRepository) GetMembershipForSync(ctx context.Context, membershipID int, exec core.DBExecutor) (search.MembershipSyncRow, error) {
	var row search.MembershipSyncRow
	err := exec.GetContext(ctx, &row, `
		SELECT pqm.id AS membership_id, pqm.user_id, pqm.is_member, pqm.query_id, pq.source_type, pqm.updated_at
		FROM percolate_query_membership pqm
		JOIN percolate_query pq ON pq.id = pqm.query_id
		WHERE pqm.id = $1
		FOR UPDATE OF pqm`, membershipID)
	if err != nil {
		return search.MembershipSyncRow{}, trapNoRowsErr(err, search.ErrMembershipNotFound, "locking membership")
	}
	return row, nil
}

func (repo discussionRepository) MarkMembershipSynced(ctx context.Context, membershipID int, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)

	res, err := exe.ExecContext(ctx, `
		UPDATE percolate_query_membership SET needs_update = FALSE, updated_at = now() WHERE id = $1`,
		membershipID)
	if err != nil {
		return errors.Wrap(err, "marking membership synced")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return search.ErrMembershipNotFound
	}
	return nil
}
