package discussions

import (
	"context"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

type Repository interface {
	// channels
	CreateChannel(ctx context.Context, ch Channel, exec ...core.DBExecutor) (Channel, error)
	GetChannelByName(ctx context.Context, name string, exec ...core.DBExecutor) (Channel, error)
	// FirstChannelForQuery resolves the channel driven by a percolate
	// query; ErrChannelNotFound when the query is orphaned.
	FirstChannelForQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) (Channel, error)

	// discussion users
	GetDiscussionUser(ctx context.Context, userID int, exec ...core.DBExecutor) (DiscussionUser, error)
	// GetOrCreateDiscussionUserForUpdate ensures the row exists and returns
	// it with a pessimistic row lock held; exec must be a transaction.
	GetOrCreateDiscussionUserForUpdate(ctx context.Context, userID int, exec core.DBExecutor) (DiscussionUser, error)
	UpdateDiscussionUser(ctx context.Context, du DiscussionUser, exec ...core.DBExecutor) (DiscussionUser, error)

	// memberships (reconciler view over the search tables)
	//
	// GetMembershipForSync loads the membership and its query under a
	// pessimistic row lock, so at most one reconciliation step touches a
	// given membership at a time; exec must be a transaction.
	GetMembershipForSync(ctx context.Context, membershipID int, exec core.DBExecutor) (search.MembershipSyncRow, error)
	MarkMembershipSynced(ctx context.Context, membershipID int, exec ...core.DBExecutor) error
}
