package inmem

import (
	"context"
	"time"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

type discussionRepository struct {
	db *DB
}

var _ discussions.Repository = (*discussionRepository)(nil) // interface compliance check

func NewDiscussionRepository(db *DB) discussions.Repository {
	return &discussionRepository{db: db}
}

func (repo *discussionRepository) CreateChannel(ctx context.Context, ch discussions.Channel, exec ...core.DBExecutor) (discussions.Channel, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ch.ID = repo.db.nextID()
	ch.CreatedAt = time.Now().UTC()
	repo.db.channels[ch.ID] = &ch
	return ch, nil
}

func (repo *discussionRepository) GetChannelByName(ctx context.Context, name string, exec ...core.DBExecutor) (discussions.Channel, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, ch := range repo.db.channels {
		if ch.Name == name {
			return *ch, nil
		}
	}
	return discussions.Channel{}, discussions.ErrChannelNotFound
}

func (repo *discussionRepository) FirstChannelForQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) (discussions.Channel, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var found *discussions.Channel
	for _, ch := range repo.db.channels {
		if !ch.QueryID.Valid || ch.QueryID.Int != queryID {
			continue
		}
		if found == nil || ch.ID < found.ID {
			found = ch
		}
	}
	if found == nil {
		return discussions.Channel{}, discussions.ErrChannelNotFound
	}
	return *found, nil
}

func (repo *discussionRepository) GetDiscussionUser(ctx context.Context, userID int, exec ...core.DBExecutor) (discussions.DiscussionUser, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, du := range repo.db.discussionUsers {
		if du.UserID == userID {
			return *du, nil
		}
	}
	return discussions.DiscussionUser{}, discussions.ErrDiscussionUserNotFound
}

func (repo *discussionRepository) GetOrCreateDiscussionUserForUpdate(ctx context.Context, userID int, exec core.DBExecutor) (discussions.DiscussionUser, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, du := range repo.db.discussionUsers {
		if du.UserID == userID {
			return *du, nil
		}
	}
	du := discussions.DiscussionUser{
		ID:     repo.db.nextID(),
		UserID: userID,
	}
	repo.db.discussionUsers[du.ID] = &du
	return du, nil
}

func (repo *discussionRepository) UpdateDiscussionUser(ctx context.Context, du discussions.DiscussionUser, exec ...core.DBExecutor) (discussions.DiscussionUser, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.discussionUsers[du.ID]; !ok {
		return discussions.DiscussionUser{}, discussions.ErrDiscussionUserNotFound
	}
	repo.db.discussionUsers[du.ID] = &du
	return du, nil
}

func (repo *discussionRepository) GetMembershipForSync(ctx context.Context, membershipID int, exec core.DBExecutor) (search.MembershipSyncRow, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	m, ok := repo.db.memberships[membershipID]
	if !ok {
		return search.MembershipSyncRow{}, search.ErrMembershipNotFound
	}
	q, ok := repo.db.queries[m.QueryID]
	if !ok {
		return search.MembershipSyncRow{}, search.ErrMembershipNotFound
	}
	return search.MembershipSyncRow{
		MembershipID: m.ID,
		UserID:       m.UserID,
		IsMember:     m.IsMember,
		QueryID:      m.QueryID,
		SourceType:   q.SourceType,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func (repo *discussionRepository) MarkMembershipSynced(ctx context.Context, membershipID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	m, ok := repo.db.memberships[membershipID]
	if !ok {
		return search.ErrMembershipNotFound
	}
	m.NeedsUpdate = false
	m.UpdatedAt = time.Now().UTC()
	return nil
}
