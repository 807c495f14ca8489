package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

type searchRepository struct {
	db *DB
}

var _ search.Repository = (*searchRepository)(nil) // interface compliance check

func NewSearchRepository(db *DB) search.Repository {
	return &searchRepository{db: db}
}

func (repo *searchRepository) CreateQuery(ctx context.Context, q search.PercolateQuery, exec ...core.DBExecutor) (search.PercolateQuery, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	q.ID = repo.db.nextID()
	q.CreatedAt = now
	q.UpdatedAt = now
	repo.db.queries[q.ID] = &q
	return q, nil
}

func (repo *searchRepository) GetQueryByID(ctx context.Context, id int, exec ...core.DBExecutor) (search.PercolateQuery, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.queries[id]; ok {
		return *q, nil
	}
	return search.PercolateQuery{}, search.ErrQueryNotFound
}

func (repo *searchRepository) SoftDeleteQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	q, ok := repo.db.queries[queryID]
	if !ok {
		return search.ErrQueryNotFound
	}
	now := time.Now().UTC()
	q.IsDeleted = true
	q.UpdatedAt = now

	// every member must be kicked out on the next sync batch
	for _, m := range repo.db.memberships {
		if m.QueryID == queryID {
			m.IsMember = false
			m.NeedsUpdate = true
			m.UpdatedAt = now
		}
	}
	return nil
}

func (repo *searchRepository) MembershipsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]search.Membership, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var ms []search.Membership
	for _, m := range repo.db.memberships {
		if m.UserID == userID {
			ms = append(ms, *m)
		}
	}
	return ms, nil
}

func (repo *searchRepository) UpsertMembership(ctx context.Context, userID, queryID int, isMember bool, exec ...core.DBExecutor) (search.Membership, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	for _, m := range repo.db.memberships {
		if m.UserID == userID && m.QueryID == queryID {
			if m.IsMember != isMember {
				m.IsMember = isMember
				m.NeedsUpdate = true
				m.UpdatedAt = now
			}
			return *m, nil
		}
	}

	m := search.Membership{
		ID:          repo.db.nextID(),
		UserID:      userID,
		QueryID:     queryID,
		IsMember:    isMember,
		NeedsUpdate: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	repo.db.memberships[m.ID] = &m
	return m, nil
}

func (repo *searchRepository) MarkMembershipsNeedingUpdate(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := time.Now().UTC()
	var n int
	for _, m := range repo.db.memberships {
		q, ok := repo.db.queries[m.QueryID]
		if !ok || q.SourceType != search.SourceTypeChannel {
			continue
		}
		m.NeedsUpdate = true
		m.UpdatedAt = now
		n++
	}
	return n, nil
}

func (repo *searchRepository) MembershipIDsNeedingSync(ctx context.Context, exec ...core.DBExecutor) ([]int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stale []*search.Membership
	for _, m := range repo.db.memberships {
		if !m.NeedsUpdate {
			continue
		}
		q, ok := repo.db.queries[m.QueryID]
		if !ok || q.SourceType != search.SourceTypeChannel {
			continue
		}
		usr, ok := repo.db.users[m.UserID]
		if !ok || !usr.IsActive {
			continue
		}
		stale = append(stale, m)
	}

	// additions first, most recently updated first within each group
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].IsMember != stale[j].IsMember {
			return stale[i].IsMember
		}
		return stale[i].UpdatedAt.After(stale[j].UpdatedAt)
	})

	ids := make([]int, 0, len(stale))
	for _, m := range stale {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
