package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/umarmughal824/micromasters-sub002/core"
)

var (
	// errors
	ErrQueryNotFound      = errors.New("percolate query not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

type (
	Repository interface {
		CreateQuery(ctx context.Context, q PercolateQuery, exec ...core.DBExecutor) (PercolateQuery, error)
		GetQueryByID(ctx context.Context, id int, exec ...core.DBExecutor) (PercolateQuery, error)
		// SoftDeleteQuery flags the query deleted and forces
		// is_member=false, needs_update=true on all of its memberships.
		SoftDeleteQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) error

		MembershipsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Membership, error)
		// UpsertMembership creates the (user, query) row lazily or updates
		// IsMember; either way a changed desired state marks the row dirty.
		UpsertMembership(ctx context.Context, userID, queryID int, isMember bool, exec ...core.DBExecutor) (Membership, error)
		// MarkMembershipsNeedingUpdate dirties every membership of
		// channel-type queries; used by the backfill command. Returns the
		// number of rows touched.
		MarkMembershipsNeedingUpdate(ctx context.Context, exec ...core.DBExecutor) (int, error)

		// MembershipIDsNeedingSync returns ids of dirty memberships of
		// channel-type queries whose user has a profile, additions
		// (is_member=true) first, most recently updated first within each
		// group.
		MembershipIDsNeedingSync(ctx context.Context, exec ...core.DBExecutor) ([]int, error)
	}

	// Percolator is the black-box search engine: which saved queries match
	// a given user.
	Percolator interface {
		MatchingQueryIDs(ctx context.Context, userID int) ([]int, error)
	}

	// Indexer triggers fire-and-forget search indexing.
	Indexer interface {
		IndexUser(ctx context.Context, userID int) error
	}

	Service struct {
		repo       Repository
		percolator Percolator
		logger     core.Logger
	}
)

func NewService(repo Repository, percolator Percolator, logger core.Logger) *Service {
	return &Service{repo: repo, percolator: percolator, logger: logger}
}

func (svc *Service) CreateQuery(ctx context.Context, sourceType, query string) (PercolateQuery, error) {
	var known bool
	for _, st := range AllSourceTypes {
		if st == sourceType {
			known = true
			break
		}
	}
	if !known {
		err := fmt.Errorf("unknown source type %q", sourceType)
		return PercolateQuery{}, core.NewValidationError(err, core.FieldError{Field: "source_type", Error: err.Error()})
	}
	return svc.repo.CreateQuery(ctx, PercolateQuery{SourceType: sourceType, Query: query})
}

func (svc *Service) DeleteQuery(ctx context.Context, queryID int) error {
	return svc.repo.SoftDeleteQuery(ctx, queryID)
}

// UpdateMemberships re-percolates the user against all saved queries and
// reconciles the local membership rows with the result: rows are created
// lazily for newly matched channel queries, and any row whose desired state
// changed is marked dirty for the next sync batch. Matched automatic-email
// queries are returned to the caller, which owns the mail side effect.
func (svc *Service) UpdateMemberships(ctx context.Context, userID int) ([]PercolateQuery, error) {
	matchIDs, err := svc.percolator.MatchingQueryIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched := make(map[int]bool, len(matchIDs))

	var emailQueries []PercolateQuery
	for _, qid := range matchIDs {
		q, err := svc.repo.GetQueryByID(ctx, qid)
		if err == ErrQueryNotFound {
			// percolator index lagging behind a deleted query
			continue
		} else if err != nil {
			return nil, err
		}
		if q.IsDeleted {
			continue
		}

		switch q.SourceType {
		case SourceTypeChannel:
			matched[qid] = true
			if _, err := svc.repo.UpsertMembership(ctx, userID, qid, true); err != nil {
				return nil, err
			}
		case SourceTypeAutomaticEmail:
			emailQueries = append(emailQueries, q)
		}
	}

	// revoke desired membership on channel queries that no longer match
	existing, err := svc.repo.MembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.IsMember && !matched[m.QueryID] {
			if _, err := svc.repo.UpsertMembership(ctx, userID, m.QueryID, false); err != nil {
				return nil, err
			}
		}
	}
	return emailQueries, nil
}
