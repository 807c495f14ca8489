package discussions

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

// membershipSyncLock names the critical section guarding batch runs; at
// most one membership batch runs at a time system-wide.
const membershipSyncLock = "discussions.sync_memberships"

// SyncChannelMemberships is the scheduled batch entry point: acquire the
// job lock, stream the stale membership ids, reconcile them. Lock
// contention means another batch is already syncing and is not an error.
func (svc *Service) SyncChannelMemberships(ctx context.Context) error {
	if !svc.conf.Features.DiscussionSync {
		svc.logger.Info("discussion sync is disabled; skipping membership sync")
		return nil
	}

	acquired, err := svc.lock.Acquire(ctx, membershipSyncLock, svc.now().Add(svc.conf.Discussions.LockTTL))
	if err != nil {
		return errors.Wrap(err, "acquiring membership sync lock")
	}
	if !acquired {
		svc.logger.Info("membership sync already in progress; skipping")
		return nil
	}
	defer func() {
		if err := svc.lock.Release(ctx, membershipSyncLock); err != nil {
			svc.logger.Error(fmt.Sprintf("releasing membership sync lock: %v", err), err)
		}
	}()

	ids, err := svc.searchRepo.MembershipIDsNeedingSync(ctx)
	if err != nil {
		return errors.Wrap(err, "selecting memberships needing sync")
	}
	return svc.Sync(ctx, ids)
}

// Sync reconciles the given membership ids against the discussion platform
// within the configured time window. A sync failure specific to one
// membership is logged and the loop moves on, leaving that row dirty for
// the next run; any other failure aborts the batch.
func (svc *Service) Sync(ctx context.Context, membershipIDs []int) error {
	deadline := svc.now().Add(svc.conf.Discussions.SyncWindow)

	for _, id := range membershipIDs {
		if !svc.now().Before(deadline) {
			svc.logger.Info("sync window elapsed; leaving remaining memberships for the next run")
			return nil
		}

		if err := svc.syncMembership(ctx, id); err != nil {
			if IsSyncError(err) {
				svc.logger.Error(fmt.Sprintf("syncing membership %d: %v", id, err), err)
				continue
			}
			return err
		}
	}
	return nil
}

// syncMembership drives one membership to its desired state in a single
// transaction, holding a row lock on the membership throughout so no other
// processor can touch it concurrently.
func (svc *Service) syncMembership(ctx context.Context, membershipID int) error {
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	row, err := svc.repo.GetMembershipForSync(ctx, membershipID, tx)
	if err == search.ErrMembershipNotFound {
		return nil // raced with a delete; nothing to do
	} else if err != nil {
		return err
	}

	ch, err := svc.repo.FirstChannelForQuery(ctx, row.QueryID, tx)
	if err == ErrChannelNotFound {
		// orphaned or raced data; leave the row dirty for a future run
		return nil
	} else if err != nil {
		return err
	}

	// Moderators are managed out-of-band; mark clean without touching
	// contributor/subscriber state.
	isModerator, err := svc.userRepo.HasRole(ctx, row.UserID, ch.ProgramID, user.RolesWithForumPermission(), tx)
	if err != nil {
		return err
	}
	if isModerator {
		if err := svc.repo.MarkMembershipSynced(ctx, membershipID, tx); err != nil {
			return err
		}
		return errors.Wrap(tx.Commit(), "committing membership sync")
	}

	du, err := svc.ensureDiscussionUserSynced(ctx, tx, row.UserID, false)
	if err != nil {
		return err
	}

	if row.IsMember {
		err = svc.AddToChannel(ctx, ch.Name, du.Username.String)
	} else {
		err = svc.RemoveFromChannel(ctx, ch.Name, du.Username.String)
	}
	if err != nil {
		return err
	}

	if err := svc.repo.MarkMembershipSynced(ctx, membershipID, tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing membership sync")
}
