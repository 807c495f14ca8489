package discussions

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/umarmughal824/micromasters-sub002/core"
)

// EnsureDiscussionUserSynced makes sure the user has a provisioned,
// up-to-date profile on the discussion platform, in its own transaction.
func (svc *Service) EnsureDiscussionUserSynced(ctx context.Context, userID int, allowEmailOptin bool) (DiscussionUser, error) {
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return DiscussionUser{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	du, err := svc.ensureDiscussionUserSynced(ctx, tx, userID, allowEmailOptin)
	if err != nil {
		return DiscussionUser{}, err
	}
	if err := tx.Commit(); err != nil {
		return DiscussionUser{}, errors.Wrap(err, "committing discussion user sync")
	}
	return du, nil
}

// ensureDiscussionUserSynced runs inside the caller's transaction and holds
// a row lock on the DiscussionUser for its duration, so concurrent syncs of
// the same user serialize.
//
// No external username yet: "create user" is called and the returned
// username stored, with the profile stamp as LastSync. Otherwise "update
// user" is called only when allowEmailOptin is set or the profile changed
// since LastSync; LastSync advances only on confirmed success.
func (svc *Service) ensureDiscussionUserSynced(ctx context.Context, exec core.DBExecutor, userID int, allowEmailOptin bool) (DiscussionUser, error) {
	du, err := svc.repo.GetOrCreateDiscussionUserForUpdate(ctx, userID, exec)
	if err != nil {
		return DiscussionUser{}, err
	}
	usr, err := svc.userRepo.GetUserByID(ctx, userID, exec)
	if err != nil {
		return DiscussionUser{}, err
	}
	profile := Profile{UID: usr.ID, Name: usr.Name, Email: usr.Email}

	if !du.Username.Valid {
		username, err := svc.client.CreateUser(ctx, usr.Email, profile)
		if err != nil {
			return DiscussionUser{}, &DiscussionUserSyncError{UserID: userID, Err: err}
		}
		du.Username = null.StringFrom(username)
		du.LastSync = null.TimeFrom(usr.ProfileUpdatedAt)
		return svc.repo.UpdateDiscussionUser(ctx, du, exec)
	}

	if !allowEmailOptin && du.LastSync.Valid && !usr.ProfileUpdatedAt.After(du.LastSync.Time) {
		return du, nil // remote profile already current
	}
	if err := svc.client.UpdateUser(ctx, du.Username.String, profile); err != nil {
		return DiscussionUser{}, &DiscussionUserSyncError{UserID: userID, Err: err}
	}
	du.LastSync = null.TimeFrom(usr.ProfileUpdatedAt)
	return svc.repo.UpdateDiscussionUser(ctx, du, exec)
}
