package discussions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsureDiscussionUserSynced_provisionsMissingProfile(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("jane", "jane@test.test", true, t0)

	du, err := svc.EnsureDiscussionUserSynced(context.Background(), usr.ID, false)

	assert.NoError(t, err)
	assert.True(t, du.Username.Valid)
	assert.True(t, du.LastSync.Valid)
	assert.True(t, du.LastSync.Time.Equal(usr.ProfileUpdatedAt))
	assert.Len(t, client.callLog(), 1)
}

func TestEnsureDiscussionUserSynced_currentProfileIsNoop(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("jane", "jane@test.test", true, t0)
	store.addDiscussionUser(usr.ID, "jane_d", t0) // synced at the profile stamp

	du, err := svc.EnsureDiscussionUserSynced(context.Background(), usr.ID, false)

	assert.NoError(t, err)
	assert.Equal(t, "jane_d", du.Username.String)
	assert.Empty(t, client.callLog())
}

func TestEnsureDiscussionUserSynced_staleProfileUpdated(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	profileStamp := t0.Add(time.Hour)
	usr := store.addUser("jane", "jane@test.test", true, profileStamp)
	store.addDiscussionUser(usr.ID, "jane_d", t0)

	du, err := svc.EnsureDiscussionUserSynced(context.Background(), usr.ID, false)

	assert.NoError(t, err)
	assert.Equal(t, []string{"update_user::jane_d"}, client.callLog())
	assert.True(t, du.LastSync.Time.Equal(profileStamp))
}

func TestEnsureDiscussionUserSynced_allowEmailOptinForcesUpdate(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("jane", "jane@test.test", true, t0)
	store.addDiscussionUser(usr.ID, "jane_d", t0) // already current

	_, err := svc.EnsureDiscussionUserSynced(context.Background(), usr.ID, true)

	assert.NoError(t, err)
	assert.Equal(t, []string{"update_user::jane_d"}, client.callLog())
}

func TestEnsureDiscussionUserSynced_failedUpdateKeepsLastSync(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("jane", "jane@test.test", true, t0.Add(time.Hour))
	store.addDiscussionUser(usr.ID, "jane_d", t0)
	client.failOn("update_user", "jane_d", errors.New("boom"))

	_, err := svc.EnsureDiscussionUserSynced(context.Background(), usr.ID, false)

	assert.Error(t, err)
	var syncErr *DiscussionUserSyncError
	assert.True(t, errors.As(err, &syncErr))

	du := store.discussionUser(usr.ID)
	assert.True(t, du.LastSync.Time.Equal(t0), "LastSync only advances on confirmed success")
}
