package discussions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newChannelFixture() NewChannel {
	return NewChannel{
		Name:        "algebra_101",
		Title:       "Algebra 101",
		ChannelType: ChannelTypePrivate,
		QueryID:     1,
		ProgramID:   1,
	}
}

func TestCreateChannel(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	ch, err := svc.CreateChannel(context.Background(), newChannelFixture())

	assert.NoError(t, err)
	assert.Equal(t, "algebra_101", ch.Name)
	assert.Equal(t, 1, ch.QueryID.Int)
	assert.Equal(t, []string{"create_channel:algebra_101:"}, client.callLog())

	saved, err := store.GetChannelByName(context.Background(), "algebra_101")
	assert.NoError(t, err)
	assert.Equal(t, ch.ID, saved.ID)
}

func TestCreateChannel_nameConflict(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})
	client.failOn("create_channel", "", ErrChannelAlreadyExists)

	_, err := svc.CreateChannel(context.Background(), newChannelFixture())

	assert.Equal(t, ErrChannelAlreadyExists, err)
	_, err = store.GetChannelByName(context.Background(), "algebra_101")
	assert.Equal(t, ErrChannelNotFound, err, "no local row on conflict")
}

func TestCreateChannel_platformFailure(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})
	client.failOn("create_channel", "", errors.New("boom"))

	_, err := svc.CreateChannel(context.Background(), newChannelFixture())

	var createErr *ChannelCreationError
	assert.True(t, errors.As(err, &createErr))
	assert.Equal(t, "algebra_101", createErr.Name)
}

func TestCreateChannel_invalidName(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	tests := []struct {
		name    string
		chName  string
		wantErr bool
	}{
		{name: "uppercase rejected", chName: "Algebra", wantErr: true},
		{name: "hyphen rejected", chName: "algebra-101", wantErr: true},
		{name: "too short", chName: "ab", wantErr: true},
		{name: "too long", chName: "abcdefghijklmnopqrstuv", wantErr: true},
		{name: "valid", chName: "algebra_101"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nc := newChannelFixture()
			nc.Name = tt.chName
			_, err := svc.CreateChannel(context.Background(), nc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddChannelModerator(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("prof", "prof@test.test", true, t0)
	store.addDiscussionUser(usr.ID, "prof_d", t0)

	err := svc.AddChannelModerator(context.Background(), "algebra_101", usr.ID)

	assert.NoError(t, err)
	assert.Equal(t, []string{"add_moderator:algebra_101:prof_d"}, client.callLog())
}

func TestRemoveChannelModerator_neverProvisioned(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("prof", "prof@test.test", true, t0)
	store.addDiscussionUser(usr.ID, "", t0)
	store.discussionUsers[usr.ID].Username.Valid = false

	err := svc.RemoveChannelModerator(context.Background(), "algebra_101", usr.ID)

	assert.NoError(t, err)
	assert.Empty(t, client.callLog(), "nothing to revoke")
}

func TestRemoveChannelModerator(t *testing.T) {
	store := newMemStore()
	client := newFakeClient()
	svc := newTestService(store, client, &fakeLock{})

	usr := store.addUser("prof", "prof@test.test", true, t0)
	store.addDiscussionUser(usr.ID, "prof_d", t0)

	err := svc.RemoveChannelModerator(context.Background(), "algebra_101", usr.ID)

	assert.NoError(t, err)
	assert.Equal(t, []string{"remove_moderator:algebra_101:prof_d"}, client.callLog())
}
