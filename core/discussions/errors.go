package discussions

import (
	"errors"
	"fmt"
)

var (
	ErrChannelNotFound        = errors.New("channel not found")
	ErrDiscussionUserNotFound = errors.New("discussion user not found")

	// ErrChannelAlreadyExists distinguishes a name conflict from other
	// provisioning failures so callers can report it as such.
	ErrChannelAlreadyExists = errors.New("a channel with this name already exists")
)

// DiscussionUserSyncError reports a failed remote profile create/update.
type DiscussionUserSyncError struct {
	UserID int
	Err    error
}

func (e *DiscussionUserSyncError) Error() string {
	return fmt.Sprintf("syncing discussion user for user %d: %v", e.UserID, e.Err)
}

func (e *DiscussionUserSyncError) Unwrap() error { return e.Err }

// channelOpError carries the operation, channel and user of a failed
// channel-membership call.
type channelOpError struct {
	Op       string
	Channel  string
	Username string
	Err      error
}

func (e *channelOpError) Error() string {
	return fmt.Sprintf("%s %q on channel %q: %v", e.Op, e.Username, e.Channel, e.Err)
}

func (e *channelOpError) Unwrap() error { return e.Err }

type ContributorSyncError struct{ channelOpError }

type SubscriberSyncError struct{ channelOpError }

type ModeratorSyncError struct{ channelOpError }

// ChannelCreationError reports a failed channel provisioning call that is
// not a name conflict.
type ChannelCreationError struct {
	Name string
	Err  error
}

func (e *ChannelCreationError) Error() string {
	return fmt.Sprintf("creating channel %q: %v", e.Name, e.Err)
}

func (e *ChannelCreationError) Unwrap() error { return e.Err }

// AuthenticationError reports a failed token issuance for a discussion user.
type AuthenticationError struct {
	Username string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authenticating discussion user %q: %v", e.Username, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// IsSyncError reports whether err is a failure specific to one membership's
// external sync. The batch driver logs these and moves on; anything else
// aborts the run.
func IsSyncError(err error) bool {
	var (
		userErr *DiscussionUserSyncError
		conErr  *ContributorSyncError
		subErr  *SubscriberSyncError
		modErr  *ModeratorSyncError
	)
	return errors.As(err, &userErr) ||
		errors.As(err, &conErr) ||
		errors.As(err, &subErr) ||
		errors.As(err, &modErr)
}
