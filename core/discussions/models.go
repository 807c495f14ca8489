package discussions

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/umarmughal824/micromasters-sub002/core"
)

// Channel types on the discussion platform.
const (
	ChannelTypePublic  = "public"
	ChannelTypePrivate = "private"
)

// Channel is a named channel on the external discussion platform. The name
// is globally unique. A channel belongs to one program and is driven by at
// most one percolate query; the link is cleared when the query is deleted.
type Channel struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	Title             string    `json:"title"`
	PublicDescription string    `json:"public_description"`
	ChannelType       string    `json:"channel_type"`
	QueryID           null.Int  `json:"query_id"`
	ProgramID         int       `json:"program_id"`
	CreatedAt         time.Time `json:"created_at"` // UTC
}

// DiscussionUser tracks the external discussion profile of a user: the
// username assigned by the platform once provisioned, and the last profile
// stamp that was pushed there.
type DiscussionUser struct {
	ID       int         `json:"id"`
	UserID   int         `json:"user_id"`
	Username null.String `json:"username"`
	LastSync null.Time   `json:"last_sync"`
}

// NewChannel contains information needed to provision a channel.
type NewChannel struct {
	Name              string `json:"name" validate:"required,min=3,max=21,channelname"`
	Title             string `json:"title" validate:"required"`
	PublicDescription string `json:"public_description"`
	ChannelType       string `json:"channel_type" validate:"required,oneof=public private"`
	QueryID           int    `json:"query_id" validate:"required"`
	ProgramID         int    `json:"program_id" validate:"required"`
}

func (nc *NewChannel) Validate() error {
	nc.Name = core.CleanString(nc.Name, true /* lower */)
	nc.Title = core.CleanString(nc.Title)
	return core.Validate.Struct(nc)
}

// Profile is the subset of a user's profile pushed to the discussion
// platform.
type Profile struct {
	UID   int    `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client is the discussion platform API. Implementations must return an
// error for any non-success response; callers translate those into the
// typed sync errors defined in this package.
type Client interface {
	// CreateUser provisions a remote profile and returns the username the
	// platform assigned.
	CreateUser(ctx context.Context, email string, profile Profile) (string, error)
	UpdateUser(ctx context.Context, username string, profile Profile) error

	AddContributor(ctx context.Context, channelName, username string) error
	RemoveContributor(ctx context.Context, channelName, username string) error
	AddSubscriber(ctx context.Context, channelName, username string) error
	RemoveSubscriber(ctx context.Context, channelName, username string) error
	AddModerator(ctx context.Context, channelName, username string) error
	RemoveModerator(ctx context.Context, channelName, username string) error

	// CreateChannel fails with ErrChannelAlreadyExists when the name is
	// taken.
	CreateChannel(ctx context.Context, title, name, publicDescription, channelType string) error
}
