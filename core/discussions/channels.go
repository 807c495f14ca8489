package discussions

import (
	"context"

	"github.com/volatiletech/null/v8"
)

// CreateChannel provisions the channel on the discussion platform and
// persists the local row. A name conflict surfaces as
// ErrChannelAlreadyExists so the caller can report it distinctly.
func (svc *Service) CreateChannel(ctx context.Context, nc NewChannel) (Channel, error) {
	if err := nc.Validate(); err != nil {
		return Channel{}, err
	}

	err := svc.client.CreateChannel(ctx, nc.Title, nc.Name, nc.PublicDescription, nc.ChannelType)
	if err == ErrChannelAlreadyExists {
		return Channel{}, err
	} else if err != nil {
		return Channel{}, &ChannelCreationError{Name: nc.Name, Err: err}
	}

	return svc.repo.CreateChannel(ctx, Channel{
		Name:              nc.Name,
		Title:             nc.Title,
		PublicDescription: nc.PublicDescription,
		ChannelType:       nc.ChannelType,
		QueryID:           null.IntFrom(nc.QueryID),
		ProgramID:         nc.ProgramID,
	})
}

// AddChannelModerator syncs the user's discussion profile and grants the
// moderator role on the channel. Moderators go through this path only,
// never through the subscriber pipeline.
func (svc *Service) AddChannelModerator(ctx context.Context, channelName string, userID int) error {
	du, err := svc.EnsureDiscussionUserSynced(ctx, userID, false)
	if err != nil {
		return err
	}
	return svc.addModerator(ctx, channelName, du.Username.String)
}

func (svc *Service) RemoveChannelModerator(ctx context.Context, channelName string, userID int) error {
	du, err := svc.repo.GetDiscussionUser(ctx, userID)
	if err != nil {
		return err
	}
	if !du.Username.Valid {
		return nil // never provisioned; nothing to revoke
	}
	return svc.removeModerator(ctx, channelName, du.Username.String)
}
