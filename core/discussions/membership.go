package discussions

import "context"

// Channel-membership primitives. Each wraps a single platform call and
// translates a failure into the typed error naming the operation, channel
// and user.

func (svc *Service) addContributor(ctx context.Context, channelName, username string) error {
	if err := svc.client.AddContributor(ctx, channelName, username); err != nil {
		return &ContributorSyncError{channelOpError{Op: "adding contributor", Channel: channelName, Username: username, Err: err}}
	}
	return nil
}

func (svc *Service) removeContributor(ctx context.Context, channelName, username string) error {
	if err := svc.client.RemoveContributor(ctx, channelName, username); err != nil {
		return &ContributorSyncError{channelOpError{Op: "removing contributor", Channel: channelName, Username: username, Err: err}}
	}
	return nil
}

func (svc *Service) addSubscriber(ctx context.Context, channelName, username string) error {
	if err := svc.client.AddSubscriber(ctx, channelName, username); err != nil {
		return &SubscriberSyncError{channelOpError{Op: "adding subscriber", Channel: channelName, Username: username, Err: err}}
	}
	return nil
}

func (svc *Service) removeSubscriber(ctx context.Context, channelName, username string) error {
	if err := svc.client.RemoveSubscriber(ctx, channelName, username); err != nil {
		return &SubscriberSyncError{channelOpError{Op: "removing subscriber", Channel: channelName, Username: username, Err: err}}
	}
	return nil
}

func (svc *Service) addModerator(ctx context.Context, channelName, username string) error {
	if err := svc.client.AddModerator(ctx, channelName, username); err != nil {
		return &ModeratorSyncError{channelOpError{Op: "adding moderator", Channel: channelName, Username: username, Err: err}}
	}
	return nil
}

func (svc *Service) removeModerator(ctx context.Context, channelName, username string) error {
	if err := svc.client.RemoveModerator(ctx, channelName, username); err != nil {
		return &ModeratorSyncError{channelOpError{Op: "removing moderator", Channel: channelName, Username: username, Err: err}}
	}
	return nil
}

// AddToChannel grants both membership facets. Contributor must precede
// subscriber: a private channel rejects subscription from non-contributors.
func (svc *Service) AddToChannel(ctx context.Context, channelName, username string) error {
	if err := svc.addContributor(ctx, channelName, username); err != nil {
		return err
	}
	return svc.addSubscriber(ctx, channelName, username)
}

// RemoveFromChannel revokes both membership facets, subscriber first: on a
// private channel a user's subscription state cannot be reliably read once
// they are no longer a contributor, so it must be cleared while contributor
// access still holds. Keep this order.
func (svc *Service) RemoveFromChannel(ctx context.Context, channelName, username string) error {
	if err := svc.removeSubscriber(ctx, channelName, username); err != nil {
		return err
	}
	return svc.removeContributor(ctx, channelName, username)
}
