package main

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	queuesvc "github.com/umarmughal824/micromasters-sub002/services/queue"
)

type handler struct {
	discSvc *discussions.Service
	indexer search.Indexer
	logger  core.Logger
}

func (h handler) handleIndexUser(ctx context.Context, task *asynq.Task) error {
	var payload queuesvc.IndexUserPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return errors.Wrap(err, "decoding index-user payload")
	}
	return h.indexer.IndexUser(ctx, payload.UserID)
}

func (h handler) handleSyncDiscussionUser(ctx context.Context, task *asynq.Task) error {
	var payload queuesvc.SyncDiscussionUserPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return errors.Wrap(err, "decoding sync-discussion-user payload")
	}
	_, err := h.discSvc.EnsureDiscussionUserSynced(ctx, payload.UserID, payload.AllowEmailOptin)
	return err
}

func (h handler) handleSyncMemberships(ctx context.Context, task *asynq.Task) error {
	return h.discSvc.SyncChannelMemberships(ctx)
}
