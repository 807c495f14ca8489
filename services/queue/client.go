package queuesvc

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

// Task types consumed by the worker app.
const (
	TaskIndexUser          = "search:index_user"
	TaskSyncDiscussionUser = "discussions:sync_user"
	TaskSyncMemberships    = "discussions:sync_memberships"
)

type (
	IndexUserPayload struct {
		UserID int `json:"user_id"`
	}

	SyncDiscussionUserPayload struct {
		UserID          int  `json:"user_id"`
		AllowEmailOptin bool `json:"allow_email_optin"`
	}
)

// Client enqueues background tasks. Callers enqueue after committing the
// write that changed eligibility; the worker consumes the queue.
type Client struct {
	client *asynq.Client
}

var _ search.Indexer = (*Client)(nil)

func NewClient(conf *core.Config) (*Client, error) {
	opt, err := asynq.ParseRedisURI(conf.Redis.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// IndexUser enqueues a fire-and-forget search index of the user.
func (c *Client) IndexUser(ctx context.Context, userID int) error {
	return c.enqueue(ctx, TaskIndexUser, IndexUserPayload{UserID: userID})
}

// SyncDiscussionUser enqueues an ad hoc discussion profile sync.
func (c *Client) SyncDiscussionUser(ctx context.Context, userID int, allowEmailOptin bool) error {
	return c.enqueue(ctx, TaskSyncDiscussionUser, SyncDiscussionUserPayload{UserID: userID, AllowEmailOptin: allowEmailOptin})
}

// SyncMemberships enqueues an ad hoc membership sync batch.
func (c *Client) SyncMemberships(ctx context.Context) error {
	return c.enqueue(ctx, TaskSyncMemberships, nil)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return errors.Wrapf(err, "encoding %s payload", taskType)
		}
	}
	if _, err := c.client.EnqueueContext(ctx, asynq.NewTask(taskType, data)); err != nil {
		return errors.Wrapf(err, "enqueueing %s", taskType)
	}
	return nil
}

func (c *Client) Close() error { return c.client.Close() }
