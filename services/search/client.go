package searchsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
)

// Client talks to the search service: percolation (which saved queries
// match a user) and document indexing. Both are narrow calls against an
// otherwise opaque engine.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ search.Percolator = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return &Client{
		baseURL: conf.Search.URL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "POST %s", path)
	}
	return res, nil
}

// MatchingQueryIDs percolates the user's current document against all saved
// queries and returns the matching query ids.
func (c *Client) MatchingQueryIDs(ctx context.Context, userID int) ([]int, error) {
	res, err := c.post(ctx, "/percolate/", map[string]int{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, errors.Errorf("percolating user %d: status %d: %s", userID, res.StatusCode, bytes.TrimSpace(data))
	}

	var result struct {
		QueryIDs []int `json:"query_ids"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decoding percolate response")
	}
	return result.QueryIDs, nil
}

// IndexUser reindexes the user's document. The worker invokes this when it
// consumes an index task off the queue.
func (c *Client) IndexUser(ctx context.Context, userID int) error {
	res, err := c.post(ctx, "/index/users/", map[string]int{"user_id": userID})
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return errors.Errorf("indexing user %d: status %d: %s", userID, res.StatusCode, bytes.TrimSpace(data))
	}
	return nil
}
