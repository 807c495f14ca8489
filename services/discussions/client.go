package discussionsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/discussions"
)

// client talks to the discussion platform's REST API. Every request is
// authenticated with a short-lived JWT minted from the shared secret (see
// auth.go). Duplicate add/remove calls are idempotent on the platform side,
// so callers are free to retry.
type client struct {
	baseURL string
	secret  []byte
	http    *http.Client
	logger  core.Logger
}

var _ discussions.Client = (*client)(nil)

func NewClient(conf *core.Config, logger core.Logger) *client {
	return &client{
		baseURL: conf.Discussions.BaseURL,
		secret:  []byte(conf.Discussions.SecretKey),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (c *client) do(ctx context.Context, method, path, username string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.authToken(username)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	return res, nil
}

// checkResponse drains and closes the body and maps any non-2xx status to
// an error.
func (c *client) checkResponse(res *http.Response, op string) error {
	defer func() { _ = res.Body.Close() }()
	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if res.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("%s: status %d: %s", op, res.StatusCode, bytes.TrimSpace(data))
	}
	return nil
}

type userPayload struct {
	UID     int    `json:"uid"`
	Email   string `json:"email"`
	Profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"profile"`
}

func newUserPayload(email string, profile discussions.Profile) userPayload {
	p := userPayload{UID: profile.UID, Email: email}
	p.Profile.Name = profile.Name
	p.Profile.Email = profile.Email
	return p
}

func (c *client) CreateUser(ctx context.Context, email string, profile discussions.Profile) (string, error) {
	res, err := c.do(ctx, http.MethodPost, "/api/v0/users/", "", newUserPayload(email, profile))
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", errors.Errorf("creating user: status %d: %s", res.StatusCode, bytes.TrimSpace(data))
	}

	var created struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return "", errors.Wrap(err, "decoding created user")
	}
	if created.Username == "" {
		return "", errors.New("discussion platform returned no username")
	}
	return created.Username, nil
}

func (c *client) UpdateUser(ctx context.Context, username string, profile discussions.Profile) error {
	path := fmt.Sprintf("/api/v0/users/%s/", url.PathEscape(username))
	res, err := c.do(ctx, http.MethodPatch, path, username, newUserPayload(profile.Email, profile))
	if err != nil {
		return err
	}
	return c.checkResponse(res, "updating user")
}

func (c *client) channelOp(ctx context.Context, method, role, channelName, username string) error {
	var path string
	payload := map[string]string{}
	if method == http.MethodPost {
		path = fmt.Sprintf("/api/v0/channels/%s/%ss/", url.PathEscape(channelName), role)
		payload["username"] = username
	} else {
		path = fmt.Sprintf("/api/v0/channels/%s/%ss/%s/", url.PathEscape(channelName), role, url.PathEscape(username))
	}

	var body interface{}
	if method == http.MethodPost {
		body = payload
	}
	res, err := c.do(ctx, method, path, username, body)
	if err != nil {
		return err
	}
	return c.checkResponse(res, fmt.Sprintf("%s %s", method, role))
}

func (c *client) AddContributor(ctx context.Context, channelName, username string) error {
	return c.channelOp(ctx, http.MethodPost, "contributor", channelName, username)
}

func (c *client) RemoveContributor(ctx context.Context, channelName, username string) error {
	return c.channelOp(ctx, http.MethodDelete, "contributor", channelName, username)
}

func (c *client) AddSubscriber(ctx context.Context, channelName, username string) error {
	return c.channelOp(ctx, http.MethodPost, "subscriber", channelName, username)
}

func (c *client) RemoveSubscriber(ctx context.Context, channelName, username string) error {
	return c.channelOp(ctx, http.MethodDelete, "subscriber", channelName, username)
}

func (c *client) AddModerator(ctx context.Context, channelName, username string) error {
	return c.channelOp(ctx, http.MethodPost, "moderator", channelName, username)
}

func (c *client) RemoveModerator(ctx context.Context, channelName, username string) error {
	return c.channelOp(ctx, http.MethodDelete, "moderator", channelName, username)
}

func (c *client) CreateChannel(ctx context.Context, title, name, publicDescription, channelType string) error {
	payload := map[string]string{
		"title":              title,
		"name":               name,
		"public_description": publicDescription,
		"channel_type":       channelType,
	}
	res, err := c.do(ctx, http.MethodPost, "/api/v0/channels/", "", payload)
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusConflict {
		_ = res.Body.Close()
		return discussions.ErrChannelAlreadyExists
	}
	return c.checkResponse(res, "creating channel")
}
