package discussions

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

// memStore is a map-backed stand-in for the repository layer, shared by the
// sync tests. It implements Repository, user.Repository and search.Repository.
type memStore struct {
	stubExec

	mu sync.Mutex
	pk int

	users           map[int]user.User
	roles           []user.Role
	queries         map[int]search.PercolateQuery
	memberships     map[int]*search.Membership
	channels        []*Channel
	discussionUsers map[int]*DiscussionUser // by user id
}

func newMemStore() *memStore {
	return &memStore{
		users:           make(map[int]user.User),
		queries:         make(map[int]search.PercolateQuery),
		memberships:     make(map[int]*search.Membership),
		discussionUsers: make(map[int]*DiscussionUser),
	}
}

func (s *memStore) nextID() int {
	s.pk++
	return s.pk
}

// seeding helpers

func (s *memStore) addUser(name, email string, active bool, profileUpdatedAt time.Time) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	usr := user.User{
		ID:               s.nextID(),
		Name:             name,
		Username:         name,
		Email:            email,
		IsActive:         active,
		ProfileUpdatedAt: profileUpdatedAt,
	}
	s.users[usr.ID] = usr
	return usr
}

func (s *memStore) addRole(userID, programID int, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = append(s.roles, user.Role{ID: s.nextID(), UserID: userID, ProgramID: programID, Role: role})
}

func (s *memStore) addQuery(sourceType string) search.PercolateQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := search.PercolateQuery{ID: s.nextID(), SourceType: sourceType}
	s.queries[q.ID] = q
	return q
}

func (s *memStore) addChannel(name string, queryID, programID int) Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := Channel{
		ID:          s.nextID(),
		Name:        name,
		Title:       name,
		ChannelType: ChannelTypePrivate,
		QueryID:     null.IntFrom(queryID),
		ProgramID:   programID,
	}
	s.channels = append(s.channels, &ch)
	return ch
}

func (s *memStore) addMembership(userID, queryID int, isMember, needsUpdate bool, updatedAt time.Time) search.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := search.Membership{
		ID:          s.nextID(),
		UserID:      userID,
		QueryID:     queryID,
		IsMember:    isMember,
		NeedsUpdate: needsUpdate,
		UpdatedAt:   updatedAt,
	}
	s.memberships[m.ID] = &m
	return m
}

func (s *memStore) addDiscussionUser(userID int, username string, lastSync time.Time) DiscussionUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	du := DiscussionUser{
		ID:       s.nextID(),
		UserID:   userID,
		Username: null.StringFrom(username),
		LastSync: null.TimeFrom(lastSync),
	}
	s.discussionUsers[userID] = &du
	return du
}

func (s *memStore) membership(id int) search.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.memberships[id]
}

func (s *memStore) discussionUser(userID int) DiscussionUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if du, ok := s.discussionUsers[userID]; ok {
		return *du
	}
	return DiscussionUser{}
}

// Repository

var _ Repository = (*memStore)(nil)

func (s *memStore) CreateChannel(ctx context.Context, ch Channel, exec ...core.DBExecutor) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch.ID = s.nextID()
	s.channels = append(s.channels, &ch)
	return ch, nil
}

func (s *memStore) GetChannelByName(ctx context.Context, name string, exec ...core.DBExecutor) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if ch.Name == name {
			return *ch, nil
		}
	}
	return Channel{}, ErrChannelNotFound
}

func (s *memStore) FirstChannelForQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) (Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if ch.QueryID.Valid && ch.QueryID.Int == queryID {
			return *ch, nil
		}
	}
	return Channel{}, ErrChannelNotFound
}

func (s *memStore) GetDiscussionUser(ctx context.Context, userID int, exec ...core.DBExecutor) (DiscussionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if du, ok := s.discussionUsers[userID]; ok {
		return *du, nil
	}
	return DiscussionUser{}, ErrDiscussionUserNotFound
}

func (s *memStore) GetOrCreateDiscussionUserForUpdate(ctx context.Context, userID int, exec core.DBExecutor) (DiscussionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if du, ok := s.discussionUsers[userID]; ok {
		return *du, nil
	}
	du := &DiscussionUser{ID: s.nextID(), UserID: userID}
	s.discussionUsers[userID] = du
	return *du, nil
}

func (s *memStore) UpdateDiscussionUser(ctx context.Context, du DiscussionUser, exec ...core.DBExecutor) (DiscussionUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discussionUsers[du.UserID] = &du
	return du, nil
}

func (s *memStore) GetMembershipForSync(ctx context.Context, membershipID int, exec core.DBExecutor) (search.MembershipSyncRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipID]
	if !ok {
		return search.MembershipSyncRow{}, search.ErrMembershipNotFound
	}
	q := s.queries[m.QueryID]
	return search.MembershipSyncRow{
		MembershipID: m.ID,
		UserID:       m.UserID,
		IsMember:     m.IsMember,
		QueryID:      m.QueryID,
		SourceType:   q.SourceType,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

func (s *memStore) MarkMembershipSynced(ctx context.Context, membershipID int, exec ...core.DBExecutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipID]
	if !ok {
		return search.ErrMembershipNotFound
	}
	m.NeedsUpdate = false
	return nil
}

// user.Repository

var _ user.Repository = (*memStore)(nil)

func (s *memStore) CheckUsernameUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	return nil
}

func (s *memStore) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	usr.ID = s.nextID()
	s.users[usr.ID] = usr
	return usr, nil
}

func (s *memStore) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if usr, ok := s.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, usr := range s.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (s *memStore) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[usr.ID] = usr
	return usr, nil
}

func (s *memStore) GetRoleByUser(ctx context.Context, userID int, exec ...core.DBExecutor) (user.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.UserID == userID {
			return r, nil
		}
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (s *memStore) CreateRole(ctx context.Context, r user.Role, exec ...core.DBExecutor) (user.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID()
	s.roles = append(s.roles, r)
	return r, nil
}

func (s *memStore) HasRole(ctx context.Context, userID, programID int, roles []string, exec ...core.DBExecutor) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.UserID != userID || r.ProgramID != programID {
			continue
		}
		for _, name := range roles {
			if r.Role == name {
				return true, nil
			}
		}
	}
	return false, nil
}

// search.Repository

var _ search.Repository = (*memStore)(nil)

func (s *memStore) CreateQuery(ctx context.Context, q search.PercolateQuery, exec ...core.DBExecutor) (search.PercolateQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.nextID()
	s.queries[q.ID] = q
	return q, nil
}

func (s *memStore) GetQueryByID(ctx context.Context, id int, exec ...core.DBExecutor) (search.PercolateQuery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.queries[id]; ok {
		return q, nil
	}
	return search.PercolateQuery{}, search.ErrQueryNotFound
}

func (s *memStore) SoftDeleteQuery(ctx context.Context, queryID int, exec ...core.DBExecutor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queries[queryID]
	if !ok {
		return search.ErrQueryNotFound
	}
	q.IsDeleted = true
	s.queries[queryID] = q
	for _, m := range s.memberships {
		if m.QueryID == queryID {
			m.IsMember = false
			m.NeedsUpdate = true
		}
	}
	return nil
}

func (s *memStore) MembershipsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]search.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ms []search.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			ms = append(ms, *m)
		}
	}
	return ms, nil
}

func (s *memStore) UpsertMembership(ctx context.Context, userID, queryID int, isMember bool, exec ...core.DBExecutor) (search.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.QueryID == queryID {
			if m.IsMember != isMember {
				m.IsMember = isMember
				m.NeedsUpdate = true
			}
			return *m, nil
		}
	}
	m := search.Membership{ID: s.nextID(), UserID: userID, QueryID: queryID, IsMember: isMember, NeedsUpdate: true}
	s.memberships[m.ID] = &m
	return m, nil
}

func (s *memStore) MarkMembershipsNeedingUpdate(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, m := range s.memberships {
		if q, ok := s.queries[m.QueryID]; ok && q.SourceType == search.SourceTypeChannel {
			m.NeedsUpdate = true
			n++
		}
	}
	return n, nil
}

func (s *memStore) MembershipIDsNeedingSync(ctx context.Context, exec ...core.DBExecutor) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stale []*search.Membership
	for _, m := range s.memberships {
		if !m.NeedsUpdate {
			continue
		}
		if q, ok := s.queries[m.QueryID]; !ok || q.SourceType != search.SourceTypeChannel {
			continue
		}
		if usr, ok := s.users[m.UserID]; !ok || !usr.IsActive {
			continue
		}
		stale = append(stale, m)
	}
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].IsMember != stale[j].IsMember {
			return stale[i].IsMember
		}
		return stale[i].UpdatedAt.After(stale[j].UpdatedAt)
	})
	ids := make([]int, 0, len(stale))
	for _, m := range stale {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// core.DB

var _ core.DB = (*memStore)(nil)

func (s *memStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return &memTx{}, nil
}

type memTx struct {
	stubExec
}

func (*memTx) Commit() error   { return nil }
func (*memTx) Rollback() error { return nil }

type stubExec struct{}

func (stubExec) DriverName() string     { return "memstore" }
func (stubExec) Rebind(q string) string { return q }
func (stubExec) BindNamed(q string, arg interface{}) (string, []interface{}, error) {
	return q, nil, nil
}
func (stubExec) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (stubExec) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, nil
}
func (stubExec) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return nil
}
func (stubExec) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (stubExec) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}
func (stubExec) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

// fakeClient records platform calls in order and can fail selected ops.
type fakeClient struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error // keyed "op:username"
}

var _ Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{fail: make(map[string]error)}
}

func (c *fakeClient) failOn(op, username string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[op+":"+username] = err
}

func (c *fakeClient) record(op, channelName, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.fail[op+":"+username]; ok {
		return err
	}
	c.calls = append(c.calls, fmt.Sprintf("%s:%s:%s", op, channelName, username))
	return nil
}

func (c *fakeClient) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	calls := make([]string, len(c.calls))
	copy(calls, c.calls)
	return calls
}

func (c *fakeClient) CreateUser(ctx context.Context, email string, profile Profile) (string, error) {
	username := fmt.Sprintf("learner_%d", profile.UID)
	if err := c.record("create_user", "", username); err != nil {
		return "", err
	}
	return username, nil
}

func (c *fakeClient) UpdateUser(ctx context.Context, username string, profile Profile) error {
	return c.record("update_user", "", username)
}

func (c *fakeClient) AddContributor(ctx context.Context, channelName, username string) error {
	return c.record("add_contributor", channelName, username)
}

func (c *fakeClient) RemoveContributor(ctx context.Context, channelName, username string) error {
	return c.record("remove_contributor", channelName, username)
}

func (c *fakeClient) AddSubscriber(ctx context.Context, channelName, username string) error {
	return c.record("add_subscriber", channelName, username)
}

func (c *fakeClient) RemoveSubscriber(ctx context.Context, channelName, username string) error {
	return c.record("remove_subscriber", channelName, username)
}

func (c *fakeClient) AddModerator(ctx context.Context, channelName, username string) error {
	return c.record("add_moderator", channelName, username)
}

func (c *fakeClient) RemoveModerator(ctx context.Context, channelName, username string) error {
	return c.record("remove_moderator", channelName, username)
}

func (c *fakeClient) CreateChannel(ctx context.Context, title, name, publicDescription, channelType string) error {
	return c.record("create_channel", name, "")
}

// fakeLock hands the lock out unless told otherwise.
type fakeLock struct {
	mu       sync.Mutex
	held     bool // simulate another holder
	acquires []string
	releases []string
}

var _ core.Lock = (*fakeLock)(nil)

func (l *fakeLock) Acquire(ctx context.Context, name string, expiresAt time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return false, nil
	}
	l.acquires = append(l.acquires, name)
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases = append(l.releases, name)
	return nil
}

type nopLogger struct{}

var _ core.Logger = (*nopLogger)(nil)

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func newTestConfig() *core.Config {
	conf := &core.Config{TestMode: true}
	conf.Discussions.SyncWindow = time.Minute
	conf.Discussions.LockTTL = 2 * time.Minute
	conf.Features.DiscussionSync = true
	return conf
}

func newTestService(store *memStore, client *fakeClient, lock *fakeLock) *Service {
	return NewService(store, store, store, store, client, lock, nopLogger{}, newTestConfig())
}
