package program_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/program"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
	"github.com/umarmughal824/micromasters-sub002/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type fakePercolator struct {
	matches []int
}

func (p *fakePercolator) MatchingQueryIDs(ctx context.Context, userID int) ([]int, error) {
	return p.matches, nil
}

// fakeIndexer records index requests.
type fakeIndexer struct {
	mu      sync.Mutex
	userIDs []int
}

func (idx *fakeIndexer) IndexUser(ctx context.Context, userID int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.userIDs = append(idx.userIDs, userID)
	return nil
}

// fakeMailService records outgoing messages without rendering them.
type fakeMailService struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (svc *fakeMailService) SendMessages(messages ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = append(svc.sent, messages...)
}

type fixture struct {
	svc        *program.Service
	searchRepo search.Repository
	percolator *fakePercolator
	indexer    *fakeIndexer
	mail       *fakeMailService
	usr        user.User
	prog       program.Program
}

func setup(t *testing.T) *fixture {
	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	userRepo := inmem.NewUserRepository(db)
	searchRepo := inmem.NewSearchRepository(db)
	progRepo := inmem.NewProgramRepository(db)

	percolator := &fakePercolator{}
	indexer := &fakeIndexer{}
	mailSvc := &fakeMailService{}
	searchSvc := search.NewService(searchRepo, percolator, nopLogger{})
	svc := program.NewService(progRepo, userRepo, searchSvc, indexer, mailSvc, nopLogger{})

	ctx := context.Background()
	usr, err := userRepo.CreateUser(ctx, user.User{Name: "Jane", Email: "jane@test.test", IsActive: true})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	prog, err := svc.Create(ctx, program.Program{Title: "Data Science", IsLive: true})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	return &fixture{
		svc:        svc,
		searchRepo: searchRepo,
		percolator: percolator,
		indexer:    indexer,
		mail:       mailSvc,
		usr:        usr,
		prog:       prog,
	}
}

func TestService_Enroll(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	chQ, err := fix.searchRepo.CreateQuery(ctx, search.PercolateQuery{SourceType: search.SourceTypeChannel})
	assert.NoError(t, err)
	emailQ, err := fix.searchRepo.CreateQuery(ctx, search.PercolateQuery{SourceType: search.SourceTypeAutomaticEmail})
	assert.NoError(t, err)
	fix.percolator.matches = []int{chQ.ID, emailQ.ID}

	enr, err := fix.svc.Enroll(ctx, fix.usr.ID, fix.prog.ID)
	assert.NoError(t, err)
	assert.NotZero(t, enr.ID)

	// membership row created lazily and flagged for the next sync batch
	ms, err := fix.searchRepo.MembershipsByUser(ctx, fix.usr.ID)
	assert.NoError(t, err)
	if assert.Len(t, ms, 1) {
		assert.Equal(t, chQ.ID, ms[0].QueryID)
		assert.True(t, ms[0].IsMember)
		assert.True(t, ms[0].NeedsUpdate)
	}

	assert.Equal(t, []int{fix.usr.ID}, fix.indexer.userIDs)

	if assert.Len(t, fix.mail.sent, 1) {
		msg := fix.mail.sent[0]
		assert.Equal(t, "automatic", msg.TemplateName)
		assert.Equal(t, "jane@test.test", msg.To[0].Address)
	}

	t.Run("double enrollment rejected", func(t *testing.T) {
		_, err := fix.svc.Enroll(ctx, fix.usr.ID, fix.prog.ID)
		assert.Equal(t, program.ErrAlreadyEnrolled, err)
	})

	t.Run("unknown program", func(t *testing.T) {
		_, err := fix.svc.Enroll(ctx, fix.usr.ID, 999)
		assert.Equal(t, program.ErrNotFound, err)
	})
}

func TestService_Unenroll(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	chQ, err := fix.searchRepo.CreateQuery(ctx, search.PercolateQuery{SourceType: search.SourceTypeChannel})
	assert.NoError(t, err)

	fix.percolator.matches = []int{chQ.ID}
	_, err = fix.svc.Enroll(ctx, fix.usr.ID, fix.prog.ID)
	assert.NoError(t, err)

	// eligibility gone; membership gets revoked, no email goes out
	fix.percolator.matches = nil
	mailsBefore := len(fix.mail.sent)

	assert.NoError(t, fix.svc.Unenroll(ctx, fix.usr.ID, fix.prog.ID))

	ms, err := fix.searchRepo.MembershipsByUser(ctx, fix.usr.ID)
	assert.NoError(t, err)
	if assert.Len(t, ms, 1) {
		assert.False(t, ms[0].IsMember)
		assert.True(t, ms[0].NeedsUpdate)
	}
	assert.Len(t, fix.mail.sent, mailsBefore)

	t.Run("not enrolled", func(t *testing.T) {
		assert.Equal(t, program.ErrNotEnrolled, fix.svc.Unenroll(ctx, fix.usr.ID, fix.prog.ID))
	})
}
