package program

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/search"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("program not found")
	ErrAlreadyEnrolled = errors.New("user is already enrolled in this program")
	ErrNotEnrolled     = errors.New("user is not enrolled in this program")
)

type (
	Repository interface {
		CreateProgram(ctx context.Context, p Program, exec ...core.DBExecutor) (Program, error)
		GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (Program, error)

		CreateEnrollment(ctx context.Context, userID, programID int, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, userID, programID int, exec ...core.DBExecutor) error
		EnrollmentsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]Enrollment, error)
	}

	Service struct {
		repo      Repository
		userRepo  user.Repository
		searchSvc *search.Service
		indexer   search.Indexer
		mailSvc   core.EmailService
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	userRepo user.Repository,
	searchSvc *search.Service,
	indexer search.Indexer,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		searchSvc: searchSvc,
		indexer:   indexer,
		mailSvc:   mailSvc,
		logger:    logger,
	}
}

func (svc *Service) Create(ctx context.Context, p Program) (Program, error) {
	return svc.repo.CreateProgram(ctx, p)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Program, error) {
	return svc.repo.GetProgramByID(ctx, id)
}

// Enroll enrolls the user, reindexes them for search, re-percolates their
// channel memberships (rows are created lazily and marked dirty for the
// next sync batch) and sends the matched automatic emails.
func (svc *Service) Enroll(ctx context.Context, userID, programID int) (Enrollment, error) {
	prog, err := svc.repo.GetProgramByID(ctx, programID)
	if err != nil {
		return Enrollment{}, err
	}
	enr, err := svc.repo.CreateEnrollment(ctx, userID, programID)
	if err != nil {
		return Enrollment{}, err
	}

	svc.afterEligibilityChange(ctx, userID, &prog)
	return enr, nil
}

// Unenroll removes the enrollment and re-percolates so stale channel access
// gets revoked on the next sync batch.
func (svc *Service) Unenroll(ctx context.Context, userID, programID int) error {
	if err := svc.repo.DeleteEnrollment(ctx, userID, programID); err != nil {
		return err
	}
	svc.afterEligibilityChange(ctx, userID, nil)
	return nil
}

// afterEligibilityChange runs the side effects owed after the enrollment
// write committed: fire-and-forget indexing, membership re-percolation,
// automatic emails. Side-effect failures are logged, not returned; the
// enrollment itself already stands.
func (svc *Service) afterEligibilityChange(ctx context.Context, userID int, prog *Program) {
	if err := svc.indexer.IndexUser(ctx, userID); err != nil {
		svc.logger.Error(fmt.Sprintf("enqueueing index of user %d: %v", userID, err), err)
	}

	emailQueries, err := svc.searchSvc.UpdateMemberships(ctx, userID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("updating memberships for user %d: %v", userID, err), err)
		return
	}
	if prog != nil && len(emailQueries) > 0 {
		svc.sendAutomaticEmails(ctx, userID, *prog, emailQueries)
	}
}

func (svc *Service) sendAutomaticEmails(ctx context.Context, userID int, prog Program, queries []search.PercolateQuery) {
	usr, err := svc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("loading user %d for automatic email: %v", userID, err), err)
		return
	}

	msgs := make([]*core.EmailMessage, 0, len(queries))
	for range queries {
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      fmt.Sprintf("Welcome to %s", prog.Title),
			TemplateName: "automatic",
			TemplateData: map[string]interface{}{"Name": usr.Name, "ProgramTitle": prog.Title},
		})
	}
	svc.mailSvc.SendMessages(msgs...)
}
