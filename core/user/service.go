package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umarmughal824/micromasters-sub002/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)

		// roles
		GetRoleByUser(ctx context.Context, userID int, exec ...core.DBExecutor) (Role, error)
		CreateRole(ctx context.Context, r Role, exec ...core.DBExecutor) (Role, error)
		// HasRole reports whether the user holds one of roles for the program.
		HasRole(ctx context.Context, userID, programID int, roles []string, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(ctx, svc); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:             nu.Name,
		Username:         nu.Username,
		Email:            nu.Email,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
		ProfileUpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// AssignRole gives the user a program role. A user may hold at most one role
// system-wide: assigning a second distinct role fails with a validation
// error; re-assigning the same (program, role) pair returns the existing row.
func (svc *Service) AssignRole(ctx context.Context, nr NewRole) (Role, error) {
	if err := nr.Validate(); err != nil {
		return Role{}, err
	}

	existing, err := svc.repo.GetRoleByUser(ctx, nr.UserID)
	switch err {
	case nil:
		if existing.ProgramID == nr.ProgramID && existing.Role == nr.Role {
			return existing, nil
		}
		verr := fmt.Errorf("user %d already holds the %q role; users may only have one role", nr.UserID, existing.Role)
		return Role{}, core.NewValidationError(verr, core.FieldError{Field: "role", Error: verr.Error()})
	case ErrRoleNotFound:
		// fallthrough to create
	default:
		return Role{}, err
	}

	return svc.repo.CreateRole(ctx, Role{
		UserID:    nr.UserID,
		ProgramID: nr.ProgramID,
		Role:      nr.Role,
		CreatedAt: time.Now().UTC(),
	})
}

// HasForumPermission reports whether the user holds a forum-creation role
// for the program. The membership reconciler uses this to keep moderators
// out of the subscriber pipeline.
func (svc *Service) HasForumPermission(ctx context.Context, userID, programID int) (bool, error) {
	return svc.repo.HasRole(ctx, userID, programID, rolesWithForumPermission)
}
