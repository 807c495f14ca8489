package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

type userRow struct {
	ID               int       `db:"id"`
	Name             string    `db:"name"`
	Username         string    `db:"username"`
	Email            string    `db:"email"`
	IsActive         bool      `db:"is_active"`
	PasswordHash     []byte    `db:"password_hash"`
	ProfileUpdatedAt time.Time `db:"profile_updated_at"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:               r.ID,
		Name:             r.Name,
		Username:         r.Username,
		Email:            r.Email,
		IsActive:         r.IsActive,
		PasswordHash:     r.PasswordHash,
		ProfileUpdatedAt: r.ProfileUpdatedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type roleRow struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	ProgramID int       `db:"program_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r roleRow) toRole() user.Role {
	return user.Role{ID: r.ID, UserID: r.UserID, ProgramID: r.ProgramID, Role: r.Role, CreatedAt: r.CreatedAt}
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)

	var taken struct {
		Username bool `db:"username_taken"`
		Email    bool `db:"email_taken"`
	}
	err := exe.GetContext(ctx, &taken, `
		SELECT
			EXISTS (SELECT 1 FROM "user" WHERE username = $1) AS username_taken,
			EXISTS (SELECT 1 FROM "user" WHERE email = $2)    AS email_taken`,
		username, email)
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if taken.Username {
		return user.ErrUsernameExists
	}
	if taken.Email {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.exec, exec)

	var r userRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO "user" (name, username, email, is_active, password_hash, profile_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`,
		usr.Name, usr.Username, usr.Email, usr.IsActive, usr.PasswordHash,
		usr.ProfileUpdatedAt.UTC(), usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
	).StructScan(&r)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return r.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.exec, exec)

	var r userRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return r.toUser(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.exec, exec)

	var r userRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
	}
	return r.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := getExec(repo.exec, exec)

	var r userRow
	err := exe.QueryRowxContext(ctx, `
		UPDATE "user"
		SET name = $2, username = $3, email = $4, is_active = $5, password_hash = $6,
		    profile_updated_at = $7, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, usr.PasswordHash, usr.ProfileUpdatedAt.UTC(),
	).StructScan(&r)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return r.toUser(), nil
}

func (repo userRepository) GetRoleByUser(ctx context.Context, userID int, exec ...core.DBExecutor) (user.Role, error) {
	exe := getExec(repo.exec, exec)

	var r roleRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM role WHERE user_id = $1`, userID); err != nil {
		return user.Role{}, trapNoRowsErr(err, user.ErrRoleNotFound, "finding role by user")
	}
	return r.toRole(), nil
}

func (repo userRepository) CreateRole(ctx context.Context, role user.Role, exec ...core.DBExecutor) (user.Role, error) {
	exe := getExec(repo.exec, exec)

	var r roleRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO role (user_id, program_id, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING *`,
		role.UserID, role.ProgramID, role.Role, role.CreatedAt.UTC(),
	).StructScan(&r)
	if err != nil {
		return user.Role{}, errors.Wrap(err, "inserting role")
	}
	return r.toRole(), nil
}

func (repo userRepository) HasRole(ctx context.Context, userID, programID int, roles []string, exec ...core.DBExecutor) (bool, error) {
	exe := getExec(repo.exec, exec)

	var has bool
	err := exe.GetContext(ctx, &has, `
		SELECT EXISTS (
			SELECT 1 FROM role
			WHERE user_id = $1 AND program_id = $2 AND role = ANY ($3)
		)`,
		userID, programID, pq.Array(roles))
	if err != nil {
		return false, errors.Wrap(err, "checking role")
	}
	return has, nil
}
