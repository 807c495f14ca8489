package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/program"
)

type programRow struct {
	ID          int       `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	IsLive      bool      `db:"is_live"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r programRow) toProgram() program.Program {
	return program.Program{ID: r.ID, Title: r.Title, Description: r.Description, IsLive: r.IsLive, CreatedAt: r.CreatedAt}
}

type enrollmentRow struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	ProgramID int       `db:"program_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r enrollmentRow) toEnrollment() program.Enrollment {
	return program.Enrollment{ID: r.ID, UserID: r.UserID, ProgramID: r.ProgramID, CreatedAt: r.CreatedAt}
}

type programRepository struct {
	exec core.DBExecutor
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(exec core.DBExecutor) *programRepository {
	return &programRepository{exec: exec}
}

func (repo programRepository) CreateProgram(ctx context.Context, p program.Program, exec ...core.DBExecutor) (program.Program, error) {
	exe := getExec(repo.exec, exec)

	var r programRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO program (title, description, is_live)
		VALUES ($1, $2, $3)
		RETURNING *`,
		p.Title, p.Description, p.IsLive,
	).StructScan(&r)
	if err != nil {
		return program.Program{}, errors.Wrap(err, "inserting program")
	}
	return r.toProgram(), nil
}

func (repo programRepository) GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (program.Program, error) {
	exe := getExec(repo.exec, exec)

	var r programRow
	if err := exe.GetContext(ctx, &r, `SELECT * FROM program WHERE id = $1`, id); err != nil {
		return program.Program{}, trapNoRowsErr(err, program.ErrNotFound, "finding program")
	}
	return r.toProgram(), nil
}

func (repo programRepository) CreateEnrollment(ctx context.Context, userID, programID int, exec ...core.DBExecutor) (program.Enrollment, error) {
	exe := getExec(repo.exec, exec)

	var r enrollmentRow
	err := exe.QueryRowxContext(ctx, `
		INSERT INTO program_enrollment (user_id, program_id)
		VALUES ($1, $2)
		RETURNING *`,
		userID, programID,
	).StructScan(&r)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return program.Enrollment{}, program.ErrAlreadyEnrolled
		}
		return program.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return r.toEnrollment(), nil
}

func (repo programRepository) DeleteEnrollment(ctx context.Context, userID, programID int, exec ...core.DBExecutor) error {
	exe := getExec(repo.exec, exec)

	res, err := exe.ExecContext(ctx, `
		DELETE FROM program_enrollment WHERE user_id = $1 AND program_id = $2`, userID, programID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return program.ErrNotEnrolled
	}
	return nil
}

func (repo programRepository) EnrollmentsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]program.Enrollment, error) {
	exe := getExec(repo.exec, exec)

	var rows []enrollmentRow
	err := exe.SelectContext(ctx, &rows, `
		SELECT * FROM program_enrollment WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]program.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.toEnrollment())
	}
	return enrollments, nil
}
