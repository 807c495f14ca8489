package inmem

import (
	"context"
	"time"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/program"
)

type programRepository struct {
	db *DB
}

var _ program.Repository = (*programRepository)(nil) // interface compliance check

func NewProgramRepository(db *DB) program.Repository {
	return &programRepository{db: db}
}

func (repo *programRepository) CreateProgram(ctx context.Context, p program.Program, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = repo.db.nextID()
	p.CreatedAt = time.Now().UTC()
	repo.db.programs[p.ID] = &p
	return p, nil
}

func (repo *programRepository) GetProgramByID(ctx context.Context, id int, exec ...core.DBExecutor) (program.Program, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.programs[id]; ok {
		return *p, nil
	}
	return program.Program{}, program.ErrNotFound
}

func (repo *programRepository) CreateEnrollment(ctx context.Context, userID, programID int, exec ...core.DBExecutor) (program.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.ProgramID == programID {
			return program.Enrollment{}, program.ErrAlreadyEnrolled
		}
	}
	enr := program.Enrollment{
		ID:        repo.db.nextID(),
		UserID:    userID,
		ProgramID: programID,
		CreatedAt: time.Now().UTC(),
	}
	repo.db.enrollments[enr.ID] = &enr
	return enr, nil
}

func (repo *programRepository) DeleteEnrollment(ctx context.Context, userID, programID int, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for id, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.ProgramID == programID {
			delete(repo.db.enrollments, id)
			return nil
		}
	}
	return program.ErrNotEnrolled
}

func (repo *programRepository) EnrollmentsByUser(ctx context.Context, userID int, exec ...core.DBExecutor) ([]program.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var enrs []program.Enrollment
	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID {
			enrs = append(enrs, *enr)
		}
	}
	return enrs, nil
}
