package inmem

import (
	"context"

	"github.com/umarmughal824/micromasters-sub002/core"
	"github.com/umarmughal824/micromasters-sub002/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = repo.db.nextID()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetRoleByUser(ctx context.Context, userID int, exec ...core.DBExecutor) (user.Role, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.roles {
		if r.UserID == userID {
			return *r, nil
		}
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) CreateRole(ctx context.Context, r user.Role, exec ...core.DBExecutor) (user.Role, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = repo.db.nextID()
	repo.db.roles[r.ID] = &r
	return r, nil
}

func (repo *userRepository) HasRole(ctx context.Context, userID, programID int, roles []string, exec ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, r := range repo.db.roles {
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
