package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/umarmughal824/micromasters-sub002/core"
)

// Program roles
const (
	RoleStaff      = "staff"
	RoleInstructor = "instructor"
)

var AllRoles = []string{RoleStaff, RoleInstructor}

// rolesWithForumPermission lists roles allowed to create and moderate
// discussion forums. Holders are managed through the moderator pipeline and
// are exempt from ordinary contributor/subscriber reconciliation.
var rolesWithForumPermission = []string{RoleStaff, RoleInstructor}

func RolesWithForumPermission() []string {
	roles := make([]string, len(rolesWithForumPermission))
	copy(roles, rolesWithForumPermission)
	return roles
}

func CanCreateForums(role string) bool {
	for _, r := range rolesWithForumPermission {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC

	// ProfileUpdatedAt is the last time the public profile changed; the
	// discussion-user sync compares it against DiscussionUser.LastSync.
	ProfileUpdatedAt time.Time `json:"profile_updated_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Role assigns a program role to a user. A user may hold at most one role
// system-wide; the service enforces this at write time.
type Role struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	ProgramID int       `json:"program_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"omitempty,min=6,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(ctx context.Context, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Username, nu.Email)
}

// NewRole contains information needed to assign a Role.
type NewRole struct {
	UserID    int    `json:"user_id" validate:"required"`
	ProgramID int    `json:"program_id" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=staff instructor"`
}

func (nr *NewRole) Validate() error { return core.Validate.Struct(nr) }
