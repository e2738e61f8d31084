package user

import (
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/nickiconcept/E-Result-Management-System/core"
)

// Roles
const (
	RoleAdmin      = "ADMIN"
	RolePrincipal  = "PRINCIPAL"
	RoleFormMaster = "FORM_MASTER"
	RoleTeacher    = "TEACHER"
	RoleParent     = "PARENT"
)

// Statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

var (
	StaffRoles = []string{RoleAdmin, RolePrincipal, RoleFormMaster, RoleTeacher}
	AllRoles   = append(append([]string{}, StaffRoles...), RoleParent)

	rolePriorities = map[string]int{
		RoleAdmin:      50,
		RolePrincipal:  40,
		RoleFormMaster: 30,
		RoleTeacher:    20,
		RoleParent:     10,
	}

	Roles = []Role{
		{Name: "Parent", Value: RoleParent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Form Master", Value: RoleFormMaster},
		{Name: "Principal", Value: RolePrincipal},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func IsStaffRole(role string) bool {
	for _, r := range StaffRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
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

func (u User) IsSuspended() bool {
	return u.Status == StatusSuspended
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,userrole"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}

// SetPassword is the input of a password change.
type SetPassword struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (sp *SetPassword) Validate(validate *validator.Validate) error {
	sp.Email = core.CleanString(sp.Email, true /* lower */)
	return validate.Struct(sp)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"role"`
	Status string   `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

// Match is the filter of backends that scan users in Go.
func (qf QueryFilter) Match(usr User) bool {
	if search := strings.ToLower(qf.Search); search != "" &&
		!strings.Contains(strings.ToLower(usr.Name), search) &&
		!strings.Contains(strings.ToLower(usr.Email), search) {
		return false
	}
	if qf.Status != "" && usr.Status != qf.Status {
		return false
	}
	if len(qf.Roles) == 0 {
		return true
	}
	for _, r := range qf.Roles {
		if r == usr.Role {
			return true
		}
	}
	return false
}

// SortUsers orders users newest first, then by email.
func SortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Email < users[j].Email
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}
