package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/nm2tech/classroom/core"
)

// Roles. Exactly one role per user.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleParent  = "parent"
	RoleStudent = "student"
)

var AllRoles = []string{RoleAdmin, RoleTeacher, RoleParent, RoleStudent}

// Actions are the reachable view/action names gated per role.
const (
	ActionTeacherManagement = "teacher-management"
	ActionParentManagement  = "parent-management"
	ActionSystemInfo        = "system-info"
	ActionActivityLog       = "activity-log"

	ActionNewsletters = "newsletters"
	ActionEvents      = "events"
	ActionAssignments = "assignments"
	ActionStudents    = "students"
	ActionParents     = "parents"
	ActionReports     = "reports"

	ActionNewsletterView = "newsletter-view"
	ActionEventView      = "event-view"
	ActionAssignmentView = "assignment-view"
	ActionChildProgress  = "child-progress"
	ActionOwnAssignments = "own-assignments"
)

var teacherActions = []string{
	ActionNewsletters, ActionEvents, ActionAssignments,
	ActionStudents, ActionParents, ActionReports,
}

// roleActions is the static role gate. There is no row-level authorization
// beyond this mapping.
var roleActions = map[string][]string{
	RoleAdmin: append([]string{
		ActionTeacherManagement, ActionParentManagement,
		ActionSystemInfo, ActionActivityLog,
	}, teacherActions...),
	RoleTeacher: teacherActions,
	RoleParent: {
		ActionNewsletterView, ActionEventView,
		ActionAssignmentView, ActionChildProgress,
	},
	RoleStudent: {
		ActionOwnAssignments, ActionNewsletterView, ActionEventView,
	},
}

// CanAccess reports whether role may reach action.
func CanAccess(role, action string) bool {
	for _, a := range roleActions[role] {
		if a == action {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash []byte      `json:"-"`
	Role         string      `json:"role"`
	Email        string      `json:"email,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Name         string      `json:"name,omitempty"`
	ParentID     null.String `json:"parent_id,omitempty"` // student -> parent back-reference
	CreatedAt    time.Time   `json:"created_at"`          // UTC
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

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsParent() bool  { return u.Role == RoleParent }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,alphanum_"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=admin teacher parent student"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their original values.
type UpdateUser struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"omitempty,min=6"`
	ParentID string `json:"parent_id"`
}

func (uu *UpdateUser) Validate() error {
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Name = core.CleanString(uu.Name)
	return core.Validate.Struct(uu)
}

func fromRecord(rec core.Record) User {
	usr := User{
		ID:           rec.Str("id"),
		Username:     rec.Str("username"),
		PasswordHash: []byte(rec.Str("password")),
		Role:         rec.Str("role"),
		Email:        rec.Str("email"),
		Phone:        rec.Str("phone"),
		Name:         rec.Str("name"),
		CreatedAt:    rec.Time("created_at"),
	}
	if pid := rec.Str("parent_id"); pid != "" {
		usr.ParentID = null.StringFrom(pid)
	}
	return usr
}

func toRecord(usr User) core.Record {
	return core.Record{
		"id":         usr.ID,
		"username":   usr.Username,
		"password":   string(usr.PasswordHash), // bcrypt hash, never plaintext
		"role":       usr.Role,
		"email":      usr.Email,
		"phone":      usr.Phone,
		"name":       usr.Name,
		"parent_id":  usr.ParentID.Ptr(),
		"created_at": usr.CreatedAt,
	}
}
