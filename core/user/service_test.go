package user

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/activity"
	dummydb "github.com/nm2tech/classroom/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func setup(t *testing.T) (*Service, *activity.Service, *dummydb.Store) {
	t.Helper()
	db := dummydb.NewStore()
	actSvc := activity.NewService(db)
	return NewService(db, actSvc, nopLogger{}), actSvc, db
}

func createUser(t *testing.T, svc *Service, uname, pwd, role string, parentID ...string) User {
	t.Helper()
	nu := NewUser{Username: uname, Password: pwd, Role: role, Email: uname + "@email.com"}
	if len(parentID) > 0 {
		nu.ParentID = parentID[0]
	}
	usr, err := svc.Create(context.Background(), nu)
	if err != nil {
		t.Fatalf("createUser(%s): %v", uname, err)
	}
	return usr
}

func TestService_Create(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	usr := createUser(t, svc, "mrs.simms", "password123", RoleTeacher)
	if usr.ID == "" {
		t.Fatal("Create() returned empty ID")
	}
	if err := usr.CheckPassword("password123"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("wrong"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}

	// the stored row carries the hash, never the plaintext
	stored, err := svc.GetByUsername(ctx, "mrs.simms")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}
	if string(stored.PasswordHash) == "password123" {
		t.Error("password stored in plaintext")
	}

	t.Run("parent_id must reference a parent", func(t *testing.T) {
		teacher := usr
		_, err := svc.Create(ctx, NewUser{
			Username: "student1", Password: "password123",
			Role: RoleStudent, ParentID: teacher.ID,
		})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("Create() error = %v, want *core.ValidationError", err)
		}
	})
}

func TestService_Authenticate(t *testing.T) {
	svc, actSvc, _ := setup(t)
	ctx := context.Background()
	usr := createUser(t, svc, "mrs.simms", "password123", RoleTeacher)
	meta := activity.Meta{IPAddress: "127.0.0.1", UserAgent: "test"}

	tests := []struct {
		name    string
		uname   string
		pwd     string
		wantErr error
	}{
		{name: "unknown username", uname: "nobody", pwd: "password123", wantErr: ErrAuthenticationFailed},
		{name: "wrong password", uname: "mrs.simms", pwd: "nope", wantErr: ErrAuthenticationFailed},
		{name: "valid credentials", uname: "mrs.simms", pwd: "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.uname, tt.pwd, meta)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && got.ID != usr.ID {
				t.Errorf("Authenticate() = %v, want %v", got.ID, usr.ID)
			}
		})
	}

	// only the successful login left a trail
	acts, err := actSvc.Query(ctx, usr.ID)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(acts) != 1 {
		t.Fatalf("activity rows = %d, want 1", len(acts))
	}
	if acts[0].Type != activity.TypeLogin {
		t.Errorf("activity type = %q, want %q", acts[0].Type, activity.TypeLogin)
	}
}

// failingActivityStore rejects activity writes but behaves normally otherwise.
type failingActivityStore struct {
	*dummydb.Store
}

func (s failingActivityStore) Insert(ctx context.Context, table string, rec core.Record) (string, error) {
	if table == core.TableUserActivity {
		return "", core.NewStorageError("insert", table, errors.New("disk full"))
	}
	return s.Store.Insert(ctx, table, rec)
}

func TestService_AuthenticateSurvivesActivityFailure(t *testing.T) {
	db := failingActivityStore{dummydb.NewStore()}
	actSvc := activity.NewService(db)
	svc := NewService(db, actSvc, nopLogger{})
	ctx := context.Background()

	if _, err := svc.Create(ctx, NewUser{Username: "mrs.simms", Password: "password123", Role: RoleTeacher}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "mrs.simms", "password123", activity.Meta{}); err != nil {
		t.Errorf("Authenticate() failed on activity write error: %v", err)
	}
}

func TestService_Children(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	parent := createUser(t, svc, "parent1", "password123", RoleParent)
	other := createUser(t, svc, "parent2", "password123", RoleParent)
	createUser(t, svc, "student1", "password123", RoleStudent, parent.ID)
	createUser(t, svc, "student2", "password123", RoleStudent, parent.ID)
	createUser(t, svc, "student3", "password123", RoleStudent, other.ID)

	children, err := svc.Children(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Children() failed: %v", err)
	}
	if len(children) != 2 {
		t.Errorf("Children() returned %d rows, want 2", len(children))
	}
	for _, child := range children {
		if child.ParentID.String != parent.ID {
			t.Errorf("child %s linked to %q, want %q", child.Username, child.ParentID.String, parent.ID)
		}
	}
}

func TestService_ParentEmails(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	createUser(t, svc, "mrs.simms", "password123", RoleTeacher)
	createUser(t, svc, "parent1", "password123", RoleParent)
	if _, err := svc.Create(ctx, NewUser{Username: "parent2", Password: "password123", Role: RoleParent}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	emails, err := svc.ParentEmails(ctx)
	if err != nil {
		t.Fatalf("ParentEmails() failed: %v", err)
	}
	if len(emails) != 1 {
		t.Errorf("ParentEmails() returned %d addresses, want 1 (parents without email skipped)", len(emails))
	}
}

func TestService_UpdatePartial(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	usr := createUser(t, svc, "parent1", "password123", RoleParent)

	got, err := svc.Update(ctx, usr.ID, UpdateUser{Email: "new@email.com"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Email != "new@email.com" {
		t.Errorf("email = %q, want %q", got.Email, "new@email.com")
	}
	// untouched fields keep their values, including the password
	if err := got.CheckPassword("password123"); err != nil {
		t.Errorf("password changed by unrelated update: %v", err)
	}

	got, err = svc.Update(ctx, usr.ID, UpdateUser{Password: "password456"})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if err := got.CheckPassword("password456"); err != nil {
		t.Errorf("CheckPassword() after reset failed: %v", err)
	}
}

func TestService_EnsureDefaultUsers(t *testing.T) {
	svc, _, db := setup(t)
	ctx := context.Background()

	if err := svc.EnsureDefaultUsers(ctx); err != nil {
		t.Fatalf("EnsureDefaultUsers() failed: %v", err)
	}
	n, err := db.Count(ctx, core.TableUsers, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 4 {
		t.Fatalf("seeded %d users, want 4", n)
	}

	// idempotent on a non-empty table
	if err := svc.EnsureDefaultUsers(ctx); err != nil {
		t.Fatalf("EnsureDefaultUsers() (2nd run) failed: %v", err)
	}
	if n, _ = db.Count(ctx, core.TableUsers, nil); n != 4 {
		t.Errorf("2nd run grew the table to %d users", n)
	}

	if _, err := svc.Authenticate(ctx, "mrs.simms", "password123", activity.Meta{}); err != nil {
		t.Errorf("Authenticate() with seeded credentials failed: %v", err)
	}
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		role   string
		action string
		want   bool
	}{
		{RoleAdmin, ActionTeacherManagement, true},
		{RoleAdmin, ActionNewsletters, true},
		{RoleAdmin, ActionActivityLog, true},
		{RoleTeacher, ActionNewsletters, true},
		{RoleTeacher, ActionReports, true},
		{RoleTeacher, ActionTeacherManagement, false},
		{RoleTeacher, ActionActivityLog, false},
		{RoleParent, ActionNewsletterView, true},
		{RoleParent, ActionChildProgress, true},
		{RoleParent, ActionNewsletters, false},
		{RoleStudent, ActionOwnAssignments, true},
		{RoleStudent, ActionChildProgress, false},
		{"janitor", ActionNewsletterView, false},
	}
	for _, tt := range tests {
		if got := CanAccess(tt.role, tt.action); got != tt.want {
			t.Errorf("CanAccess(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
		}
	}
}
