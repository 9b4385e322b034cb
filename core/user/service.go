package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/activity"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed") // unknown username and wrong password are indistinguishable
)

type Service struct {
	store  core.Store
	actSvc *activity.Service
	logger core.Logger
}

func NewService(store core.Store, actSvc *activity.Service, logger core.Logger) *Service {
	return &Service{store: store, actSvc: actSvc, logger: logger}
}

func (svc *Service) CheckUniqueness(uname string) error {
	n, err := svc.store.Count(context.Background(), core.TableUsers, []core.Filter{core.Eq("username", uname)})
	if err != nil {
		return err
	}
	if n > 0 {
		return core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	usr := User{
		ID:        uuid.New().String(),
		Username:  nu.Username,
		Role:      nu.Role,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Name:      nu.Name,
		CreatedAt: time.Now().UTC(),
	}
	if nu.ParentID != "" {
		// soft invariant: parent_id should reference an existing parent user
		parent, err := svc.GetByID(ctx, nu.ParentID)
		if err != nil {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "parent_id", Error: "parent not found"})
		}
		if !parent.IsParent() {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "parent_id", Error: "referenced user is not a parent"})
		}
		usr.ParentID.SetValid(nu.ParentID)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	if _, err := svc.store.Insert(ctx, core.TableUsers, toRecord(usr)); err != nil {
		return User{}, err
	}
	return usr, nil
}

// Authenticate resolves a (username, password) pair to the stored user.
// A generic ErrAuthenticationFailed is returned for both unknown usernames
// and wrong passwords. A successful login appends an activity row;
// the login succeeds even if that logging fails.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string, meta activity.Meta) (User, error) {
	usr, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrAuthenticationFailed
		}
		return User{}, errors.Wrap(err, "finding user by username")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrAuthenticationFailed
	}

	svc.logActivity(ctx, usr, activity.TypeLogin, meta)
	return usr, nil
}

// Logout records the logout in the activity log, best-effort.
func (svc *Service) Logout(ctx context.Context, usr User, meta activity.Meta) {
	svc.logActivity(ctx, usr, activity.TypeLogout, meta)
}

func (svc *Service) logActivity(ctx context.Context, usr User, typ string, meta activity.Meta) {
	if err := svc.actSvc.Log(ctx, usr.ID, usr.Username, usr.Role, typ, meta); err != nil {
		svc.logger.Warn("recording "+typ+" activity", err)
	}
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.getOne(ctx, core.Eq("id", id))
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.getOne(ctx, core.Eq("username", core.CleanString(uname, true /* lower */)))
}

func (svc *Service) getOne(ctx context.Context, filter core.Filter) (User, error) {
	recs, err := svc.store.Select(ctx, core.TableUsers, []core.Filter{filter})
	if err != nil {
		return User{}, err
	}
	if len(recs) == 0 {
		return User{}, ErrNotFound
	}
	return fromRecord(recs[0]), nil
}

// QueryByRole returns users having the given role, newest first.
// An empty role returns all users.
func (svc *Service) QueryByRole(ctx context.Context, role string) ([]User, error) {
	var filters []core.Filter
	if role != "" {
		filters = append(filters, core.Eq("role", role))
	}
	recs, err := svc.store.Select(ctx, core.TableUsers, filters, core.DBOrdering{Field: "created_at"})
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, fromRecord(rec))
	}
	return users, nil
}

// Children returns the students linked to a parent via parent_id.
func (svc *Service) Children(ctx context.Context, parentID string) ([]User, error) {
	recs, err := svc.store.Select(ctx, core.TableUsers, []core.Filter{
		core.Eq("role", RoleStudent),
		core.Eq("parent_id", parentID),
	})
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, fromRecord(rec))
	}
	return users, nil
}

// ParentEmails returns the addresses newsletters are dispatched to.
func (svc *Service) ParentEmails(ctx context.Context) ([]string, error) {
	parents, err := svc.QueryByRole(ctx, RoleParent)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(parents))
	for _, p := range parents {
		if p.Email != "" {
			emails = append(emails, p.Email)
		}
	}
	return emails, nil
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	patch := core.Record{}
	if uu.Email != "" {
		patch["email"] = uu.Email
	}
	if uu.Phone != "" {
		patch["phone"] = uu.Phone
	}
	if uu.Name != "" {
		patch["name"] = uu.Name
	}
	if uu.ParentID != "" {
		patch["parent_id"] = uu.ParentID
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
		patch["password"] = string(usr.PasswordHash)
	}
	if len(patch) == 0 {
		return usr, nil
	}

	if _, err := svc.store.Update(ctx, core.TableUsers, patch, []core.Filter{core.Eq("id", id)}); err != nil {
		return User{}, err
	}
	return svc.GetByID(ctx, id)
}

// Delete hard-deletes a user by id. Deleting an absent user reports zero
// rows affected, not an error.
func (svc *Service) Delete(ctx context.Context, id string) (int, error) {
	return svc.store.Delete(ctx, core.TableUsers, []core.Filter{core.Eq("id", id)})
}

// EnsureDefaultUsers seeds the credential store on first run of an empty
// database: one teacher account plus demo parents.
func (svc *Service) EnsureDefaultUsers(ctx context.Context) error {
	n, err := svc.store.Count(ctx, core.TableUsers, nil)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	seeds := []NewUser{
		{Username: "mrs.simms", Password: "password123", Role: RoleTeacher, Email: "ksimms@washingtonchristian.org", Phone: "240-390-0429"},
		{Username: "parent1", Password: "password123", Role: RoleParent, Email: "parent1@email.com", Phone: "555-0001"},
		{Username: "parent2", Password: "password123", Role: RoleParent, Email: "parent2@email.com", Phone: "555-0002"},
		{Username: "parent3", Password: "password123", Role: RoleParent, Email: "parent3@email.com", Phone: "555-0003"},
	}
	for _, nu := range seeds {
		if _, err := svc.Create(ctx, nu); err != nil {
			return errors.Wrap(err, "seeding default users")
		}
	}
	return nil
}
