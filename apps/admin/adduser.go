package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nm2tech/classroom/core"
	"github.com/nm2tech/classroom/core/user"
)

// addUser updates or creates a user account.
func (cli *commandLine) addUser(uname, email, name, role, parentID, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, user.NewUser{
			Username: uname,
			Password: pwd,
			Role:     role,
			Email:    email,
			Name:     name,
			ParentID: parentID,
		})
		return err
	}

	_, err = cli.usrSvc.Update(ctx, usr.ID, user.UpdateUser{
		Email:    email,
		Name:     name,
		Password: pwd,
		ParentID: parentID,
	})
	return err
}
