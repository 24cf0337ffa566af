package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/user"
)

// addUser creates a user, or updates the roles and password of an existing one. The user is (re)activated.
func (cli *commandLine) addUser(email, firstName, lastName, pwd string, isAdmin, isMentor bool) error {
	ctx := context.Background()
	roles := []string{user.RoleUser}
	if isAdmin {
		roles = append(roles, user.RoleAdmin)
	}
	if isMentor {
		roles = append(roles, user.RoleMentor)
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		nu := user.NewUser{
			FirstName:       firstName,
			LastName:        lastName,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			AgreeToTerms:    true,
		}
		if err = nu.Validate(cli.validate, cli.usrSvc); err != nil {
			return err
		}
		usr, err = cli.usrSvc.Create(ctx, nu, roles...)
		if err != nil {
			return errors.Wrap(err, "creating user")
		}
		_, _ = fmt.Fprintf(cli.out, "created user %s\n", usr.Email)
		return nil
	}

	if err = user.ValidatePassword(pwd, usr.FirstName, usr.LastName, usr.Email); err != nil {
		return err
	}
	usr.Roles = roles
	usr.IsActive = true
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc()
	if _, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	_, _ = fmt.Fprintf(cli.out, "updated user %s\n", usr.Email)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = user.ValidatePassword(pwd, usr.FirstName, usr.LastName, usr.Email); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
