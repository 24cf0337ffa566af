package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mentora/core"
)

var (
	// errors
	ErrNotFound    = core.NewNotFoundError("user")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service interface {
		CheckUniqueness(email string, exclUsers ...User) error
		// Register creates a regular user (RoleUser) from the public sign-up form.
		Register(ctx context.Context, nu NewUser) (User, error)
		// Create creates a user with arbitrary roles; for admin tooling only.
		Create(ctx context.Context, nu NewUser, roles ...string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo         Repository
		mailSvc      core.EmailService
		appName      string
		resetTimeout time.Duration
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:         repo,
		mailSvc:      mailSvc,
		appName:      conf.AppName,
		resetTimeout: conf.PasswordResetTimeoutDelta,
	}
}

func (svc *service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	return svc.Create(ctx, nu, RoleUser)
}

func (svc *service) Create(ctx context.Context, nu NewUser, roles ...string) (User, error) {
	nu.Clean()
	now := core.NowFunc()
	usr := User{
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Email:       nu.Email,
		PhoneNumber: nu.PhoneNumber,
		HomeCountry: nu.HomeCountry,
		PrimaryGoal: nu.PrimaryGoal,
		IsActive:    true,
		Roles:       roles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, core.CleanString(id))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(core.NowFunc())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset emails a one-time code to the user owning `email`, if any.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	code, err := makeResetCode()
	if err != nil {
		return errors.Wrap(err, "generating reset code")
	}
	if err = usr.setResetCode(code, svc.resetTimeout); err != nil {
		return errors.Wrap(err, "setting reset code")
	}
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject: "Password reset",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour %s password reset code is %s. It expires in %s.\n\n"+
				"If you did not request a password reset, you can safely ignore this email.\n",
			usr.FirstName, svc.appName, code, svc.resetTimeout,
		),
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidCode := core.NewValidationError(errInvalidResetCode, core.FieldError{Field: "code", Error: "invalid value"})

	usr, err := svc.GetByEmail(ctx, data.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidCode
		}
		return err
	}
	if err = usr.verifyResetCode(data.Code); err != nil {
		return invalidCode
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.clearResetCode()
	usr.UpdatedAt = core.NowFunc()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
