package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/user"
)

const userColumns = `id, first_name, last_name, email, phone_number, home_country, primary_goal, is_active, roles,
	password_hash, reset_code_hash, reset_code_expires, created_at, updated_at, last_login`

type userRow struct {
	ID               string         `db:"id"`
	FirstName        string         `db:"first_name"`
	LastName         string         `db:"last_name"`
	Email            string         `db:"email"`
	PhoneNumber      string         `db:"phone_number"`
	HomeCountry      string         `db:"home_country"`
	PrimaryGoal      string         `db:"primary_goal"`
	IsActive         bool           `db:"is_active"`
	Roles            types.JSONText `db:"roles"`
	PasswordHash     string         `db:"password_hash"`
	ResetCodeHash    string         `db:"reset_code_hash"`
	ResetCodeExpires null.Time      `db:"reset_code_expires"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	LastLogin        null.Time      `db:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo userRepository) unrow(r userRow) (user.User, error) {
	usr := user.User{
		ID:               r.ID,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		PhoneNumber:      r.PhoneNumber,
		HomeCountry:      r.HomeCountry,
		PrimaryGoal:      r.PrimaryGoal,
		IsActive:         r.IsActive,
		Roles:            []string{},
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
		LastLogin:        r.LastLogin,
		ResetCodeExpires: r.ResetCodeExpires,
	}
	if r.PasswordHash != "" {
		usr.PasswordHash = []byte(r.PasswordHash)
	}
	if r.ResetCodeHash != "" {
		usr.ResetCodeHash = []byte(r.ResetCodeHash)
	}
	if err := scanJSON(r.Roles, &usr.Roles); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

// trapNoRowsErr maps "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := "SELECT COUNT(*) FROM users WHERE email = ?"
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		marks := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			marks = append(marks, "?")
			args = append(args, u.ID)
		}
		q += " AND id NOT IN (" + strings.Join(marks, ", ") + ")"
	}

	var count int
	if err := repo.exec.GetContext(ctx, &count, repo.exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	roles, err := jsonColumn(usr.Roles)
	if err != nil {
		return user.User{}, err
	}
	usr.ID = uuid.New().String()

	q := repo.exec.Rebind(`INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = repo.exec.ExecContext(
		ctx, q,
		usr.ID, usr.FirstName, usr.LastName, usr.Email, usr.PhoneNumber, usr.HomeCountry, usr.PrimaryGoal,
		usr.IsActive, roles, string(usr.PasswordHash), string(usr.ResetCodeHash), usr.ResetCodeExpires,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), usr.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var r userRow
	q := repo.exec.Rebind("SELECT " + userColumns + " FROM users WHERE " + where + " = ?")
	if err := repo.exec.GetContext(ctx, &r, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by "+where)
	}
	return repo.unrow(r)
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email", email)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	roles, err := jsonColumn(usr.Roles)
	if err != nil {
		return user.User{}, err
	}

	q := repo.exec.Rebind(`UPDATE users SET
		first_name = ?, last_name = ?, email = ?, phone_number = ?, home_country = ?, primary_goal = ?,
		is_active = ?, roles = ?, password_hash = ?, reset_code_hash = ?, reset_code_expires = ?,
		updated_at = ?, last_login = ?
		WHERE id = ?`)
	res, err := repo.exec.ExecContext(
		ctx, q,
		usr.FirstName, usr.LastName, usr.Email, usr.PhoneNumber, usr.HomeCountry, usr.PrimaryGoal,
		usr.IsActive, roles, string(usr.PasswordHash), string(usr.ResetCodeHash), usr.ResetCodeExpires,
		usr.UpdatedAt.UTC(), usr.LastLogin, usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
