package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/sponsorship"
)

const profileColumns = `id, user_id, personal_info, visa_info, medical_qualifications, job_preferences, created_at, updated_at`

type profileRow struct {
	ID                    string         `db:"id"`
	UserID                string         `db:"user_id"`
	PersonalInfo          types.JSONText `db:"personal_info"`
	VisaInfo              types.JSONText `db:"visa_info"`
	MedicalQualifications types.JSONText `db:"medical_qualifications"`
	JobPreferences        types.JSONText `db:"job_preferences"`
	CreatedAt             time.Time      `db:"created_at"`
	UpdatedAt             time.Time      `db:"updated_at"`
}

type profileRepository struct {
	exec core.DBExecutor
}

var _ sponsorship.Repository = (*profileRepository)(nil)

func NewProfileRepository(exec core.DBExecutor) sponsorship.Repository {
	return &profileRepository{exec: exec}
}

func (repo profileRepository) unrow(r profileRow) (sponsorship.Profile, error) {
	p := sponsorship.Profile{
		ID:        r.ID,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	for col, dest := range map[*types.JSONText]interface{}{
		&r.PersonalInfo:          &p.PersonalInfo,
		&r.VisaInfo:              &p.VisaInfo,
		&r.MedicalQualifications: &p.MedicalQualifications,
		&r.JobPreferences:        &p.JobPreferences,
	} {
		if err := scanJSON(*col, dest); err != nil {
			return sponsorship.Profile{}, err
		}
	}
	return p, nil
}

// sections encodes the four JSON sections of `p`, in column order.
func (repo profileRepository) sections(p sponsorship.Profile) ([]interface{}, error) {
	cols := make([]interface{}, 0, 4)
	for _, s := range []interface{}{p.PersonalInfo, p.VisaInfo, p.MedicalQualifications, p.JobPreferences} {
		col, err := jsonColumn(s)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func (repo profileRepository) CreateProfile(ctx context.Context, p sponsorship.Profile) (sponsorship.Profile, error) {
	cols, err := repo.sections(p)
	if err != nil {
		return sponsorship.Profile{}, err
	}
	p.ID = uuid.New().String()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	args := append([]interface{}{p.ID, p.UserID}, cols...)
	args = append(args, p.CreatedAt, p.UpdatedAt)
	q := repo.exec.Rebind(`INSERT INTO sponsorship_profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err = repo.exec.ExecContext(ctx, q, args...); err != nil {
		return sponsorship.Profile{}, errors.Wrap(err, "inserting sponsorship profile")
	}
	return p, nil
}

func (repo profileRepository) GetLatestProfile(ctx context.Context, userID string) (sponsorship.Profile, error) {
	var r profileRow
	q := repo.exec.Rebind("SELECT " + profileColumns + ` FROM sponsorship_profiles
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err := repo.exec.GetContext(ctx, &r, q, userID); err != nil {
		if err == sql.ErrNoRows {
			return sponsorship.Profile{}, sponsorship.ErrNotFound
		}
		return sponsorship.Profile{}, errors.Wrap(err, "getting latest sponsorship profile")
	}
	return repo.unrow(r)
}

func (repo profileRepository) UpdateProfile(ctx context.Context, p sponsorship.Profile) (sponsorship.Profile, error) {
	cols, err := repo.sections(p)
	if err != nil {
		return sponsorship.Profile{}, err
	}

	args := append(cols, p.UpdatedAt.UTC(), p.ID)
	q := repo.exec.Rebind(`UPDATE sponsorship_profiles SET
		personal_info = ?, visa_info = ?, medical_qualifications = ?, job_preferences = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return sponsorship.Profile{}, errors.Wrap(err, "updating sponsorship profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sponsorship.Profile{}, sponsorship.ErrNotFound
	}
	return p, nil
}
