package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
)

const jobColumns = `id, title, employer, location, level, visa_sponsorship, description, apply_url, embedding, created_at`

type jobRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Employer        string         `db:"employer"`
	Location        string         `db:"location"`
	Level           string         `db:"level"`
	VisaSponsorship bool           `db:"visa_sponsorship"`
	Description     string         `db:"description"`
	ApplyURL        string         `db:"apply_url"`
	Embedding       types.JSONText `db:"embedding"`
	CreatedAt       time.Time      `db:"created_at"`
}

type jobRepository struct {
	db core.DB
}

var _ jobmatch.Repository = (*jobRepository)(nil)

func NewJobRepository(db core.DB) jobmatch.Repository {
	return &jobRepository{db: db}
}

// CreateJobs inserts all jobs in a single transaction.
func (repo jobRepository) CreateJobs(ctx context.Context, jobs []jobmatch.Job) (_ []jobmatch.Job, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := tx.Rebind(`INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	created := make([]jobmatch.Job, 0, len(jobs))
	for _, job := range jobs {
		var emb string
		if emb, err = jsonColumn(job.Embedding); err != nil {
			return nil, err
		}
		job.ID = uuid.New().String()
		job.CreatedAt = job.CreatedAt.UTC()
		_, err = tx.ExecContext(
			ctx, q,
			job.ID, job.Title, job.Employer, job.Location, job.Level, job.VisaSponsorship, job.Description,
			job.ApplyURL, emb, job.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "inserting job")
		}
		created = append(created, job)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing jobs")
	}
	return created, nil
}

func (repo jobRepository) ListJobs(ctx context.Context) ([]jobmatch.Job, error) {
	var rows []jobRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+jobColumns+" FROM jobs ORDER BY created_at ASC, id ASC"); err != nil {
		return nil, errors.Wrap(err, "listing jobs")
	}

	jobs := make([]jobmatch.Job, 0, len(rows))
	for _, r := range rows {
		job := jobmatch.Job{
			ID:              r.ID,
			Title:           r.Title,
			Employer:        r.Employer,
			Location:        r.Location,
			Level:           r.Level,
			VisaSponsorship: r.VisaSponsorship,
			Description:     r.Description,
			ApplyURL:        r.ApplyURL,
			CreatedAt:       r.CreatedAt.UTC(),
		}
		if err := scanJSON(r.Embedding, &job.Embedding); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
