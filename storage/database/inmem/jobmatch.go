package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/mentora/core/jobmatch"
)

type jobRepository struct {
	db *jobTable
}

var _ jobmatch.Repository = (*jobRepository)(nil)

func NewJobRepository(db *DB) jobmatch.Repository {
	return &jobRepository{db: db.job}
}

func (repo *jobRepository) CreateJobs(_ context.Context, jobs []jobmatch.Job) ([]jobmatch.Job, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	created := make([]jobmatch.Job, 0, len(jobs))
	for _, job := range jobs {
		job.ID = uuid.New().String()
		job.Embedding = append([]float32(nil), job.Embedding...)
		repo.db.rows = append(repo.db.rows, job)
		created = append(created, job)
	}
	return created, nil
}

// ListJobs returns the pool in insertion order.
func (repo *jobRepository) ListJobs(_ context.Context) ([]jobmatch.Job, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	jobs := make([]jobmatch.Job, len(repo.db.rows))
	copy(jobs, repo.db.rows)
	return jobs, nil
}
