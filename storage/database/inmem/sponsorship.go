package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/mentora/core/sponsorship"
)

type profileRepository struct {
	db *profileTable
}

var _ sponsorship.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) sponsorship.Repository {
	return &profileRepository{db: db.sponsorship}
}

func copyProfile(p sponsorship.Profile) sponsorship.Profile {
	p.MedicalQualifications.CompletedExams = append([]string(nil), p.MedicalQualifications.CompletedExams...)
	p.JobPreferences.PreferredLocations = append([]string(nil), p.JobPreferences.PreferredLocations...)
	return p
}

func (repo *profileRepository) CreateProfile(_ context.Context, p sponsorship.Profile) (sponsorship.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = uuid.New().String()
	stored := copyProfile(p)
	repo.db.table[p.ID] = &stored
	return p, nil
}

func (repo *profileRepository) GetLatestProfile(_ context.Context, userID string) (sponsorship.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var latest *sponsorship.Profile
	for _, p := range repo.db.table {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return sponsorship.Profile{}, sponsorship.ErrNotFound
	}
	return copyProfile(*latest), nil
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p sponsorship.Profile) (sponsorship.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return sponsorship.Profile{}, sponsorship.ErrNotFound
	}
	stored := copyProfile(p)
	repo.db.table[p.ID] = &stored
	return p, nil
}
