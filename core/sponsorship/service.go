package sponsorship

import (
	"context"

	"github.com/trezcool/mentora/core"
)

var ErrNotFound = core.NewNotFoundError("sponsorship profile")

type (
	Repository interface {
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
		// GetLatestProfile returns the most recently created profile of the user.
		GetLatestProfile(ctx context.Context, userID string) (Profile, error)
		UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Service interface {
		Create(ctx context.Context, np NewProfile) (Profile, error)
		GetLatest(ctx context.Context, userID string) (Profile, error)
		UpdateLatest(ctx context.Context, userID string, up UpdateProfile) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, np NewProfile) (Profile, error) {
	userID := core.CleanString(np.UserID)
	if userID == "" {
		return Profile{}, core.NewFieldError("user_id", "this field is required")
	}
	np.clean()

	now := core.NowFunc()
	return svc.repo.CreateProfile(ctx, Profile{
		UserID:                userID,
		PersonalInfo:          np.PersonalInfo,
		VisaInfo:              np.VisaInfo,
		MedicalQualifications: np.MedicalQualifications,
		JobPreferences:        np.JobPreferences,
		CreatedAt:             now,
		UpdatedAt:             now,
	})
}

func (svc *service) GetLatest(ctx context.Context, userID string) (Profile, error) {
	userID = core.CleanString(userID)
	if userID == "" {
		return Profile{}, core.NewFieldError("user_id", "this field is required")
	}
	return svc.repo.GetLatestProfile(ctx, userID)
}

func (svc *service) UpdateLatest(ctx context.Context, userID string, up UpdateProfile) (Profile, error) {
	p, err := svc.GetLatest(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	up.apply(&p)
	p.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateProfile(ctx, p)
}
