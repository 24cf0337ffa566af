package jobmatch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/sponsorship"
)

// DefaultTopK is the number of matches returned when none is configured.
const DefaultTopK = 10

const embeddingService = "embedding provider"

type (
	// Embedder turns text into a dense vector.
	Embedder interface {
		Embed(ctx context.Context, text string) ([]float32, error)
	}

	// ProfileSource supplies the latest sponsorship profile of a user.
	ProfileSource interface {
		GetLatest(ctx context.Context, userID string) (sponsorship.Profile, error)
	}

	// Repository holds the candidate job pool.
	Repository interface {
		CreateJobs(ctx context.Context, jobs []Job) ([]Job, error)
		ListJobs(ctx context.Context) ([]Job, error)
	}

	Service interface {
		MatchJobsByUser(ctx context.Context, userID string) ([]Match, error)
		ImportJobs(ctx context.Context, njs []NewJob) ([]Job, error)
		ListJobs(ctx context.Context) ([]Job, error)
	}

	service struct {
		profiles ProfileSource
		jobs     Repository
		embedder Embedder
		logger   core.Logger
		topK     int
	}
)

var _ Service = (*service)(nil)

func NewService(profiles ProfileSource, jobs Repository, embedder Embedder, logger core.Logger, topK int) Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &service{
		profiles: profiles,
		jobs:     jobs,
		embedder: embedder,
		logger:   logger,
		topK:     topK,
	}
}

func (svc *service) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := svc.embedder.Embed(ctx, text)
	if err != nil {
		if core.IsUpstream(err) {
			return nil, err
		}
		return nil, core.NewUpstreamError(embeddingService, err)
	}
	if len(vec) == 0 {
		return nil, core.NewUpstreamError(embeddingService, errors.New("empty embedding"))
	}
	return vec, nil
}

func (svc *service) MatchJobsByUser(ctx context.Context, userID string) ([]Match, error) {
	profile, err := svc.profiles.GetLatest(ctx, userID)
	if err != nil {
		return nil, err
	}

	query, err := svc.embed(ctx, BuildQuery(profile))
	if err != nil {
		return nil, err
	}

	jobs, err := svc.jobs.ListJobs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing jobs")
	}

	matches, err := Rank(query, jobs, svc.topK)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		matches[i].FitScore = FitScore(profile, matches[i].Job)
	}

	svc.logger.Debug(fmt.Sprintf("matched %d/%d jobs for user %s", len(matches), len(jobs), profile.UserID))
	return matches, nil
}

// ImportJobs embeds each job once and adds them all to the pool. Nothing is stored if any embedding fails
// or has a different size than the pool's.
func (svc *service) ImportJobs(ctx context.Context, njs []NewJob) ([]Job, error) {
	if len(njs) == 0 {
		return nil, core.NewFieldError("jobs", "at least one job is required")
	}

	pool, err := svc.jobs.ListJobs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing jobs")
	}
	dim := 0
	if len(pool) > 0 {
		dim = len(pool[0].Embedding)
	}

	now := core.NowFunc()
	jobs := make([]Job, 0, len(njs))
	for i, nj := range njs {
		nj.Clean()
		if nj.Title == "" || nj.Location == "" || nj.Level == "" {
			return nil, core.NewFieldError("jobs["+strconv.Itoa(i)+"]", "title, location and level are required")
		}

		vec, err := svc.embed(ctx, nj.embeddingText())
		if err != nil {
			return nil, err
		}
		if dim == 0 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, core.NewUpstreamError(embeddingService, fmt.Errorf("inconsistent embedding size: %d != %d", len(vec), dim))
		}

		jobs = append(jobs, Job{
			Title:           nj.Title,
			Employer:        nj.Employer,
			Location:        nj.Location,
			Level:           nj.Level,
			VisaSponsorship: nj.VisaSponsorship,
			Description:     nj.Description,
			ApplyURL:        nj.ApplyURL,
			Embedding:       vec,
			CreatedAt:       now.Add(time.Duration(i) * time.Microsecond),
		})
	}

	jobs, err = svc.jobs.CreateJobs(ctx, jobs)
	if err != nil {
		return nil, errors.Wrap(err, "creating jobs")
	}
	svc.logger.Info(fmt.Sprintf("imported %d jobs", len(jobs)))
	return jobs, nil
}

func (svc *service) ListJobs(ctx context.Context) ([]Job, error) {
	return svc.jobs.ListJobs(ctx)
}
