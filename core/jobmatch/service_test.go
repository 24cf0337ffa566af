package jobmatch_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/sponsorship"
	logsvc "github.com/trezcool/mentora/services/logger"
	inmemdb "github.com/trezcool/mentora/storage/database/inmem"
	"github.com/trezcool/mentora/testutil"
)

type sizedEmbedder struct{ calls int }

func (e *sizedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	return make([]float32, e.calls), nil
}

func setup(t *testing.T, embedder jobmatch.Embedder, topK int) (jobmatch.Service, sponsorship.Service) {
	db := inmemdb.Open()
	profiles := sponsorship.NewService(inmemdb.NewProfileRepository(db))
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{TestMode: true})
	return jobmatch.NewService(profiles, inmemdb.NewJobRepository(db), embedder, logger, topK), profiles
}

func createProfile(t *testing.T, svc sponsorship.Service, userID, specialty string) {
	_, err := svc.Create(context.Background(), sponsorship.NewProfile{
		UserID:         userID,
		PersonalInfo:   sponsorship.PersonalInfo{FullName: "Ifeoma Nwosu", Nationality: "nigeria"},
		VisaInfo:       sponsorship.VisaInfo{CurrentVisaStatus: sponsorship.VisaTier2},
		JobPreferences: sponsorship.JobPreferences{TargetSpecialty: specialty, TargetRoleLevel: sponsorship.LevelSHO},
	})
	require.NoError(t, err)
}

var testJobs = []jobmatch.NewJob{
	{Title: "Paediatrics", Location: "Leeds", Level: "SHO"},
	{Title: "Surgery", Location: "London", Level: "fy2", Description: "psychiatry rotation"},
	{Title: "psychiatry", Location: "London", Level: "sho", VisaSponsorship: true},
}

func TestService_MatchJobsByUser(t *testing.T) {
	embedder := testutil.NewFakeEmbedder("psychiatry", "surgery", "paediatrics")
	svc, profiles := setup(t, embedder, 2)
	ctx := context.Background()

	_, err := svc.MatchJobsByUser(ctx, "u1")
	assert.Equal(t, sponsorship.ErrNotFound, errors.Cause(err))
	assert.Zero(t, embedder.Calls)

	createProfile(t, profiles, "u1", "psychiatry")

	// empty pool
	matches, err := svc.MatchJobsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = svc.ImportJobs(ctx, testJobs)
	require.NoError(t, err)

	matches, err = svc.MatchJobsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, matches, 2) // top k
	assert.Equal(t, "psychiatry", matches[0].Title)
	assert.Equal(t, 100, matches[0].FitScore)
	assert.Equal(t, "Surgery", matches[1].Title)
	assert.Equal(t, 50, matches[1].FitScore)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)

	// the latest profile wins
	nowFunc := core.NowFunc
	core.NowFunc = func() time.Time { return nowFunc().Add(time.Minute) }
	defer func() { core.NowFunc = nowFunc }()
	createProfile(t, profiles, "u1", "paediatrics")
	matches, err = svc.MatchJobsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Paediatrics", matches[0].Title)
	assert.Equal(t, 50, matches[0].FitScore) // level "SHO" is not "sho"
}

func TestService_MatchJobsByUser_upstreamErrors(t *testing.T) {
	embedder := testutil.NewFakeEmbedder("psychiatry")
	svc, profiles := setup(t, embedder, 0)
	ctx := context.Background()
	createProfile(t, profiles, "u1", "psychiatry")
	_, err := svc.ImportJobs(ctx, testJobs)
	require.NoError(t, err)

	embedder.SetErr(errors.New("connection refused"))
	_, err = svc.MatchJobsByUser(ctx, "u1")
	assert.True(t, core.IsUpstream(err), "error = %v", err)
	assert.Contains(t, err.Error(), "embedding provider unavailable")

	embedder.SetErr(context.DeadlineExceeded)
	_, err = svc.MatchJobsByUser(ctx, "u1")
	var upErr *core.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.True(t, upErr.Timeout)
}

func TestService_ImportJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		svc, _ := setup(t, testutil.NewFakeEmbedder("psychiatry"), 0)
		_, err := svc.ImportJobs(ctx, nil)
		assert.True(t, core.IsValidationError(err))
		_, err = svc.ImportJobs(ctx, []jobmatch.NewJob{{Title: "Psychiatry", Location: " "}})
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("all or nothing", func(t *testing.T) {
		embedder := testutil.NewFakeEmbedder("psychiatry")
		embedder.SetErr(errors.New("boom"))
		svc, _ := setup(t, embedder, 0)
		_, err := svc.ImportJobs(ctx, testJobs)
		assert.True(t, core.IsUpstream(err))
		jobs, err := svc.ListJobs(ctx)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("inconsistent sizes", func(t *testing.T) {
		svc, _ := setup(t, &sizedEmbedder{}, 0)
		_, err := svc.ImportJobs(ctx, testJobs)
		assert.True(t, core.IsUpstream(err), "error = %v", err)
	})

	t.Run("size differs from the pool", func(t *testing.T) {
		svc, _ := setup(t, &sizedEmbedder{}, 0)
		_, err := svc.ImportJobs(ctx, testJobs[:1])
		require.NoError(t, err)

		_, err = svc.ImportJobs(ctx, testJobs[1:2])
		assert.True(t, core.IsUpstream(err), "error = %v", err)
		jobs, err := svc.ListJobs(ctx)
		require.NoError(t, err)
		assert.Len(t, jobs, 1)
	})

	t.Run("embedded once", func(t *testing.T) {
		embedder := testutil.NewFakeEmbedder("psychiatry")
		svc, _ := setup(t, embedder, 0)
		jobs, err := svc.ImportJobs(ctx, testJobs)
		require.NoError(t, err)
		require.Len(t, jobs, 3)
		assert.Equal(t, 3, embedder.Calls)
		assert.Equal(t, "SHO", jobs[0].Level)
		assert.Equal(t, []float32{1, 0}, jobs[2].Embedding)

		listed, err := svc.ListJobs(ctx)
		require.NoError(t, err)
		assert.Equal(t, jobs, listed)
	})
}
