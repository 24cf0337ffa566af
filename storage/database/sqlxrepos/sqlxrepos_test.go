package sqlxrepos

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/quiz"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
	"github.com/trezcool/mentora/storage/database"
)

var testDB *sqlx.DB

func TestMain(m *testing.M) {
	db, err := database.OpenSqliteMemory()
	if err != nil {
		panic(err)
	}
	testDB = db
	code := m.Run()
	_ = db.Close()
	os.Exit(code)
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testDB)

	usr := user.User{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     "ada.repo@example.com",
		IsActive:  true,
		Roles:     []string{user.RoleUser, user.RoleMentor},
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	require.NoError(t, usr.SetPassword("Str0ng!Pass#2024"))

	created, err := repo.CreateUser(ctx, usr)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, usr.Email))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, usr.Email, created))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "someone.else@example.com"))

	got, err := repo.GetUserByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []string{user.RoleUser, user.RoleMentor}, got.Roles)
	assert.NoError(t, got.CheckPassword("Str0ng!Pass#2024"))
	assert.False(t, got.LastLogin.Valid)

	got.FirstName = "Adaeze"
	got.Roles = []string{user.RoleAdmin}
	_, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)

	got, err = repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adaeze", got.FirstName)
	assert.True(t, got.IsAdmin())

	_, err = repo.GetUserByID(ctx, "missing")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repo.UpdateUser(ctx, user.User{ID: "missing"})
	assert.Equal(t, user.ErrNotFound, err)
}

func TestQuestionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(testDB)
	base := now()

	newQuestion := func(i int, category, difficulty string, cpd bool) quiz.Question {
		return quiz.Question{
			ExamID:        "plab-repo",
			Text:          "question",
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectAnswer: quiz.OptionB,
			Category:      category,
			Difficulty:    difficulty,
			CPDTag:        cpd,
			CreatedAt:     base.Add(time.Duration(i) * time.Microsecond),
			UpdatedAt:     base,
		}
	}
	created, err := repo.CreateQuestions(ctx, []quiz.Question{
		newQuestion(0, "Cardiology", quiz.DifficultyCore, false),
		newQuestion(1, "Neurology", quiz.DifficultyBasic, true),
		newQuestion(2, "Cardiology", quiz.DifficultyAdvanced, true),
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	all, err := repo.QueryQuestions(ctx, quiz.QueryFilter{ExamID: "plab-repo"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := range all {
		assert.Equal(t, created[i].ID, all[i].ID)
	}

	cardio, err := repo.QueryQuestions(ctx, quiz.QueryFilter{ExamID: "plab-repo", Category: "Cardiology", CPDTag: core.BoolPtr(true)})
	require.NoError(t, err)
	require.Len(t, cardio, 1)
	assert.Equal(t, created[2].ID, cardio[0].ID)

	desc, err := repo.QueryQuestions(ctx, quiz.QueryFilter{ExamID: "plab-repo"}, core.DBOrdering{Field: "created_at"})
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, created[2].ID, desc[0].ID)

	q := created[0]
	q.CorrectAnswer = quiz.OptionD
	_, err = repo.UpdateQuestion(ctx, q)
	require.NoError(t, err)
	got, err := repo.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.OptionD, got.CorrectAnswer)

	_, err = repo.GetQuestion(ctx, "missing")
	assert.Equal(t, quiz.ErrQuestionNotFound, err)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testDB)
	fresh := quiz.Session{UserID: "u-repo", ExamID: "plab-1", CreatedAt: now(), UpdatedAt: now()}

	t.Run("find or create is idempotent", func(t *testing.T) {
		var (
			wg  sync.WaitGroup
			ids = make([]string, 8)
		)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				sess, err := repo.FindOrCreateActiveSession(ctx, fresh)
				if assert.NoError(t, err) {
					ids[i] = sess.ID
				}
			}(i)
		}
		wg.Wait()
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("versioned update", func(t *testing.T) {
		sess, err := repo.FindOrCreateActiveSession(ctx, fresh)
		require.NoError(t, err)
		assert.Equal(t, 1, sess.Version)
		assert.Equal(t, []quiz.Answer{}, sess.Answers)
		assert.Equal(t, []int{}, sess.FlaggedQuestions)

		stale := sess
		sess.RecordAnswer(quiz.Question{ID: "q1", CorrectAnswer: quiz.OptionA}, quiz.OptionA)
		sess.ToggleFlag(3)
		updated, err := repo.UpdateSession(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)

		_, err = repo.UpdateSession(ctx, stale)
		assert.Equal(t, quiz.ErrSessionConflict, err)

		got, err := repo.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Score)
		assert.Equal(t, 1, got.CurrentQuestionIndex)
		assert.Equal(t, []int{3}, got.FlaggedQuestions)
		assert.Equal(t, updated.Answers, got.Answers)

		_, err = repo.UpdateSession(ctx, quiz.Session{ID: "missing"})
		assert.Equal(t, quiz.ErrSessionNotFound, err)
	})

	t.Run("completion frees the slot", func(t *testing.T) {
		sess, err := repo.FindOrCreateActiveSession(ctx, fresh)
		require.NoError(t, err)
		require.True(t, sess.Complete(now()))
		_, err = repo.UpdateSession(ctx, sess)
		require.NoError(t, err)

		next, err := repo.FindOrCreateActiveSession(ctx, fresh)
		require.NoError(t, err)
		assert.NotEqual(t, sess.ID, next.ID)
		assert.False(t, next.Completed)
	})
}

func TestProfileRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(testDB)

	_, err := repo.GetLatestProfile(ctx, "u-none")
	assert.Equal(t, sponsorship.ErrNotFound, err)

	base := now()
	for i, specialty := range []string{"psychiatry", "surgery"} {
		_, err = repo.CreateProfile(ctx, sponsorship.Profile{
			UserID:         "u-profile",
			PersonalInfo:   sponsorship.PersonalInfo{FullName: "Ada Obi", Nationality: "nigeria"},
			VisaInfo:       sponsorship.VisaInfo{CurrentVisaStatus: sponsorship.VisaTier2},
			JobPreferences: sponsorship.JobPreferences{TargetSpecialty: specialty, PreferredLocations: []string{"London"}},
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
			UpdatedAt:      base,
		})
		require.NoError(t, err)
	}

	latest, err := repo.GetLatestProfile(ctx, "u-profile")
	require.NoError(t, err)
	assert.Equal(t, "surgery", latest.JobPreferences.TargetSpecialty)
	assert.Equal(t, []string{"London"}, latest.JobPreferences.PreferredLocations)
	assert.Equal(t, "Ada Obi", latest.PersonalInfo.FullName)

	latest.MedicalQualifications.CompletedExams = []string{"plab1"}
	_, err = repo.UpdateProfile(ctx, latest)
	require.NoError(t, err)
	got, err := repo.GetLatestProfile(ctx, "u-profile")
	require.NoError(t, err)
	assert.True(t, got.HasCompletedExam("plab1"))
}

func TestJobRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(testDB)
	base := now()

	created, err := repo.CreateJobs(ctx, []jobmatch.Job{
		{Title: "psychiatry", Location: "London", Level: "ct1", Embedding: []float32{1, 0}, CreatedAt: base},
		{Title: "surgery", Location: "Leeds", Level: "st3", VisaSponsorship: true, Embedding: []float32{0, 1}, CreatedAt: base.Add(time.Microsecond)},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	jobs, err := repo.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, created[0].ID, jobs[0].ID)
	assert.Equal(t, []float32{0, 1}, jobs[1].Embedding)
	assert.True(t, jobs[1].VisaSponsorship)
}
