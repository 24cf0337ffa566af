package echoapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mentora/core/jobmatch"
	"github.com/trezcool/mentora/core/sponsorship"
	"github.com/trezcool/mentora/core/user"
)

func newProfileBody(t *testing.T, visaStatus, specialty, level string) []byte {
	return marshallObj(t, sponsorship.NewProfile{
		PersonalInfo: sponsorship.PersonalInfo{
			FullName:        "Chidi Okafor",
			Nationality:     "Nigeria",
			CurrentLocation: "Lagos",
			GMCNumber:       "7654321",
		},
		VisaInfo: sponsorship.VisaInfo{CurrentVisaStatus: visaStatus, PreviousUKSponsorship: "none"},
		MedicalQualifications: sponsorship.MedicalQualifications{
			CompletedExams:      []string{"PLAB1", "plab2"},
			EnglishLanguageTest: "oet",
		},
		JobPreferences: sponsorship.JobPreferences{
			TargetSpecialty:       specialty,
			TargetRoleLevel:       level,
			PreferredLocations:    []string{"London", "Manchester"},
			WorkPatternPreference: "full-time",
		},
	})
}

func Test_sponsorshipApi(t *testing.T) {
	usr := createUser(t, "Sponsored", "sponsorship.user@example.com")
	token := getToken(t, usr)
	notFound := marshallObj(t, httpErr{Error: "sponsorship profile not found"})

	runHTTPTests(t, []httpTest{
		{name: "auth required", path: "/v1/sponsorships/latest", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "no profile yet", path: "/v1/sponsorships/latest", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "update without profile", method: http.MethodPut, path: "/v1/sponsorships/latest", token: token,
			body: []byte(`{"personal_info": {"full_name": "Chidi O.", "nationality": "nigeria"}}`), wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{name: "no matches without profile", path: "/v1/sponsorships/job-matches", token: token, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "invalid visa status", method: http.MethodPost, path: "/v1/sponsorships", token: token,
			body: newProfileBody(t, "golden", "psychiatry", "sho"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"current_visa_status": "current_visa_status is not a valid choice"}),
		},
		{
			name: "invalid nationality", method: http.MethodPost, path: "/v1/sponsorships", token: token,
			body: []byte(`{"personal_info": {"full_name": "Chidi O.", "nationality": "Nigerian"},
				"visa_info": {"current_visa_status": "tier2"},
				"job_preferences": {"target_specialty": "psychiatry", "target_role_level": "sho"}}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"nationality": "nationality is not a valid choice"}),
		},
		{
			name: "invalid preferred location", method: http.MethodPost, path: "/v1/sponsorships", token: token,
			body: []byte(`{"personal_info": {"full_name": "Chidi O.", "nationality": "nigeria"},
				"visa_info": {"current_visa_status": "tier2"},
				"job_preferences": {"target_specialty": "psychiatry", "target_role_level": "sho", "preferred_locations": ["Paris"]}}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing specialty", method: http.MethodPost, path: "/v1/sponsorships", token: token,
			body: newProfileBody(t, sponsorship.VisaTier2, "", "sho"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"target_specialty": "this field is required"}),
		},
	})

	rec := do(http.MethodPost, "/v1/sponsorships", token, newProfileBody(t, "Tier2", "Psychiatry", "SHO"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created sponsorship.Profile
	unmarshall(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, usr.ID, created.UserID)
	assert.Equal(t, sponsorship.VisaTier2, created.VisaInfo.CurrentVisaStatus)
	assert.Equal(t, "psychiatry", created.JobPreferences.TargetSpecialty)
	assert.True(t, created.HasCompletedExam("plab1"))

	t.Run("latest", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/sponsorships/latest", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got sponsorship.Profile
		unmarshall(t, rec, &got)
		assert.Equal(t, created.ID, got.ID)

		// other users do not see it
		other := createUser(t, "Unsponsored", "sponsorship.other@example.com")
		rec = do(http.MethodGet, "/v1/sponsorships/latest", getToken(t, other))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(http.MethodPut, "/v1/sponsorships/latest", token,
			[]byte(`{"job_preferences": {"target_specialty": "surgery", "target_role_level": "fy2"}}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got sponsorship.Profile
		unmarshall(t, rec, &got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "surgery", got.JobPreferences.TargetSpecialty)
		assert.Equal(t, sponsorship.LevelFY2, got.JobPreferences.TargetRoleLevel)
		assert.Equal(t, created.PersonalInfo, got.PersonalInfo)

		rec = do(http.MethodPut, "/v1/sponsorships/latest", token,
			[]byte(`{"job_preferences": {"target_specialty": "surgery", "target_role_level": "intern"}}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}

func Test_jobApi_and_jobMatches(t *testing.T) {
	admin := createUser(t, "Recruiter", "jobs.admin@example.com", user.RoleAdmin)
	doctor := createUser(t, "Doctor", "jobs.doctor@example.com")
	adminToken := getToken(t, admin)
	token := getToken(t, doctor)

	jobs := jobmatch.NewJobs{Jobs: []jobmatch.NewJob{
		{Title: "Paediatrics", Employer: "NHS Trust", Location: "Leeds", Level: "SHO", VisaSponsorship: true},
		{Title: "General Surgery", Employer: "NHS Trust", Location: "London", Level: "fy2", Description: "Includes psychiatry liaison"},
		{Title: "psychiatry", Employer: "NHS Trust", Location: "London", Level: "sho", VisaSponsorship: true, ApplyURL: "https://jobs.example.com/1"},
	}}

	runHTTPTests(t, []httpTest{
		{
			name: "admin required", method: http.MethodPost, path: "/v1/jobs", token: token,
			body: marshallObj(t, jobs), wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "invalid job", method: http.MethodPost, path: "/v1/jobs", token: adminToken,
			body:     []byte(`{"jobs": [{"title": "Psychiatry", "location": "London"}]}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"level": "this field is required"}),
		},
	})

	embedder.SetErr(errors.New("connection refused"))
	rec := do(http.MethodPost, "/v1/jobs", adminToken, marshallObj(t, jobs))
	assert.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	embedder.SetErr(nil)

	rec = do(http.MethodPost, "/v1/jobs", adminToken, marshallObj(t, jobs))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imported []jobmatch.Job
	unmarshall(t, rec, &imported)
	require.Len(t, imported, 3)
	assert.Equal(t, "SHO", imported[0].Level)

	rec = do(http.MethodGet, "/v1/jobs", adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var listed []jobmatch.Job
	unmarshall(t, rec, &listed)
	assert.Len(t, listed, 3)

	rec = do(http.MethodPost, "/v1/sponsorships", token, newProfileBody(t, sponsorship.VisaTier2, "psychiatry", "sho"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("ranked matches", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/sponsorships/job-matches", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var matches []jobmatch.Match
		unmarshall(t, rec, &matches)
		require.Len(t, matches, 3)

		assert.Equal(t, "psychiatry", matches[0].Title)
		assert.InDelta(t, 1, matches[0].Similarity, 1e-6)
		assert.Equal(t, 100, matches[0].FitScore)

		assert.Equal(t, "General Surgery", matches[1].Title)
		assert.InDelta(t, 0.7071, matches[1].Similarity, 1e-3)
		assert.Equal(t, 50, matches[1].FitScore)

		assert.Equal(t, "Paediatrics", matches[2].Title)
		assert.InDelta(t, 0, matches[2].Similarity, 1e-6)
		assert.Equal(t, 60, matches[2].FitScore) // level "SHO" is not "sho"
	})

	t.Run("embedding provider down", func(t *testing.T) {
		embedder.SetErr(errors.New("connection refused"))
		defer embedder.SetErr(nil)

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadGateway,
			wantData: marshallObj(t, httpErr{Error: "embedding provider unavailable"}),
		}, do(http.MethodGet, "/v1/sponsorships/job-matches", token))
	})
}
