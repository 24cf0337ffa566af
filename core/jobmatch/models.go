package jobmatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
)

// Job is a candidate posting of the matching pool. Embedding is computed once, on import.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Employer        string    `json:"employer"`
	Location        string    `json:"location"`
	Level           string    `json:"level"`
	VisaSponsorship bool      `json:"visa_sponsorship"`
	Description     string    `json:"description"`
	ApplyURL        string    `json:"apply_url"`
	Embedding       []float32 `json:"-"`
	CreatedAt       time.Time `json:"created_at"` // UTC
}

// Match is a ranked Job with its similarity to the user's profile and a heuristic fit score (0-100).
type Match struct {
	Job
	Similarity float64 `json:"similarity"`
	FitScore   int     `json:"fit_score"`
}

// NewJob contains information needed to add a Job to the pool.
type NewJob struct {
	Title           string `json:"title" validate:"required,notblank"`
	Employer        string `json:"employer"`
	Location        string `json:"location" validate:"required,notblank"`
	Level           string `json:"level" validate:"required,notblank"`
	VisaSponsorship bool   `json:"visa_sponsorship"`
	Description     string `json:"description"`
	ApplyURL        string `json:"apply_url" validate:"omitempty,url"`
}

func (nj *NewJob) Clean() {
	nj.Title = core.CleanString(nj.Title)
	nj.Employer = core.CleanString(nj.Employer)
	nj.Location = core.CleanString(nj.Location)
	nj.Level = core.CleanString(nj.Level)
	nj.Description = core.CleanString(nj.Description)
	nj.ApplyURL = core.CleanString(nj.ApplyURL)
}

// embeddingText is the text embedded for the job on import.
func (nj NewJob) embeddingText() string {
	sponsorship := "no"
	if nj.VisaSponsorship {
		sponsorship = "yes"
	}
	lines := []string{
		"Job Title: " + nj.Title,
		"Role Level: " + nj.Level,
		"Location: " + nj.Location,
		"Visa Sponsorship: " + sponsorship,
	}
	if nj.Employer != "" {
		lines = append(lines, "Employer: "+nj.Employer)
	}
	if nj.Description != "" {
		lines = append(lines, fmt.Sprintf("Description: %s", nj.Description))
	}
	return strings.Join(lines, "\n")
}

type NewJobs struct {
	Jobs []NewJob `json:"jobs" validate:"required,min=1,dive"`
}

func (njs *NewJobs) Validate(validate *validator.Validate) error {
	for i := range njs.Jobs {
		njs.Jobs[i].Clean()
	}
	return validate.Struct(njs)
}
