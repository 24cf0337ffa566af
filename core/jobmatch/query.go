package jobmatch

import (
	"strings"

	"github.com/trezcool/mentora/core/sponsorship"
)

// Fit score weights
const (
	baseFitScore      = 50
	levelFitBonus     = 20
	specialtyFitBonus = 20
	visaFitBonus      = 10
)

// BuildQuery renders the profile fields relevant to job matching as the text to embed.
func BuildQuery(p sponsorship.Profile) string {
	prefs := p.JobPreferences
	lines := []string{
		"Job Specialty: " + prefs.TargetSpecialty,
		"Role Level: " + prefs.TargetRoleLevel,
		"Locations: " + strings.Join(prefs.PreferredLocations, ", "),
		"Work Pattern: " + prefs.WorkPatternPreference,
		"Visa Status: " + p.VisaInfo.CurrentVisaStatus,
		"Previous UK Sponsorship: " + p.VisaInfo.PreviousUKSponsorship,
	}
	return strings.Join(lines, "\n")
}

// FitScore is a heuristic in [0, 100] of how well `job` suits the profile.
// Level and specialty must match the job's level and title exactly.
func FitScore(p sponsorship.Profile, job Job) int {
	score := baseFitScore
	if job.Level == p.JobPreferences.TargetRoleLevel {
		score += levelFitBonus
	}
	if job.Title == p.JobPreferences.TargetSpecialty {
		score += specialtyFitBonus
	}
	if p.VisaInfo.CurrentVisaStatus == sponsorship.VisaTier2 && job.VisaSponsorship {
		score += visaFitBonus
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}
