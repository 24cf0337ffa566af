package sponsorship

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mentora/core"
)

// Visa statuses
const (
	VisaNone       = "none"
	VisaVisitor    = "visitor"
	VisaStudent    = "student"
	VisaTier2      = "tier2"
	VisaDependent  = "dependent"
	VisaRefugee    = "refugee"
	VisaIndefinite = "indefinite"
	VisaBritish    = "british"
)

// Role levels
const (
	LevelFY2                 = "fy2"
	LevelSHO                 = "sho"
	LevelSpecialtyDoctor     = "specialty-doctor"
	LevelAssociateSpecialist = "associate-specialist"
	LevelConsultant          = "consultant"
	LevelLocum               = "locum"
)

var (
	Nationalities         = []string{"india", "pakistan", "bangladesh", "nigeria", "egypt", "sudan", "syria", "iraq", "other"}
	VisaStatuses          = []string{VisaNone, VisaVisitor, VisaStudent, VisaTier2, VisaDependent, VisaRefugee, VisaIndefinite, VisaBritish}
	PreviousSponsorships  = []string{"none", "student", "work", "nhs"}
	EnglishLanguageTests  = []string{"ielts", "oet", "native", "none"}
	UKClinicalExperiences = []string{"none", "clinical-attachment", "0-6months", "6-12months", "1-2years", "2plus"}
	RoleLevels            = []string{LevelFY2, LevelSHO, LevelSpecialtyDoctor, LevelAssociateSpecialist, LevelConsultant, LevelLocum}
	WorkPatterns          = []string{"full-time", "part-time", "flexible", "locum"}
	MedicalExams          = []string{
		"plab1", "plab2", "ielts", "oet", "pte", "toefl", "ukcat", "mrcp-part1", "mrcp-part2", "mrcp-paces",
		"mrcs-part-a", "mrcs-part-b", "mrcog-part1", "mrcog-part2", "mrcpch",
	}
	Specialties = []string{
		"internal-medicine", "emergency-medicine", "surgery", "psychiatry", "paediatrics", "obstetrics-gynaecology",
		"anaesthetics", "radiology", "pathology", "general-practice", "any",
	}
	// UK regions, matched as written
	Locations = []string{
		"London", "Manchester", "Birmingham", "Liverpool", "Leeds", "Newcastle", "Sheffield", "Bristol",
		"Nottingham", "Leicester", "Scotland", "Wales", "Northern Ireland",
	}
)

type (
	PersonalInfo struct {
		FullName        string `json:"full_name" validate:"required,notblank"`
		Nationality     string `json:"nationality" validate:"required,nationality"`
		CurrentLocation string `json:"current_location"`
		GMCNumber       string `json:"gmc_number" validate:"omitempty,numeric,len=7"`
		MedicalDegree   string `json:"medical_degree"`
		GraduationYear  int    `json:"graduation_year" validate:"omitempty,min=1950,max=2100"`
	}

	VisaInfo struct {
		CurrentVisaStatus     string    `json:"current_visa_status" validate:"required,visastatus"`
		VisaExpiryDate        null.Time `json:"visa_expiry_date"`
		HasDependents         bool      `json:"has_dependents"`
		PreviousUKSponsorship string    `json:"previous_uk_sponsorship" validate:"omitempty,prevsponsorship"`
	}

	MedicalQualifications struct {
		CompletedExams       []string `json:"completed_exams" validate:"omitempty,dive,medexam"`
		EnglishLanguageTest  string   `json:"english_language_test" validate:"omitempty,englishtest"`
		EnglishScore         string   `json:"english_score"`
		UKClinicalExperience string   `json:"uk_clinical_experience" validate:"omitempty,ukexperience"`
		CurrentRole          string   `json:"current_role"`
	}

	JobPreferences struct {
		TargetSpecialty       string    `json:"target_specialty" validate:"required,specialty"`
		TargetRoleLevel       string    `json:"target_role_level" validate:"required,rolelevel"`
		PreferredLocations    []string  `json:"preferred_locations" validate:"omitempty,dive,location"`
		PreferredStartDate    null.Time `json:"preferred_start_date"`
		WorkPatternPreference string    `json:"work_pattern_preference" validate:"omitempty,workpattern"`
	}
)

// Profile is a user's visa/career sponsorship questionnaire.
// A user may have several; the most recently created one is authoritative.
type Profile struct {
	ID                    string                `json:"id"`
	UserID                string                `json:"user_id"`
	PersonalInfo          PersonalInfo          `json:"personal_info"`
	VisaInfo              VisaInfo              `json:"visa_info"`
	MedicalQualifications MedicalQualifications `json:"medical_qualifications"`
	JobPreferences        JobPreferences        `json:"job_preferences"`
	CreatedAt             time.Time             `json:"created_at"` // UTC
	UpdatedAt             time.Time             `json:"updated_at"` // UTC
}

// HasCompletedExam reports whether `exam` is in the completed exams list.
func (p Profile) HasCompletedExam(exam string) bool {
	for _, e := range p.MedicalQualifications.CompletedExams {
		if e == exam {
			return true
		}
	}
	return false
}

// NewProfile contains information needed to create a new Profile.
type NewProfile struct {
	UserID                string                `json:"-"`
	PersonalInfo          PersonalInfo          `json:"personal_info"`
	VisaInfo              VisaInfo              `json:"visa_info"`
	MedicalQualifications MedicalQualifications `json:"medical_qualifications"`
	JobPreferences        JobPreferences        `json:"job_preferences"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.clean()
	return validate.Struct(np)
}

func (np *NewProfile) clean() {
	np.PersonalInfo.clean()
	np.VisaInfo.clean()
	np.MedicalQualifications.clean()
	np.JobPreferences.clean()
}

// UpdateProfile replaces the provided sections of the latest Profile.
type UpdateProfile struct {
	PersonalInfo          *PersonalInfo          `json:"personal_info"`
	VisaInfo              *VisaInfo              `json:"visa_info"`
	MedicalQualifications *MedicalQualifications `json:"medical_qualifications"`
	JobPreferences        *JobPreferences        `json:"job_preferences"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	if up.PersonalInfo != nil {
		up.PersonalInfo.clean()
	}
	if up.VisaInfo != nil {
		up.VisaInfo.clean()
	}
	if up.MedicalQualifications != nil {
		up.MedicalQualifications.clean()
	}
	if up.JobPreferences != nil {
		up.JobPreferences.clean()
	}
	return validate.Struct(up)
}

func (up UpdateProfile) apply(p *Profile) {
	if up.PersonalInfo != nil {
		p.PersonalInfo = *up.PersonalInfo
	}
	if up.VisaInfo != nil {
		p.VisaInfo = *up.VisaInfo
	}
	if up.MedicalQualifications != nil {
		p.MedicalQualifications = *up.MedicalQualifications
	}
	if up.JobPreferences != nil {
		p.JobPreferences = *up.JobPreferences
	}
}

func (pi *PersonalInfo) clean() {
	pi.FullName = core.CleanString(pi.FullName)
	pi.Nationality = core.CleanString(pi.Nationality, true /* lower */)
	pi.CurrentLocation = core.CleanString(pi.CurrentLocation)
	pi.GMCNumber = core.CleanString(pi.GMCNumber)
	pi.MedicalDegree = core.CleanString(pi.MedicalDegree)
}

func (vi *VisaInfo) clean() {
	vi.CurrentVisaStatus = core.CleanString(vi.CurrentVisaStatus, true /* lower */)
	vi.PreviousUKSponsorship = core.CleanString(vi.PreviousUKSponsorship, true /* lower */)
}

func (mq *MedicalQualifications) clean() {
	mq.CompletedExams = core.CleanStrings(mq.CompletedExams, true /* lower */)
	mq.EnglishLanguageTest = core.CleanString(mq.EnglishLanguageTest, true /* lower */)
	mq.EnglishScore = core.CleanString(mq.EnglishScore)
	mq.UKClinicalExperience = core.CleanString(mq.UKClinicalExperience, true /* lower */)
	mq.CurrentRole = core.CleanString(mq.CurrentRole)
}

func (jp *JobPreferences) clean() {
	jp.TargetSpecialty = core.CleanString(jp.TargetSpecialty, true /* lower */)
	jp.TargetRoleLevel = core.CleanString(jp.TargetRoleLevel, true /* lower */)
	jp.PreferredLocations = core.CleanStrings(jp.PreferredLocations)
	jp.WorkPatternPreference = core.CleanString(jp.WorkPatternPreference, true /* lower */)
}
