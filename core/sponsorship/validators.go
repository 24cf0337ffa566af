package sponsorship

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
)

type choiceTag struct {
	tag     string
	choices []string
}

var choiceTags = []choiceTag{
	{"nationality", Nationalities},
	{"visastatus", VisaStatuses},
	{"prevsponsorship", PreviousSponsorships},
	{"medexam", MedicalExams},
	{"englishtest", EnglishLanguageTests},
	{"ukexperience", UKClinicalExperiences},
	{"specialty", Specialties},
	{"rolelevel", RoleLevels},
	{"workpattern", WorkPatterns},
	{"location", Locations},
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	for _, ct := range choiceTags {
		_ = validate.RegisterValidation(ct.tag, choiceValidation(ct.choices))
		core.RegisterCustomTranslation(validate, translator, ct.tag, "{0} is not a valid choice")
	}
}

func choiceValidation(choices []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return isChoice(fl.Field().String(), choices)
	}
}

func isChoice(val string, choices []string) bool {
	for _, c := range choices {
		if val == c {
			return true
		}
	}
	return false
}
