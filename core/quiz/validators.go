package quiz

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mentora/core"
)

var (
	optionTag  = "option"
	optionText = "{0} must be one of " + strings.Join(Options, ", ")

	difficultyTag  = "difficulty"
	difficultyText = "{0} must be one of " + strings.Join(Difficulties, ", ")
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(optionTag, optionValidation)
	core.RegisterCustomTranslation(validate, translator, optionTag, optionText)

	_ = validate.RegisterValidation(difficultyTag, difficultyValidation)
	core.RegisterCustomTranslation(validate, translator, difficultyTag, difficultyText)
}

func optionValidation(fl validator.FieldLevel) bool {
	return IsValidOption(fl.Field().String())
}

func difficultyValidation(fl validator.FieldLevel) bool {
	return isValidDifficulty(fl.Field().String())
}
