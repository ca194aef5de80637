package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/EduPulse-2025/assessment-platform/internal/errors"
	"github.com/EduPulse-2025/assessment-platform/internal/models"
)

// Validator wraps struct validation with the domain's custom rules
type Validator struct {
	validate *validator.Validate
}

// New creates a new centralized validator instance
func New() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)

	return &Validator{validate: validate}
}

// Validate runs struct validation and converts failures into the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if verrs := apperrors.ToValidationErrors(err); len(verrs) > 0 {
			return verrs
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
	validate.RegisterValidation("bloom_level", validateBloomLevel)

	// Report json field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	return models.ValidQuestionType(models.QuestionType(fl.Field().String()))
}

func validateDifficultyLevel(fl validator.FieldLevel) bool {
	return models.ValidDifficulty(models.DifficultyLevel(fl.Field().String()))
}

func validateBloomLevel(fl validator.FieldLevel) bool {
	return models.ValidBloomLevel(models.BloomLevel(fl.Field().String()))
}
