package apperror

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func formatFieldName(s string) string {
	// recipient_phone / employeeId -> Recipient Phone / EmployeeId
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English, cases.NoLower)
	return caser.String(s)
}

// MapValidationError turns the first failing field into an AppError.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		humanReadableField := formatFieldName(e.Field())

		switch e.Tag() {
		case "required":
			return RequiredField(humanReadableField).WithCause(err)
		default:
			return InvalidField(humanReadableField).WithCause(err)
		}
	}

	return ErrInvalidInput.WithCause(err)
}

// ValidationDetails lists every failing field with a short reason.
// Errors that are not validator errors (malformed JSON, wrong types) are reported under "body".
func ValidationDetails(err error) map[string]string {
	details := map[string]string{}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		details["body"] = "malformed request body"
		return details
	}

	for _, e := range errs {
		switch e.Tag() {
		case "required":
			details[e.Field()] = "is required"
		case "email":
			details[e.Field()] = "must be a valid email address"
		case "min":
			details[e.Field()] = "must be at least " + e.Param() + " characters"
		case "max":
			details[e.Field()] = "must be at most " + e.Param() + " characters"
		case "oneof":
			details[e.Field()] = "must be one of: " + e.Param()
		default:
			details[e.Field()] = "is invalid"
		}
	}
	return details
}
