package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"repair-desk/internal/domain"
)

// Validator wraps the go-playground validator with the account and ticket rules.
type Validator struct {
	validator *validator.Validate
}

// New creates a validator with custom rules registered and JSON field names
// used in error messages.
func New() *Validator {
	validate := validator.New()

	registerCustomValidators(validate)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validator: validate}
}

// Validate checks a tagged struct. Failures are returned as *domain.ValidationError.
func (v *Validator) Validate(i any) error {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return newValidationError(verrs)
	}
	return err
}

// fieldMessages overrides the generic message for a field/tag pair.
var fieldMessages = map[string]string{
	"email.required":           "Email is required",
	"email.email":              "Invalid email address",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 8 characters",
	"password.password":        "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"full_name.required":       "Name is required",
	"full_name.min":            "Name must be at least 2 characters",
	"role.required":            "Please select a role",
	"role.role":                "Please select a valid role",
	"title.min":                "Title must be at least 5 characters",
	"description.min":          "Description must be at least 20 characters",
	"priority.required":        "Please select a priority",
	"priority.ticket_priority": "Please select a valid priority",
}

func newValidationError(errs validator.ValidationErrors) *domain.ValidationError {
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		field := err.Field()
		tag := err.Tag()

		if msg, ok := fieldMessages[field+"."+tag]; ok {
			fields[field] = msg
			continue
		}

		switch tag {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "email":
			fields[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s characters long", field, err.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s characters long", field, err.Param())
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return &domain.ValidationError{Fields: fields}
}

func registerCustomValidators(validate *validator.Validate) {
	// at least 8 chars with upper, lower and digit
	_ = validate.RegisterValidation(TagPassword, func(fl validator.FieldLevel) bool {
		return passwordStrongEnough(fl.Field().String())
	})

	_ = validate.RegisterValidation(TagRole, func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})

	_ = validate.RegisterValidation(TagTicketPriority, func(fl validator.FieldLevel) bool {
		switch domain.TicketPriority(fl.Field().String()) {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityUrgent:
			return true
		}
		return false
	})
}

var (
	upperPattern = regexp.MustCompile(`[A-Z]`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

// passwordStrongEnough requires ASCII upper, lower and digit characters.
func passwordStrongEnough(password string) bool {
	if len(password) < 8 {
		return false
	}
	return upperPattern.MatchString(password) &&
		lowerPattern.MatchString(password) &&
		digitPattern.MatchString(password)
}

const (
	TagPassword       = "password"
	TagRole           = "role"
	TagTicketPriority = "ticket_priority"
)
