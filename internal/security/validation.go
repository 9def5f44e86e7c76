package security

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	hasUpper     = regexp.MustCompile(`[A-Z]`)
	hasLower     = regexp.MustCompile(`[a-z]`)
	hasNumber    = regexp.MustCompile(`[0-9]`)
)

// FieldErrors maps a request field to the messages explaining why it was
// rejected. It is returned by every validator in this package and rendered
// verbatim as the "fields" member of a 400 response.
type FieldErrors map[string][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// HasErrors reports whether any field was rejected.
func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// Err returns fe as an error, or nil when empty.
func (fe FieldErrors) Err() error {
	if !fe.HasErrors() {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(fe[f], "; ")))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// AsFieldErrors extracts FieldErrors from an error chain.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// ValidationService provides centralized input validation functions.
// All validation methods return descriptive errors that are safe to show to users.
type ValidationService struct {
	config   *SecurityConfig
	validate *validator.Validate
}

// NewValidationService creates a new validation service with security configuration.
// Struct validation reports fields by their json tag name.
func NewValidationService(config *SecurityConfig) *ValidationService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	return &ValidationService{
		config:   config,
		validate: v,
	}
}

// ValidateStruct runs the `validate` tags of s and converts violations into
// FieldErrors keyed by json field name.
//
// Returns:
//   - nil if s is valid
//   - FieldErrors for tag violations
//   - a plain error if s is not a struct
//
// Example:
//
//	if err := v.ValidateStruct(&input); err != nil {
//	    return err // FieldErrors, rendered as 400
//	}
func (v *ValidationService) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fe := FieldErrors{}
	for _, e := range verrs {
		fe.Add(fieldPath(e), messageFor(e))
	}
	return fe
}

// fieldPath strips the struct name from the namespace: "LessonInput.title"
// becomes "title", "HelplineInput.languages[2]" becomes "languages".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.Index(ns, "["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func messageFor(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has no more than %s items.", e.Param())
		}
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", e.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", e.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(e.Value()))
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "len":
		return fmt.Sprintf("Ensure this field has exactly %s characters.", e.Param())
	case "alpha":
		return "Only letters are allowed."
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", e.Tag())
	}
}

// ValidateEmail validates email address format according to RFC 5322.
// Returns error if email is invalid or too long.
func (v *ValidationService) ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must be 254 characters or less")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePassword validates password meets minimum security requirements.
// Requirements: At least 12 characters, contains uppercase, lowercase, and number.
func (v *ValidationService) ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}

	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters")
	}

	if len(password) > 72 {
		return fmt.Errorf("password must be 72 bytes or less")
	}

	if !hasUpper.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	if !hasLower.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if !hasNumber.MatchString(password) {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// ValidateRequired checks if a required field is present and non-empty.
func (v *ValidationService) ValidateRequired(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	return nil
}

// ValidateLength validates string length is within bounds.
func (v *ValidationService) ValidateLength(fieldName string, value string, min, max int) error {
	length := utf8.RuneCountInString(value)

	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}

	if length > max {
		return fmt.Errorf("%s must be %d characters or less", fieldName, max)
	}

	return nil
}

// SanitizeString removes control characters (except newline and tab) and
// trims surrounding whitespace.
func (v *ValidationService) SanitizeString(input string) string {
	input = controlChars.ReplaceAllString(input, "")
	return strings.TrimSpace(input)
}
