package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 15

	// DateLayout is the calendar date format notes are stored with.
	DateLayout = "2006-01-02"
)

// Allow letters, numbers, spaces, and common punctuation: . ' - / & ( ) ,
var nameRegex = regexp.MustCompile(`^[\p{L}0-9 .'/&(),-]+$`)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("strong_password", StrongPassword)
	_ = v.RegisterValidation("calendar_date", CalendarDate)
	_ = v.RegisterValidation("not_blank", NotBlank)
}

// New returns a validator with the custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// ValidName validates that a string contains only valid name characters
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return nameRegex.MatchString(val)
}

// StrongPassword requires an uppercase letter, a lowercase letter and a
// special character. Length is checked separately with min/max.
func StrongPassword(fl validator.FieldLevel) bool {
	return len(PasswordProblems(fl.Field().String())) == 0
}

// PasswordRules describes the password policy for display next to the field.
func PasswordRules() []string {
	return []string{
		"8 to 15 characters",
		"At least one uppercase letter",
		"At least one lowercase letter",
		"At least one special character",
	}
}

// PasswordProblems lists every rule the password breaks, in display order.
func PasswordProblems(password string) []string {
	var problems []string
	n := len([]rune(password))
	if n < PasswordMinLength {
		problems = append(problems, "Password must be at least 8 characters long")
	}
	if n > PasswordMaxLength {
		problems = append(problems, "Password must be at most 15 characters long")
	}

	var upper, lower, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r), unicode.IsSpace(r):
		default:
			special = true
		}
	}
	if !upper {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !special {
		problems = append(problems, "Password must contain at least one special character")
	}
	return problems
}

// CalendarDate accepts YYYY-MM-DD dates that exist on the calendar.
func CalendarDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := time.Parse(DateLayout, val)
	return err == nil
}

// NotBlank rejects strings made only of whitespace.
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
