package validator

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	uppercaseRegex   = regexp.MustCompile(`[A-Z]`)
	lowercaseRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex       = regexp.MustCompile(`[0-9]`)
	specialCharRegex = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PasswordsMatch requires the confirmation to equal the password.
func PasswordsMatch(field, password, confirmation string) Rule {
	return Rule{
		Check: func() bool {
			return password == confirmation
		},
		Error: ValidationError{
			Field:          field,
			Message:        "passwords do not match",
			TranslationKey: "validation.password_mismatch",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// PasswordMinLength counts characters, not bytes.
func PasswordMinLength(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) >= min
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("password must be at least %d characters long", min),
			TranslationKey: "validation.password_min_length",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min,
			},
		},
	}
}

// PasswordMaxBytes caps the encoded length; bcrypt ignores input past 72 bytes.
func PasswordMaxBytes(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password too long to be processed securely",
			TranslationKey: "validation.password_max_bytes",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

func PasswordUppercase(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return uppercaseRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password must contain at least one uppercase letter",
			TranslationKey: "validation.password_uppercase",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

func PasswordLowercase(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return lowercaseRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password must contain at least one lowercase letter",
			TranslationKey: "validation.password_lowercase",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

func PasswordDigit(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return digitRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password must contain at least one digit",
			TranslationKey: "validation.password_digit",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// PasswordSpecialChar requires a character outside [a-zA-Z0-9].
func PasswordSpecialChar(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return specialCharRegex.MatchString(value)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "password must contain at least one special character",
			TranslationKey: "validation.password_special",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
