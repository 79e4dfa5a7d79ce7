// Package validator provides small declarative validation rules.
//
// A Rule pairs a Check func with translation-friendly error metadata.
// Apply evaluates every rule and aggregates failures into ValidationErrors,
// which implements error. ApplyFirst stops at the first failing rule, for
// checks whose order decides the message the caller sees (the password
// policy, for example).
//
//	err := validator.ApplyFirst(
//		validator.PasswordsMatch("confirm_password", pw, confirm),
//		validator.PasswordMinLength("password", pw, 8),
//		validator.PasswordUppercase("password", pw),
//	)
//	if errs := validator.ExtractValidationErrors(err); errs != nil {
//		// errs.First() is the message to show
//	}
//
// Any ValidationErrors matches ErrValidationFailed through errors.Is.
package validator
