// Package validation holds the jellydator/validation rules shared by configuration and the
// RBAC use cases.
package validation

import (
	"encoding/base64"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/roleguard/internal/errors"
)

// MaxUserIDLength matches the width of the users.id and audit_logs actor/target columns.
const MaxUserIDLength = 64

// MinSigningKeyBytes is the smallest decoded audit signing key accepted.
const MinSigningKeyBytes = 32

// WrapValidationError maps a validation failure onto ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace rejects strings with leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// UserID is the rule set for actor and target identifiers.
var UserID = []validation.Rule{
	validation.Required,
	NotBlank,
	NoWhitespace,
	validation.RuneLength(1, MaxUserIDLength),
}

// Base64Key returns a rule that accepts standard base64 text decoding to at least minBytes.
// Empty strings pass so Required stays in charge of presence.
func Base64Key(minBytes int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_base64_type", "must be a string")
		}
		if s == "" {
			return nil
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return validation.NewError("validation_base64", "must be valid base64-encoded data")
		}
		if len(decoded) < minBytes {
			return validation.NewError("validation_key_length", "decoded key is too short").
				SetParams(map[string]interface{}{"min": minBytes})
		}
		return nil
	})
}
