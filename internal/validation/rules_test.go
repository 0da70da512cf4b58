package validation

import (
	"encoding/base64"
	"strings"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/roleguard/internal/errors"
)

func TestNoWhitespace(t *testing.T) {
	assert.NoError(t, NoWhitespace.Validate("alice"))
	assert.NoError(t, NoWhitespace.Validate("alice smith"))
	assert.Error(t, NoWhitespace.Validate(" alice"))
	assert.Error(t, NoWhitespace.Validate("alice\n"))
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("root"))
	for _, input := range []string{"   ", "\t\t", " \t\n "} {
		assert.Error(t, NotBlank.Validate(input), "input %q", input)
	}
}

func TestUserID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain id", input: "user-42"},
		{name: "uuid id", input: "0190f1b4-6a5e-7c3d-9f00-1b2c3d4e5f60"},
		{name: "max length", input: strings.Repeat("a", MaxUserIDLength)},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "padded", input: " user-42", wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxUserIDLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.input, UserID...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBase64Key(t *testing.T) {
	rule := Base64Key(MinSigningKeyBytes)
	longKey := base64.StdEncoding.EncodeToString(make([]byte, MinSigningKeyBytes))
	shortKey := base64.StdEncoding.EncodeToString([]byte("secret"))

	assert.NoError(t, rule.Validate(longKey))
	assert.NoError(t, rule.Validate(""))
	assert.Error(t, rule.Validate(shortKey))
	assert.Error(t, rule.Validate("not base64!"))
	assert.Error(t, rule.Validate(42))
	assert.NoError(t, Base64Key(4).Validate(shortKey))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(validation.Validate("", UserID...))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "cannot be blank")
}
