package validators

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Validator_Check(t *testing.T) {
	v := NewValidator()
	assert.False(t, v.HasErrors())

	v.Check(true, "firstName", "First name is required")
	assert.False(t, v.HasErrors())

	v.Check(false, "firstName", "First name is required")
	assert.True(t, v.HasErrors())
	assert.Equal(t, map[string]any{"firstName": "First name is required"}, v.Errors)
}

func Test_Validator_CheckError(t *testing.T) {
	v := NewValidator()

	v.CheckError(nil, "email", "Invalid email format")
	assert.False(t, v.HasErrors())

	v.CheckError(errors.New("the provided email is not valid"), "email", "Invalid email format")
	v.CheckError(errors.New("the provided id is not a valid UUID"), "session_id", "")
	assert.Equal(t, map[string]any{
		"email":      "Invalid email format",
		"session_id": "the provided id is not a valid UUID",
	}, v.Errors)
}

func Test_Validator_AddError_keepsFirstMessage(t *testing.T) {
	v := NewValidator()
	v.AddError("dateOfBirth", "Date of birth is required")
	v.AddError("dateOfBirth", "Date of birth must be a valid date")
	v.AddError("zipCode", "ZIP code is required")

	assert.Equal(t, map[string]any{
		"dateOfBirth": "Date of birth is required",
		"zipCode":     "ZIP code is required",
	}, v.Errors)
}
