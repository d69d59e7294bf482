package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stellar/customer-intake-backend/internal/intake"
)

func Test_IntakeSessionValidator_ValidateSessionID(t *testing.T) {
	v := NewIntakeSessionValidator()
	v.ValidateSessionID("5b3f7c1e-8a8e-4f54-9a61-7a1f2f1f4c2d")
	assert.False(t, v.HasErrors())

	v = NewIntakeSessionValidator()
	v.ValidateSessionID("not-a-uuid")
	assert.Equal(t, map[string]interface{}{"session_id": "session id must be a valid UUID"}, v.Errors)
}

func Test_IntakeSessionValidator_ValidateStepIndex(t *testing.T) {
	testCases := []struct {
		index     string
		wantIndex int
		wantStep  intake.Step
		wantError bool
	}{
		{"0", 0, intake.StepPersonal, false},
		{"3", 3, intake.StepProofs, false},
		{"4", 0, "", true},
		{"-1", 0, "", true},
		{"two", 0, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.index, func(t *testing.T) {
			v := NewIntakeSessionValidator()
			i, step := v.ValidateStepIndex(tc.index, intake.FourStepFlow)
			assert.Equal(t, tc.wantIndex, i)
			assert.Equal(t, tc.wantStep, step)
			assert.Equal(t, tc.wantError, v.HasErrors())
		})
	}
}

func Test_IntakeSessionValidator_ValidateCustomerID(t *testing.T) {
	v := NewIntakeSessionValidator()
	assert.Equal(t, "", v.ValidateCustomerID(nil))
	assert.False(t, v.HasErrors())

	empty := ""
	assert.Equal(t, "", v.ValidateCustomerID(&empty))
	assert.True(t, v.HasErrors())

	v = NewIntakeSessionValidator()
	id := "42"
	assert.Equal(t, "42", v.ValidateCustomerID(&id))
	assert.False(t, v.HasErrors())
}
