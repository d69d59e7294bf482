package validators

import (
	"strconv"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/utils"
)

// IntakeSessionValidator checks the path parameters of the intake session routes.
type IntakeSessionValidator struct {
	*Validator
}

func NewIntakeSessionValidator() *IntakeSessionValidator {
	return &IntakeSessionValidator{Validator: NewValidator()}
}

func (v *IntakeSessionValidator) ValidateSessionID(sessionID string) {
	v.CheckError(utils.ValidateUUID(sessionID), "session_id", "session id must be a valid UUID")
}

// ValidateStepIndex parses index and checks it against steps. It returns the step it points to.
func (v *IntakeSessionValidator) ValidateStepIndex(index string, steps intake.Steps) (int, intake.Step) {
	i, err := strconv.Atoi(index)
	if err != nil {
		v.AddError("index", "step index must be an integer")
		return 0, ""
	}

	step, err := steps.At(i)
	if err != nil {
		v.AddError("index", err.Error())
		return 0, ""
	}
	return i, step
}

// ValidateCustomerID checks an optional customer id that a session resumes from.
func (v *IntakeSessionValidator) ValidateCustomerID(customerID *string) string {
	if customerID == nil {
		return ""
	}
	v.Check(*customerID != "", "customerId", "customer id cannot be empty")
	return *customerID
}
