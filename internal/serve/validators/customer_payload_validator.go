package validators

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/stellar/customer-intake-backend/internal/intake"
)

//go:embed schemas/customer.json
var customerSchemaJSON []byte

var customerSchema = mustCompileSchema(customerSchemaJSON)

func mustCompileSchema(schema []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		panic(fmt.Errorf("compiling JSON schema: %w", err))
	}
	return s
}

// CustomerPayloadValidator checks the shape of a customer record body. The name may be a legacy string or a
// structured object; content rules are left to the intake validators.
type CustomerPayloadValidator struct {
	*Validator
}

func NewCustomerPayloadValidator() *CustomerPayloadValidator {
	return &CustomerPayloadValidator{Validator: NewValidator()}
}

// ValidateAndDecode returns the decoded record, or nil when the body does not match the schema. The errors are keyed
// by JSON field path.
func (v *CustomerPayloadValidator) ValidateAndDecode(body []byte) *intake.RawRecord {
	if len(body) == 0 {
		v.AddError("body", "request body is empty")
		return nil
	}

	result, err := customerSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		v.CheckError(err, "body", "request body is not valid JSON")
		return nil
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			if _, exists := v.Errors[desc.Field()]; !exists {
				v.AddError(desc.Field(), desc.Description())
			}
		}
		return nil
	}

	var raw intake.RawRecord
	if err = json.Unmarshal(body, &raw); err != nil {
		v.CheckError(err, "body", "")
		return nil
	}
	return &raw
}
