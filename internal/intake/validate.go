package intake

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stellar/customer-intake-backend/internal/utils"
)

// FieldErrors maps a field name to its error message. An empty message means the field passed.
type FieldErrors map[string]string

func (fe FieldErrors) Valid() bool {
	for _, msg := range fe {
		if msg != "" {
			return false
		}
	}
	return true
}

// Check records message under key when ok is false. The first failing check for a key wins, and a passing check
// only registers the key with an empty message.
func (fe FieldErrors) Check(ok bool, key, message string) {
	current, exists := fe[key]
	if exists && current != "" {
		return
	}
	if !ok {
		fe[key] = message
	} else if !exists {
		fe[key] = ""
	}
}

// Failing returns only the entries that carry a message.
func (fe FieldErrors) Failing() FieldErrors {
	out := FieldErrors{}
	for k, msg := range fe {
		if msg != "" {
			out[k] = msg
		}
	}
	return out
}

// StepErrors is the outcome of validating one step. List steps report per-entry errors keyed by list index.
type StepErrors struct {
	Fields  FieldErrors         `json:"fields"`
	Entries map[int]FieldErrors `json:"entries,omitempty"`
}

func (se StepErrors) Valid() bool {
	if !se.Fields.Valid() {
		return false
	}
	for _, entry := range se.Entries {
		if !entry.Valid() {
			return false
		}
	}
	return true
}

// RecordErrors holds the errors of every invalid step.
type RecordErrors map[Step]StepErrors

func (re RecordErrors) Valid() bool {
	return len(re) == 0
}

// Extras flattens the errors into the shape rendered in HTTP error responses.
func (re RecordErrors) Extras() map[string]any {
	extras := make(map[string]any, len(re))
	for step, se := range re {
		extras[string(step)] = se
	}
	return extras
}

// Validator holds the step validation rules. Now is the clock used to decide what "today" is.
type Validator struct {
	Now func() time.Time
}

func NewValidator() *Validator {
	return &Validator{Now: time.Now}
}

func (v *Validator) today() time.Time {
	now := time.Now()
	if v != nil && v.Now != nil {
		now = v.Now()
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Storage limits of the personal fields, in characters.
const (
	MaxNameLength        = 128
	MaxDateOfBirthLength = 32
)

func tooLong(s string, limit int) bool {
	return utf8.RuneCountInString(s) > limit
}

func (v *Validator) ValidatePersonal(name CustomerName, dateOfBirth Date) StepErrors {
	nameTooLong := fmt.Sprintf("must be at most %d characters", MaxNameLength)

	fields := FieldErrors{}
	fields.Check(!isBlank(name.FirstName), "firstName", "First name is required")
	fields.Check(!tooLong(name.FirstName, MaxNameLength), "firstName", "First name "+nameTooLong)
	fields.Check(!isBlank(name.LastName), "lastName", "Last name is required")
	fields.Check(!tooLong(name.LastName, MaxNameLength), "lastName", "Last name "+nameTooLong)
	// middle name is optional and only reported when it fails
	if tooLong(name.MiddleName, MaxNameLength) {
		fields["middleName"] = "Middle name " + nameTooLong
	}

	fields.Check(!dateOfBirth.IsZero(), "dateOfBirth", "Date of birth is required")
	fields.Check(!tooLong(string(dateOfBirth), MaxDateOfBirthLength), "dateOfBirth", "Date of birth must be a valid date")
	if !dateOfBirth.IsZero() {
		dob, err := dateOfBirth.Time()
		fields.Check(err == nil, "dateOfBirth", "Date of birth must be a valid date")
		if err == nil {
			fields.Check(!dob.After(v.today()), "dateOfBirth", "Date of birth cannot be in the future")
		}
	}

	return StepErrors{Fields: fields}
}

func (v *Validator) ValidateAddress(address Address) StepErrors {
	fields := FieldErrors{}
	fields.Check(!isBlank(address.Street), "street", "Street address is required")
	fields.Check(!isBlank(address.City), "city", "City is required")
	fields.Check(!isBlank(address.State), "state", "State is required")
	fields.Check(!isBlank(address.ZipCode), "zipCode", "ZIP code is required")
	fields.Check(!isBlank(address.Country), "country", "Country is required")
	return StepErrors{Fields: fields}
}

// ValidateContact treats absent contact details as an empty form.
func (v *Validator) ValidateContact(contact *ContactDetails) StepErrors {
	var cd ContactDetails
	if contact != nil {
		cd = *contact
	}

	fields := FieldErrors{}
	email := strings.TrimSpace(cd.Email)
	fields.Check(email != "", "email", "Email is required")
	if email != "" {
		fields.Check(utils.ValidateEmail(email) == nil, "email", "Invalid email format")
	}
	fields.Check(!isBlank(cd.PhoneNumber), "phoneNumber", "Phone number is required")
	if cd.PreferredContactMethod != "" {
		_, err := ParseContactMethod(string(cd.PreferredContactMethod))
		fields.Check(err == nil, "preferredContactMethod", "Invalid preferred contact method")
	}
	return StepErrors{Fields: fields}
}

func (v *Validator) ValidateDocuments(documents []IdentityDocument) StepErrors {
	fields := FieldErrors{}
	fields.Check(len(documents) > 0, "identityDocuments", "At least one identity document is required")

	entries := map[int]FieldErrors{}
	for i, doc := range documents {
		if docErrors := v.validateDocument(doc); len(docErrors) > 0 {
			entries[i] = docErrors
		}
	}
	return StepErrors{Fields: fields, Entries: entries}
}

// validateDocument returns only the failing fields of a document.
func (v *Validator) validateDocument(doc IdentityDocument) FieldErrors {
	fields := FieldErrors{}
	fields.Check(!isBlank(doc.Type), "type", "Document type is required")
	fields.Check(!isBlank(doc.Number), "number", "Document number is required")
	fields.Check(!isBlank(doc.IssuingAuthority), "issuingAuthority", "Issuing authority is required")
	fields.Check(!doc.IssueDate.IsZero(), "issueDate", "Issue date is required")
	fields.Check(!doc.ExpiryDate.IsZero(), "expiryDate", "Expiry date is required")

	var issue, expiry time.Time
	var issueErr, expiryErr error
	if !doc.IssueDate.IsZero() {
		issue, issueErr = doc.IssueDate.Time()
		fields.Check(issueErr == nil, "issueDate", "Issue date must be a valid date")
	}
	if !doc.ExpiryDate.IsZero() {
		expiry, expiryErr = doc.ExpiryDate.Time()
		fields.Check(expiryErr == nil, "expiryDate", "Expiry date must be a valid date")
	}
	if !doc.IssueDate.IsZero() && !doc.ExpiryDate.IsZero() && issueErr == nil && expiryErr == nil {
		fields.Check(expiry.After(issue), "expiryDate", "Expiry date must be after issue date")
	}

	return fields.Failing()
}

func (v *Validator) ValidateProofs(proofs []IdentityProof) StepErrors {
	fields := FieldErrors{}
	fields.Check(len(proofs) > 0, "identityProofs", "At least one identity proof is required")

	entries := map[int]FieldErrors{}
	for i, proof := range proofs {
		proofErrors := FieldErrors{}
		proofErrors.Check(!isBlank(string(proof.Type)), "type", "Proof type is required")
		if !isBlank(string(proof.Type)) {
			proofErrors.Check(proof.Type.IsValid(), "type", "Invalid proof type")
		}
		proofErrors.Check(!isBlank(proof.DocumentNumber), "documentNumber", "Document number is required")
		if failing := proofErrors.Failing(); len(failing) > 0 {
			entries[i] = failing
		}
	}
	return StepErrors{Fields: fields, Entries: entries}
}

// ValidateStep validates the slice of record that step owns.
func (v *Validator) ValidateStep(step Step, record CustomerRecord) (StepErrors, error) {
	switch step {
	case StepPersonal:
		return v.ValidatePersonal(record.Name, record.DateOfBirth), nil
	case StepAddress:
		return v.ValidateAddress(record.Address), nil
	case StepContact:
		return v.ValidateContact(record.ContactDetails), nil
	case StepDocuments:
		return v.ValidateDocuments(record.IdentityDocuments), nil
	case StepProofs:
		return v.ValidateProofs(record.IdentityProofs), nil
	default:
		return StepErrors{}, fmt.Errorf("unknown step %q", step)
	}
}

// ValidateRecord validates every configured step and returns the invalid ones.
func (v *Validator) ValidateRecord(record CustomerRecord, steps Steps) (RecordErrors, error) {
	errs := RecordErrors{}
	for _, step := range steps {
		se, err := v.ValidateStep(step, record)
		if err != nil {
			return nil, fmt.Errorf("validating step %s: %w", step, err)
		}
		if !se.Valid() {
			errs[step] = se
		}
	}
	return errs, nil
}
