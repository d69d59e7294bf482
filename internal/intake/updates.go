package intake

// StepUpdate is the partial data one step contributes to the record. Object-valued steps merge field by field (a nil
// pointer leaves the field alone); list-valued steps replace the whole list.
type StepUpdate interface {
	Step() Step
	apply(record *CustomerRecord)
}

type PersonalUpdate struct {
	Name        *CustomerName `json:"name,omitempty"`
	DateOfBirth *Date         `json:"dateOfBirth,omitempty"`
}

func (PersonalUpdate) Step() Step { return StepPersonal }

func (u PersonalUpdate) apply(record *CustomerRecord) {
	if u.Name != nil {
		record.Name = *u.Name
	}
	if u.DateOfBirth != nil {
		record.DateOfBirth = *u.DateOfBirth
	}
}

type AddressUpdate struct {
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	ZipCode *string `json:"zipCode,omitempty"`
	Country *string `json:"country,omitempty"`
}

func (AddressUpdate) Step() Step { return StepAddress }

func (u AddressUpdate) apply(record *CustomerRecord) {
	setIfPresent(&record.Address.Street, u.Street)
	setIfPresent(&record.Address.City, u.City)
	setIfPresent(&record.Address.State, u.State)
	setIfPresent(&record.Address.ZipCode, u.ZipCode)
	setIfPresent(&record.Address.Country, u.Country)
}

type ContactUpdate struct {
	Email                  *string        `json:"email,omitempty"`
	PhoneNumber            *string        `json:"phoneNumber,omitempty"`
	AlternatePhoneNumber   *string        `json:"alternatePhoneNumber,omitempty"`
	PreferredContactMethod *ContactMethod `json:"preferredContactMethod,omitempty"`
}

func (ContactUpdate) Step() Step { return StepContact }

func (u ContactUpdate) apply(record *CustomerRecord) {
	if record.ContactDetails == nil {
		record.ContactDetails = &ContactDetails{PreferredContactMethod: ContactMethodEmail}
	}
	cd := record.ContactDetails
	setIfPresent(&cd.Email, u.Email)
	setIfPresent(&cd.PhoneNumber, u.PhoneNumber)
	setIfPresent(&cd.AlternatePhoneNumber, u.AlternatePhoneNumber)
	if u.PreferredContactMethod != nil {
		cd.PreferredContactMethod = *u.PreferredContactMethod
	}
}

type DocumentsUpdate struct {
	IdentityDocuments []IdentityDocument `json:"identityDocuments"`
}

func (DocumentsUpdate) Step() Step { return StepDocuments }

func (u DocumentsUpdate) apply(record *CustomerRecord) {
	record.IdentityDocuments = append(make([]IdentityDocument, 0, len(u.IdentityDocuments)), u.IdentityDocuments...)
}

// ProofInput is the user-editable part of an identity proof. The verification status is not part of it.
type ProofInput struct {
	Type           ProofType `json:"type"`
	DocumentNumber string    `json:"documentNumber"`
}

type ProofsUpdate struct {
	IdentityProofs []ProofInput `json:"identityProofs"`
}

func (ProofsUpdate) Step() Step { return StepProofs }

func (u ProofsUpdate) apply(record *CustomerRecord) {
	proofs := make([]IdentityProof, 0, len(u.IdentityProofs))
	for _, in := range u.IdentityProofs {
		proofs = append(proofs, IdentityProof{Type: in.Type, DocumentNumber: in.DocumentNumber})
	}
	record.IdentityProofs = CarryVerificationStatus(record.IdentityProofs, proofs)
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// NewStepUpdate returns an empty update value for step, ready to be decoded into.
func NewStepUpdate(step Step) (StepUpdate, bool) {
	switch step {
	case StepPersonal:
		return &PersonalUpdate{}, true
	case StepAddress:
		return &AddressUpdate{}, true
	case StepContact:
		return &ContactUpdate{}, true
	case StepDocuments:
		return &DocumentsUpdate{}, true
	case StepProofs:
		return &ProofsUpdate{}, true
	default:
		return nil, false
	}
}
