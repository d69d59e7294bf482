package intake

import (
	"fmt"
	"strings"
	"time"
)

type CustomerName struct {
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
}

// FullName joins the non-empty name parts with single spaces.
func (n CustomerName) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.FirstName, n.MiddleName, n.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type ContactMethod string

const (
	ContactMethodEmail ContactMethod = "EMAIL"
	ContactMethodPhone ContactMethod = "PHONE"
	ContactMethodSMS   ContactMethod = "SMS"
)

func ContactMethods() []ContactMethod {
	return []ContactMethod{ContactMethodEmail, ContactMethodPhone, ContactMethodSMS}
}

func ParseContactMethod(s string) (ContactMethod, error) {
	cm := ContactMethod(strings.ToUpper(strings.TrimSpace(s)))
	for _, m := range ContactMethods() {
		if cm == m {
			return cm, nil
		}
	}
	return "", fmt.Errorf("invalid contact method %q", s)
}

type ContactDetails struct {
	Email                  string        `json:"email"`
	PhoneNumber            string        `json:"phoneNumber"`
	AlternatePhoneNumber   string        `json:"alternatePhoneNumber,omitempty"`
	PreferredContactMethod ContactMethod `json:"preferredContactMethod"`
}

type IdentityDocument struct {
	Type             string `json:"type"`
	Number           string `json:"number"`
	IssuingAuthority string `json:"issuingAuthority"`
	IssueDate        Date   `json:"issueDate"`
	ExpiryDate       Date   `json:"expiryDate"`
}

type ProofType string

const (
	ProofTypeTaxID                ProofType = "Tax ID"
	ProofTypeNationalID           ProofType = "National ID"
	ProofTypeSocialSecurityNumber ProofType = "Social Security Number"
	ProofTypeBirthCertificate     ProofType = "Birth Certificate"
	ProofTypeOther                ProofType = "Other"
)

func ProofTypes() []ProofType {
	return []ProofType{
		ProofTypeTaxID,
		ProofTypeNationalID,
		ProofTypeSocialSecurityNumber,
		ProofTypeBirthCertificate,
		ProofTypeOther,
	}
}

func (pt ProofType) IsValid() bool {
	for _, t := range ProofTypes() {
		if pt == t {
			return true
		}
	}
	return false
}

// VerificationStatus is assigned by the backend. The wizard carries it but never writes it.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

func ParseVerificationStatus(s string) (VerificationStatus, error) {
	vs := VerificationStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch vs {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return vs, nil
	default:
		return "", fmt.Errorf("invalid verification status %q", s)
	}
}

type IdentityProof struct {
	Type               ProofType          `json:"type"`
	DocumentNumber     string             `json:"documentNumber"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
}

type CustomerRecord struct {
	ID                string             `json:"id,omitempty"`
	Name              CustomerName       `json:"name"`
	DateOfBirth       Date               `json:"dateOfBirth"`
	Address           Address            `json:"address"`
	ContactDetails    *ContactDetails    `json:"contactDetails,omitempty"`
	IdentityDocuments []IdentityDocument `json:"identityDocuments"`
	IdentityProofs    []IdentityProof    `json:"identityProofs"`
	CreatedAt         *time.Time         `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time         `json:"updatedAt,omitempty"`
}

// NewCustomerRecord returns the blank record a new intake starts from: every scalar empty, one placeholder
// document and one placeholder proof.
func NewCustomerRecord() CustomerRecord {
	return CustomerRecord{
		IdentityDocuments: []IdentityDocument{{}},
		IdentityProofs:    []IdentityProof{{VerificationStatus: VerificationStatusPending}},
	}
}

// Clone returns a deep copy so callers can hand records out without sharing slices.
func (r CustomerRecord) Clone() CustomerRecord {
	c := r
	if r.ContactDetails != nil {
		cd := *r.ContactDetails
		c.ContactDetails = &cd
	}
	if r.IdentityDocuments != nil {
		c.IdentityDocuments = append(make([]IdentityDocument, 0, len(r.IdentityDocuments)), r.IdentityDocuments...)
	}
	if r.IdentityProofs != nil {
		c.IdentityProofs = append(make([]IdentityProof, 0, len(r.IdentityProofs)), r.IdentityProofs...)
	}
	if r.CreatedAt != nil {
		t := *r.CreatedAt
		c.CreatedAt = &t
	}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}

// CarryVerificationStatus returns updated proofs whose verification status is copied from the proof at the same index
// in previous when the document number did not change. Every other proof is reset to PENDING.
func CarryVerificationStatus(previous, updated []IdentityProof) []IdentityProof {
	out := make([]IdentityProof, len(updated))
	for i, p := range updated {
		p.VerificationStatus = VerificationStatusPending
		if i < len(previous) && previous[i].DocumentNumber == p.DocumentNumber && previous[i].VerificationStatus != "" {
			p.VerificationStatus = previous[i].VerificationStatus
		}
		out[i] = p
	}
	return out
}
