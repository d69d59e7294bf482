package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
)

// RawRecord is a customer record as it arrives from a backend or a client, before normalization. The name may be
// legacy or structured, the id may be a number or a string, and any collection may be missing.
type RawRecord struct {
	ID                json.RawMessage    `json:"id,omitempty"`
	Name              NameField          `json:"name"`
	DateOfBirth       Date               `json:"dateOfBirth"`
	Address           *Address           `json:"address"`
	ContactDetails    *ContactDetails    `json:"contactDetails"`
	IdentityDocuments []IdentityDocument `json:"identityDocuments"`
	IdentityProofs    []IdentityProof    `json:"identityProofs"`
	CreatedAt         *time.Time         `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time         `json:"updatedAt,omitempty"`
}

// Anomaly describes input that Normalize had to repair.
type Anomaly struct {
	Field  string
	Detail string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: %s", a.Field, a.Detail)
}

// Normalize converts a raw record into the canonical CustomerRecord. It never fails: malformed values degrade to
// empty strings and defaults.
func Normalize(raw RawRecord) CustomerRecord {
	record, _ := normalize(raw)
	return record
}

// NormalizeWithContext is Normalize plus a warning log line for every repaired field.
func NormalizeWithContext(ctx context.Context, raw RawRecord) CustomerRecord {
	record, anomalies := normalize(raw)
	for _, a := range anomalies {
		log.Ctx(ctx).WithField("customer_id", record.ID).Warnf("normalizing customer record: %s", a)
	}
	return record
}

// NormalizeAll normalizes a list of raw records.
func NormalizeAll(ctx context.Context, raws []RawRecord) []CustomerRecord {
	records := make([]CustomerRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, NormalizeWithContext(ctx, raw))
	}
	return records
}

func normalize(raw RawRecord) (CustomerRecord, []Anomaly) {
	var anomalies []Anomaly
	note := func(field, format string, args ...any) {
		anomalies = append(anomalies, Anomaly{Field: field, Detail: fmt.Sprintf(format, args...)})
	}

	record := CustomerRecord{
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}

	id, ok := normalizeID(raw.ID)
	if !ok {
		note("id", "unsupported id %s", string(raw.ID))
	}
	record.ID = id

	switch {
	case raw.Name.structured != nil:
		record.Name = *raw.Name.structured
	case raw.Name.legacy != nil:
		record.Name = splitLegacyName(*raw.Name.legacy)
		note("name", "split legacy name into structured form")
	case raw.Name.malformed != nil:
		note("name", "unsupported name value %s", string(raw.Name.malformed))
	}

	dob, rewritten := normalizeDate(raw.DateOfBirth)
	if rewritten {
		note("dateOfBirth", "rewrote %q as %q", raw.DateOfBirth, dob)
	}
	record.DateOfBirth = dob

	if raw.Address != nil {
		record.Address = *raw.Address
	} else {
		note("address", "missing address")
	}

	if raw.ContactDetails != nil {
		cd := *raw.ContactDetails
		if strings.TrimSpace(string(cd.PreferredContactMethod)) == "" {
			cd.PreferredContactMethod = ContactMethodEmail
		} else if cm, err := ParseContactMethod(string(cd.PreferredContactMethod)); err == nil {
			cd.PreferredContactMethod = cm
		}
		record.ContactDetails = &cd
	}

	record.IdentityDocuments = make([]IdentityDocument, 0, len(raw.IdentityDocuments))
	for i, doc := range raw.IdentityDocuments {
		var issueRewritten, expiryRewritten bool
		doc.IssueDate, issueRewritten = normalizeDate(doc.IssueDate)
		doc.ExpiryDate, expiryRewritten = normalizeDate(doc.ExpiryDate)
		if issueRewritten || expiryRewritten {
			note(fmt.Sprintf("identityDocuments[%d]", i), "rewrote document dates")
		}
		record.IdentityDocuments = append(record.IdentityDocuments, doc)
	}

	record.IdentityProofs = make([]IdentityProof, 0, len(raw.IdentityProofs))
	for i, proof := range raw.IdentityProofs {
		if strings.TrimSpace(string(proof.VerificationStatus)) == "" {
			proof.VerificationStatus = VerificationStatusPending
		} else if vs, err := ParseVerificationStatus(string(proof.VerificationStatus)); err == nil {
			proof.VerificationStatus = vs
		} else {
			note(fmt.Sprintf("identityProofs[%d].verificationStatus", i), "unknown status %q, using %s", proof.VerificationStatus, VerificationStatusPending)
			proof.VerificationStatus = VerificationStatusPending
		}
		record.IdentityProofs = append(record.IdentityProofs, proof)
	}

	return record, anomalies
}

// normalizeID accepts a JSON string or number. Anything else yields an empty id.
func normalizeID(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", true
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s), true
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String(), true
	}

	return "", false
}

// RawFromRecord converts a canonical record back to its wire form, with the structured name.
func RawFromRecord(record CustomerRecord) RawRecord {
	raw := RawRecord{
		Name:              StructuredName(record.Name),
		DateOfBirth:       record.DateOfBirth,
		ContactDetails:    record.ContactDetails,
		IdentityDocuments: record.IdentityDocuments,
		IdentityProofs:    record.IdentityProofs,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
	address := record.Address
	raw.Address = &address
	if record.ID != "" {
		raw.ID, _ = json.Marshal(record.ID)
	}
	return raw
}
