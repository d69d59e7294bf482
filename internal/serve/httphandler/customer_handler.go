package httphandler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
	"github.com/stellar/go-stellar-sdk/support/http/httpdecode"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/stellar/customer-intake-backend/internal/data"
	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/serve/httperror"
	"github.com/stellar/customer-intake-backend/internal/serve/validators"
	"github.com/stellar/customer-intake-backend/internal/utils"
)

// CustomerHandler serves the customer records API that the intake gateway talks to.
type CustomerHandler struct {
	Customers data.CustomerStore
	Validator *intake.Validator
}

func (h CustomerHandler) GetCustomers(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewCustomerQueryValidator()
	queryParams := validator.ParseParametersFromRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).Render(rw)
		return
	}

	customers, err := h.Customers.GetAll(ctx, *queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Cannot retrieve customers", err, nil).Render(rw)
		return
	}

	records := make([]intake.CustomerRecord, 0, len(customers))
	for _, c := range customers {
		records = append(records, c.Record())
	}
	httpjson.RenderStatus(rw, http.StatusOK, records, httpjson.JSON)
}

func (h CustomerHandler) GetCustomer(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "id")

	customer, err := h.Customers.Get(ctx, customerID)
	if err != nil {
		h.renderLookupError(rw, r, customerID, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, customer.Record(), httpjson.JSON)
}

func (h CustomerHandler) CreateCustomer(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	record, httpErr := h.decodeRecord(r)
	if httpErr != nil {
		httpErr.Render(rw)
		return
	}

	customer, err := h.Customers.Insert(ctx, record)
	if err != nil {
		httperror.InternalError(ctx, "Cannot create customer", err, nil).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusCreated, customer.Record(), httpjson.JSON)
}

func (h CustomerHandler) UpdateCustomer(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "id")

	record, httpErr := h.decodeRecord(r)
	if httpErr != nil {
		httpErr.Render(rw)
		return
	}

	customer, err := h.Customers.Update(ctx, customerID, record)
	if err != nil {
		h.renderLookupError(rw, r, customerID, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, customer.Record(), httpjson.JSON)
}

func (h CustomerHandler) DeleteCustomer(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "id")

	if err := h.Customers.Delete(ctx, customerID); err != nil {
		h.renderLookupError(rw, r, customerID, err)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

type VerificationStatusRequest struct {
	Status string `json:"status"`
}

// UpdateProofStatus sets the verification verdict of one identity proof. Intake clients never send statuses; this is
// the only way they change.
func (h CustomerHandler) UpdateProofStatus(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "id")

	validator := validators.NewValidator()
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	validator.Check(err == nil && index >= 0, "index", "proof index must be a non-negative integer")

	var reqBody VerificationStatusRequest
	if err = httpdecode.DecodeJSON(r, &reqBody); err != nil {
		httperror.BadRequest("invalid request body", err, nil).WithErrorCode(httperror.Code400_0).Render(rw)
		return
	}
	status, err := intake.ParseVerificationStatus(reqBody.Status)
	validator.CheckError(err, "status", "status must be one of PENDING, VERIFIED or REJECTED")
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).Render(rw)
		return
	}

	customer, err := h.Customers.SetVerificationStatus(ctx, customerID, index, status)
	if err != nil {
		h.renderLookupError(rw, r, customerID, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, customer.Record(), httpjson.JSON)
}

type CustomerCSV struct {
	ID                     string
	FirstName              string
	MiddleName             string
	LastName               string
	DateOfBirth            string
	Street                 string `csv:"Address.Street"`
	City                   string `csv:"Address.City"`
	State                  string `csv:"Address.State"`
	ZipCode                string `csv:"Address.ZipCode"`
	Country                string `csv:"Address.Country"`
	Email                  string `csv:"Contact.Email"`
	PhoneNumber            string `csv:"Contact.PhoneNumber"`
	PreferredContactMethod string `csv:"Contact.PreferredContactMethod"`
	IdentityDocuments      int
	IdentityProofs         int
	VerifiedProofs         int
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// NewCustomerCSV flattens a customer into one CSV row. Phone numbers are written in E.164 when they parse.
func NewCustomerCSV(c data.Customer) *CustomerCSV {
	record := c.Record()
	row := &CustomerCSV{
		ID:                record.ID,
		FirstName:         record.Name.FirstName,
		MiddleName:        record.Name.MiddleName,
		LastName:          record.Name.LastName,
		DateOfBirth:       record.DateOfBirth.String(),
		Street:            record.Address.Street,
		City:              record.Address.City,
		State:             record.Address.State,
		ZipCode:           record.Address.ZipCode,
		Country:           record.Address.Country,
		IdentityDocuments: len(record.IdentityDocuments),
		IdentityProofs:    len(record.IdentityProofs),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if cd := record.ContactDetails; cd != nil {
		row.Email = cd.Email
		row.PreferredContactMethod = string(cd.PreferredContactMethod)
		row.PhoneNumber = cd.PhoneNumber
		if e164, err := utils.FormatPhoneNumberE164(cd.PhoneNumber); err == nil {
			row.PhoneNumber = e164
		}
	}

	for _, p := range record.IdentityProofs {
		if p.VerificationStatus == intake.VerificationStatusVerified {
			row.VerifiedProofs++
		}
	}
	return row
}

func (h CustomerHandler) ExportCustomers(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	validator := validators.NewCustomerQueryValidator()
	queryParams := validator.ParseParametersFromRequest(r)
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).Render(rw)
		return
	}

	customers, err := h.Customers.GetAll(ctx, *queryParams)
	if err != nil {
		httperror.InternalError(ctx, "Failed to get customers", err, nil).Render(rw)
		return
	}

	rows := make([]*CustomerCSV, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, NewCustomerCSV(c))
	}

	fileName := fmt.Sprintf("customers_%s.csv", time.Now().Format("2006-01-02-15-04-05"))
	rw.Header().Set("Content-Type", "text/csv")
	rw.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fileName))

	if err := gocsv.Marshal(rows, rw); err != nil {
		httperror.InternalError(ctx, "Failed to write CSV", err, nil).Render(rw)
		return
	}
}

// decodeRecord checks the body against the customer schema, normalizes it and validates it over the flow its
// contact details imply.
func (h CustomerHandler) decodeRecord(r *http.Request) (intake.CustomerRecord, *httperror.HTTPError) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return intake.CustomerRecord{}, httperror.BadRequest("invalid request body", err, nil).WithErrorCode(httperror.Code400_0)
	}

	payloadValidator := validators.NewCustomerPayloadValidator()
	raw := payloadValidator.ValidateAndDecode(body)
	if payloadValidator.HasErrors() {
		return intake.CustomerRecord{}, httperror.BadRequest("invalid request body", nil, payloadValidator.Errors).WithErrorCode(httperror.Code400_0)
	}

	record := intake.NormalizeWithContext(ctx, *raw)
	record.ID = ""

	validator := h.Validator
	if validator == nil {
		validator = intake.NewValidator()
	}
	errs, err := validator.ValidateRecord(record, intake.FlowFor(record.ContactDetails != nil))
	if err != nil {
		return intake.CustomerRecord{}, httperror.InternalError(ctx, "Cannot validate customer", err, nil)
	}
	if !errs.Valid() {
		return intake.CustomerRecord{}, httperror.BadRequest("customer record is invalid", nil, errs.Extras()).WithErrorCode(httperror.Code400_1)
	}

	return record, nil
}

func (h CustomerHandler) renderLookupError(rw http.ResponseWriter, r *http.Request, customerID string, err error) {
	if errors.Is(err, data.ErrRecordNotFound) {
		msg := fmt.Sprintf("could not retrieve customer with ID: %s", customerID)
		httperror.NotFound(msg, err, nil).WithErrorCode(httperror.Code404_0).Render(rw)
		return
	}
	msg := fmt.Sprintf("Cannot process customer with ID %s", customerID)
	httperror.InternalError(r.Context(), msg, err, nil).Render(rw)
}
