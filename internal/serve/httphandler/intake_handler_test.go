package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/session"
)

func setupIntakeRouter(t *testing.T) (*chi.Mux, *intake.MockGateway, *session.Store) {
	t.Helper()

	gateway := intake.NewMockGateway(t)
	store, err := session.NewStore(session.StoreOptions{Gateway: gateway, Steps: intake.FiveStepFlow})
	require.NoError(t, err)

	h := IntakeHandler{Sessions: store}
	r := chi.NewRouter()
	r.Route("/api/intake", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.Abandon)
			r.Post("/next", h.Next)
			r.Post("/previous", h.Previous)
			r.Post("/submit", h.Submit)
			r.Patch("/steps/{index}", h.UpdateStep)
			r.Get("/steps/{index}/validation", h.ValidateStep)
			r.Post("/steps/{index}/goto", h.GoTo)
		})
	})
	return r, gateway, store
}

func decodeView(t *testing.T, body []byte) session.View {
	t.Helper()

	var view session.View
	require.NoError(t, json.Unmarshal(body, &view))
	return view
}

func startSession(t *testing.T, r http.Handler) session.View {
	t.Helper()

	rr := doRequest(r, http.MethodPost, "/api/intake", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeView(t, rr.Body.Bytes())
}

var stepBodies = []string{
	`{"name": {"firstName": "Jane", "lastName": "Doe"}, "dateOfBirth": "1990-01-01"}`,
	`{"street": "1 Main St", "city": "SF", "state": "CA", "zipCode": "94105", "country": "US"}`,
	`{"email": "jane@doe.com", "phoneNumber": "+14155555555"}`,
	`{"identityDocuments": [{"type": "Passport", "number": "P1", "issuingAuthority": "DoS", "issueDate": "2020-01-01", "expiryDate": "2030-01-01"}]}`,
	`{"identityProofs": [{"type": "Tax ID", "documentNumber": "T1"}]}`,
}

func fillSession(t *testing.T, r http.Handler, sessionID string) {
	t.Helper()

	for i, body := range stepBodies {
		rr := doRequest(r, http.MethodPatch, fmt.Sprintf("/api/intake/%s/steps/%d", sessionID, i), body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}
}

func Test_IntakeHandler_StartSession(t *testing.T) {
	t.Run("new session starts on the first step", func(t *testing.T) {
		r, _, _ := setupIntakeRouter(t)

		view := startSession(t, r)
		_, err := uuid.Parse(view.ID)
		assert.NoError(t, err)
		assert.Equal(t, 0, view.StepIndex)
		assert.Equal(t, intake.StepPersonal, view.Step)
		assert.Equal(t, intake.FiveStepFlow, view.Steps)
		assert.False(t, view.Reviewing)
		assert.Len(t, view.Record.IdentityDocuments, 1)
		assert.Len(t, view.Record.IdentityProofs, 1)
	})

	t.Run("resumes a stored customer", func(t *testing.T) {
		r, gateway, _ := setupIntakeRouter(t)
		stored := validRecord()
		stored.ID = "42"
		gateway.On("Load", mock.Anything, "42").Return(stored, nil).Once()

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId": "42"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
		view := decodeView(t, rr.Body.Bytes())
		assert.Equal(t, "42", view.Record.ID)
		assert.Equal(t, "Jane", view.Record.Name.FirstName)
	})

	t.Run("unknown customer", func(t *testing.T) {
		r, gateway, _ := setupIntakeRouter(t)
		gateway.On("Load", mock.Anything, "404").Return(intake.CustomerRecord{}, intake.ErrRecordNotFound).Once()

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId": "404"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error": "could not retrieve customer with ID: 404", "error_code": "404_0"}`, rr.Body.String())
	})

	t.Run("backend failure", func(t *testing.T) {
		r, gateway, _ := setupIntakeRouter(t)
		gateway.On("Load", mock.Anything, "42").Return(intake.CustomerRecord{}, errors.New("connection refused")).Once()

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId": "42"}`)
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("empty customer id", func(t *testing.T) {
		r, _, _ := setupIntakeRouter(t)

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId": ""}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "customer id cannot be empty")
	})

	t.Run("malformed body", func(t *testing.T) {
		r, _, _ := setupIntakeRouter(t)

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func Test_IntakeHandler_unknownSessions(t *testing.T) {
	r, _, _ := setupIntakeRouter(t)

	rr := doRequest(r, http.MethodGet, "/api/intake/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error": "intake session not found", "error_code": "404_1"}`, rr.Body.String())

	rr = doRequest(r, http.MethodGet, "/api/intake/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{
		"error": "intake session not found",
		"error_code": "404_1",
		"extras": {"session_id": "session id must be a valid UUID"}
	}`, rr.Body.String())
}

func Test_IntakeHandler_UpdateStep(t *testing.T) {
	r, _, _ := setupIntakeRouter(t)
	view := startSession(t, r)
	base := "/api/intake/" + view.ID

	t.Run("merges the step data", func(t *testing.T) {
		rr := doRequest(r, http.MethodPatch, base+"/steps/1", `{"city": "SF"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decodeView(t, rr.Body.Bytes())
		assert.Equal(t, "SF", got.Record.Address.City)
		assert.Equal(t, 0, got.StepIndex, "updating never moves the wizard")

		rr = doRequest(r, http.MethodPatch, base+"/steps/1", `{"street": "1 Main St"}`)
		require.Equal(t, http.StatusOK, rr.Code)
		got = decodeView(t, rr.Body.Bytes())
		assert.Equal(t, intake.Address{Street: "1 Main St", City: "SF"}, got.Record.Address)
	})

	t.Run("proof statuses cannot be set by the client", func(t *testing.T) {
		rr := doRequest(r, http.MethodPatch, base+"/steps/4",
			`{"identityProofs": [{"type": "Tax ID", "documentNumber": "T1", "verificationStatus": "VERIFIED"}]}`)
		require.Equal(t, http.StatusOK, rr.Code)
		got := decodeView(t, rr.Body.Bytes())
		require.Len(t, got.Record.IdentityProofs, 1)
		assert.Equal(t, intake.VerificationStatusPending, got.Record.IdentityProofs[0].VerificationStatus)
	})

	t.Run("step index out of range", func(t *testing.T) {
		rr := doRequest(r, http.MethodPatch, base+"/steps/5", `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{
			"error": "request invalid",
			"error_code": "400_2",
			"extras": {"index": "step index out of range: 5 not in [0, 5)"}
		}`, rr.Body.String())

		rr = doRequest(r, http.MethodPatch, base+"/steps/first", `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := doRequest(r, http.MethodPatch, base+"/steps/0", `{"name": "Jane"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error": "invalid request body", "error_code": "400_0"}`, rr.Body.String())
	})
}

func Test_IntakeHandler_ValidateStep(t *testing.T) {
	r, _, _ := setupIntakeRouter(t)
	view := startSession(t, r)
	base := "/api/intake/" + view.ID

	rr := doRequest(r, http.MethodGet, base+"/steps/0/validation", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StepValidationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, "First name is required", resp.Errors.Fields["firstName"])

	rr = doRequest(r, http.MethodPatch, base+"/steps/0", stepBodies[0])
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(r, http.MethodGet, base+"/steps/0/validation", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
}

func Test_IntakeHandler_navigation(t *testing.T) {
	r, _, _ := setupIntakeRouter(t)
	view := startSession(t, r)
	base := "/api/intake/" + view.ID

	t.Run("next is blocked by an incomplete step", func(t *testing.T) {
		rr := doRequest(r, http.MethodPost, base+"/next", "")
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var resp struct {
			ErrorCode string                 `json:"error_code"`
			Extras    map[string]interface{} `json:"extras"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "422_0", resp.ErrorCode)
		assert.Contains(t, resp.Extras, "personal")

		rr = doRequest(r, http.MethodGet, base, "")
		assert.Equal(t, 0, decodeView(t, rr.Body.Bytes()).StepIndex)
	})

	t.Run("force skips the check", func(t *testing.T) {
		rr := doRequest(r, http.MethodPost, base+"/next?force=true", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, decodeView(t, rr.Body.Bytes()).StepIndex)
	})

	t.Run("previous and goto", func(t *testing.T) {
		rr := doRequest(r, http.MethodPost, base+"/previous", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 0, decodeView(t, rr.Body.Bytes()).StepIndex)

		rr = doRequest(r, http.MethodPost, base+"/previous", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 0, decodeView(t, rr.Body.Bytes()).StepIndex, "previous on the first step stays put")

		rr = doRequest(r, http.MethodPost, base+"/steps/4/goto", "")
		require.Equal(t, http.StatusOK, rr.Code)
		got := decodeView(t, rr.Body.Bytes())
		assert.Equal(t, 4, got.StepIndex)
		assert.Equal(t, intake.StepProofs, got.Step)

		rr = doRequest(r, http.MethodPost, base+"/steps/9/goto", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("next from the last valid step enters review", func(t *testing.T) {
		fillSession(t, r, view.ID)

		rr := doRequest(r, http.MethodPost, base+"/next", "")
		require.Equal(t, http.StatusOK, rr.Code)
		got := decodeView(t, rr.Body.Bytes())
		assert.True(t, got.Reviewing)

		rr = doRequest(r, http.MethodPost, base+"/previous", "")
		require.Equal(t, http.StatusOK, rr.Code)
		got = decodeView(t, rr.Body.Bytes())
		assert.False(t, got.Reviewing)
		assert.Equal(t, 4, got.StepIndex)
	})
}

func Test_IntakeHandler_Submit(t *testing.T) {
	t.Run("invalid steps block the submit", func(t *testing.T) {
		r, _, _ := setupIntakeRouter(t)
		view := startSession(t, r)

		rr := doRequest(r, http.MethodPost, "/api/intake/"+view.ID+"/submit", "")
		require.Equal(t, http.StatusBadRequest, rr.Code)

		var resp struct {
			ErrorCode string                 `json:"error_code"`
			Extras    map[string]interface{} `json:"extras"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "400_1", resp.ErrorCode)
		assert.Len(t, resp.Extras, 5)
	})

	t.Run("creates the customer and discards the session", func(t *testing.T) {
		r, gateway, store := setupIntakeRouter(t)
		view := startSession(t, r)
		fillSession(t, r, view.ID)

		created := validRecord()
		created.ID = "100"
		gateway.
			On("Save", mock.Anything, mock.MatchedBy(func(record intake.CustomerRecord) bool {
				return record.ID == "" && record.Name.FirstName == "Jane" && record.ContactDetails != nil
			})).
			Return(created, nil).
			Once()

		rr := doRequest(r, http.MethodPost, "/api/intake/"+view.ID+"/submit", "")
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var saved intake.CustomerRecord
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
		assert.Equal(t, "100", saved.ID)
		assert.Equal(t, 0, store.Len())

		rr = doRequest(r, http.MethodGet, "/api/intake/"+view.ID, "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("backend failure keeps the session for a retry", func(t *testing.T) {
		r, gateway, _ := setupIntakeRouter(t)
		stored := validRecord()
		stored.ID = "42"
		gateway.On("Load", mock.Anything, "42").Return(stored, nil).Once()

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId": "42"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
		view := decodeView(t, rr.Body.Bytes())
		submitURL := "/api/intake/" + view.ID + "/submit"

		gateway.On("Update", mock.Anything, "42", mock.Anything).Return(intake.CustomerRecord{}, errors.New("status 503")).Once()
		rr = doRequest(r, http.MethodPost, submitURL, "")
		require.Equal(t, http.StatusBadGateway, rr.Code)
		assert.JSONEq(t, `{
			"error": "The customer records backend could not complete the request.",
			"error_code": "502_0"
		}`, rr.Body.String())

		rr = doRequest(r, http.MethodGet, "/api/intake/"+view.ID, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, decodeView(t, rr.Body.Bytes()).Submitting)

		gateway.On("Update", mock.Anything, "42", mock.Anything).Return(stored, nil).Once()
		rr = doRequest(r, http.MethodPost, submitURL, "")
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("edits are rejected while the submit is in flight", func(t *testing.T) {
		r, gateway, _ := setupIntakeRouter(t)
		stored := validRecord()
		stored.ID = "42"
		gateway.On("Load", mock.Anything, "42").Return(stored, nil).Once()

		rr := doRequest(r, http.MethodPost, "/api/intake", `{"customerId": "42"}`)
		require.Equal(t, http.StatusCreated, rr.Code)
		view := decodeView(t, rr.Body.Bytes())
		sessionURL := "/api/intake/" + view.ID

		release := make(chan struct{})
		gateway.On("Update", mock.Anything, "42", mock.MatchedBy(func(record intake.CustomerRecord) bool {
			return record.Name.FirstName == stored.Name.FirstName
		})).
			Run(func(mock.Arguments) { <-release }).
			Return(stored, nil).
			Once()

		submitted := make(chan int, 1)
		go func() {
			submitted <- doRequest(r, http.MethodPost, sessionURL+"/submit", "").Code
		}()

		require.Eventually(t, func() bool {
			var got session.View
			rr := doRequest(r, http.MethodGet, sessionURL, "")
			return json.Unmarshal(rr.Body.Bytes(), &got) == nil && got.Submitting
		}, time.Second, 5*time.Millisecond)

		inFlight := `{"error": "a submission is already in progress", "error_code": "409_0"}`
		rr = doRequest(r, http.MethodPatch, sessionURL+"/steps/0", `{"name": {"firstName": "Janet", "lastName": "Doe"}}`)
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.JSONEq(t, inFlight, rr.Body.String())

		rr = doRequest(r, http.MethodPost, sessionURL+"/steps/2/goto", "")
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.JSONEq(t, inFlight, rr.Body.String())

		rr = doRequest(r, http.MethodPost, sessionURL+"/previous", "")
		assert.Equal(t, http.StatusConflict, rr.Code)

		rr = doRequest(r, http.MethodPost, sessionURL+"/next", "")
		assert.Equal(t, http.StatusConflict, rr.Code)

		close(release)
		assert.Equal(t, http.StatusOK, <-submitted)
	})
}

func Test_IntakeHandler_Abandon(t *testing.T) {
	r, _, _ := setupIntakeRouter(t)
	view := startSession(t, r)

	rr := doRequest(r, http.MethodDelete, "/api/intake/"+view.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(r, http.MethodDelete, "/api/intake/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
