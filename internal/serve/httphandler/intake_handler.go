package httphandler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/stellar/go-stellar-sdk/support/http/httpdecode"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/serve/httperror"
	"github.com/stellar/customer-intake-backend/internal/serve/validators"
	"github.com/stellar/customer-intake-backend/internal/session"
)

// IntakeHandler drives intake wizards over HTTP. Each session wraps one wizard kept in the session store.
type IntakeHandler struct {
	Sessions *session.Store
}

type StartIntakeRequest struct {
	CustomerID *string `json:"customerId"`
}

type StepValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors intake.StepErrors `json:"errors"`
}

func (h IntakeHandler) StartSession(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody StartIntakeRequest
	if r.ContentLength != 0 {
		if err := httpdecode.DecodeJSON(r, &reqBody); err != nil {
			httperror.BadRequest("invalid request body", err, nil).WithErrorCode(httperror.Code400_0).Render(rw)
			return
		}
	}

	validator := validators.NewIntakeSessionValidator()
	customerID := validator.ValidateCustomerID(reqBody.CustomerID)
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).Render(rw)
		return
	}

	view, err := h.Sessions.Start(ctx, customerID)
	if err != nil {
		switch {
		case errors.Is(err, intake.ErrRecordNotFound):
			msg := fmt.Sprintf("could not retrieve customer with ID: %s", customerID)
			httperror.NotFound(msg, err, nil).WithErrorCode(httperror.Code404_0).Render(rw)
		case customerID != "":
			httperror.BadGateway("", err, nil).Render(rw)
		default:
			httperror.InternalError(ctx, "Cannot start intake session", err, nil).Render(rw)
		}
		return
	}

	httpjson.RenderStatus(rw, http.StatusCreated, view, httpjson.JSON)
}

func (h IntakeHandler) GetSession(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}

	view, err := h.Sessions.Get(sessionID)
	if err != nil {
		h.renderSessionError(rw, r, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, view, httpjson.JSON)
}

// UpdateStep merges the body into the record slice owned by the step at {index}. The body has the shape of that
// step's update.
func (h IntakeHandler) UpdateStep(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}
	index, step, ok := h.stepIndex(rw, r)
	if !ok {
		return
	}

	update, ok := intake.NewStepUpdate(step)
	if !ok {
		httperror.BadRequest("request invalid", nil, map[string]interface{}{"index": "step cannot be updated"}).
			WithErrorCode(httperror.Code400_2).Render(rw)
		return
	}
	if err := httpdecode.DecodeJSON(r, update); err != nil {
		httperror.BadRequest("invalid request body", err, nil).WithErrorCode(httperror.Code400_0).Render(rw)
		return
	}

	view, err := h.Sessions.Mutate(sessionID, func(w *intake.Wizard) error {
		return w.UpdateStep(index, update)
	})
	if err != nil {
		h.renderSessionError(rw, r, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, view, httpjson.JSON)
}

func (h IntakeHandler) ValidateStep(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}
	index, _, ok := h.stepIndex(rw, r)
	if !ok {
		return
	}

	var stepErrors intake.StepErrors
	_, err := h.Sessions.With(sessionID, func(w *intake.Wizard) error {
		var innerErr error
		stepErrors, innerErr = w.Validate(index)
		return innerErr
	})
	if err != nil {
		h.renderSessionError(rw, r, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, StepValidationResponse{Valid: stepErrors.Valid(), Errors: stepErrors}, httpjson.JSON)
}

// Next moves the wizard forward. The current step must pass validation unless force=true is set.
func (h IntakeHandler) Next(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	var blocked *intake.StepErrors
	view, err := h.Sessions.Mutate(sessionID, func(w *intake.Wizard) error {
		state := w.State()
		if !force && !state.Reviewing {
			se, innerErr := w.Validate(state.StepIndex)
			if innerErr != nil {
				return innerErr
			}
			if !se.Valid() {
				blocked = &se
				return nil
			}
		}
		w.Next()
		return nil
	})
	if err != nil {
		h.renderSessionError(rw, r, err)
		return
	}
	if blocked != nil {
		extras := map[string]interface{}{string(view.Step): *blocked}
		httperror.UnprocessableEntity("the current step is not complete", nil, extras).
			WithErrorCode(httperror.Code422_0).Render(rw)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, view, httpjson.JSON)
}

func (h IntakeHandler) Previous(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}

	view, err := h.Sessions.Mutate(sessionID, func(w *intake.Wizard) error {
		w.Previous()
		return nil
	})
	if err != nil {
		h.renderSessionError(rw, r, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, view, httpjson.JSON)
}

func (h IntakeHandler) GoTo(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}
	index, _, ok := h.stepIndex(rw, r)
	if !ok {
		return
	}

	view, err := h.Sessions.Mutate(sessionID, func(w *intake.Wizard) error {
		_, innerErr := w.GoTo(index)
		return innerErr
	})
	if err != nil {
		h.renderSessionError(rw, r, err)
		return
	}

	httpjson.RenderStatus(rw, http.StatusOK, view, httpjson.JSON)
}

// Submit validates every step and sends the record to the customer records backend. The session is discarded once
// the record is saved.
func (h IntakeHandler) Submit(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}

	result, err := h.Sessions.Submit(ctx, sessionID)
	if err != nil {
		var validationErr *session.ValidationError
		if errors.As(err, &validationErr) {
			httperror.BadRequest("customer record is invalid", err, validationErr.Errors.Extras()).
				WithErrorCode(httperror.Code400_1).Render(rw)
			return
		}
		h.renderSessionError(rw, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httpjson.RenderStatus(rw, status, result.Record, httpjson.JSON)
}

func (h IntakeHandler) Abandon(rw http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(rw, r)
	if !ok {
		return
	}

	if !h.Sessions.Abandon(sessionID) {
		h.renderSessionError(rw, r, session.ErrSessionNotFound)
		return
	}

	log.Ctx(r.Context()).Infof("intake session %s abandoned", sessionID)
	rw.WriteHeader(http.StatusNoContent)
}

func (h IntakeHandler) sessionID(rw http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "sessionID")

	validator := validators.NewIntakeSessionValidator()
	validator.ValidateSessionID(sessionID)
	if validator.HasErrors() {
		// A malformed id can never name a live session.
		httperror.NotFound("intake session not found", nil, validator.Errors).WithErrorCode(httperror.Code404_1).Render(rw)
		return "", false
	}
	return sessionID, true
}

func (h IntakeHandler) stepIndex(rw http.ResponseWriter, r *http.Request) (int, intake.Step, bool) {
	validator := validators.NewIntakeSessionValidator()
	index, step := validator.ValidateStepIndex(chi.URLParam(r, "index"), h.Sessions.Steps())
	if validator.HasErrors() {
		httperror.BadRequest("request invalid", nil, validator.Errors).WithErrorCode(httperror.Code400_2).Render(rw)
		return 0, "", false
	}
	return index, step, true
}

func (h IntakeHandler) renderSessionError(rw http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		httperror.NotFound("intake session not found", err, nil).WithErrorCode(httperror.Code404_1).Render(rw)
	case errors.Is(err, intake.ErrStepOutOfRange), errors.Is(err, intake.ErrStepMismatch):
		httperror.BadRequest(err.Error(), err, nil).WithErrorCode(httperror.Code400_2).Render(rw)
	case errors.Is(err, intake.ErrSubmitInFlight):
		httperror.Conflict("a submission is already in progress", err, nil).WithErrorCode(httperror.Code409_0).Render(rw)
	case errors.Is(err, intake.ErrAlreadySubmitted):
		httperror.Conflict("the intake session was already submitted", err, nil).WithErrorCode(httperror.Code409_1).Render(rw)
	case errors.Is(err, intake.ErrSubmitFailed):
		httperror.BadGateway("", err, nil).Render(rw)
	default:
		httperror.InternalError(r.Context(), "", err, nil).Render(rw)
	}
}
