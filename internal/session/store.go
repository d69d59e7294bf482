package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/monitor"
)

const (
	DefaultTTL        = 30 * time.Minute
	DefaultMaxEntries = 1000

	FlowNew    = "new"
	FlowResume = "resume"

	OperationCreate = "create"
	OperationUpdate = "update"
)

var (
	ErrSessionNotFound = errors.New("intake session not found")
	ErrInvalidRecord   = errors.New("customer record is invalid")
)

// ValidationError carries the per-step errors that blocked a submit.
type ValidationError struct {
	Errors intake.RecordErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d step(s) failed validation", ErrInvalidRecord, len(e.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// session owns one wizard. mu makes the session the wizard's single writer.
type session struct {
	id     string
	mu     sync.Mutex
	wizard *intake.Wizard
}

// View is the JSON representation of a session.
type View struct {
	ID         string                `json:"id"`
	StepIndex  int                   `json:"stepIndex"`
	Step       intake.Step           `json:"step"`
	Steps      intake.Steps          `json:"steps"`
	Reviewing  bool                  `json:"reviewing"`
	Submitting bool                  `json:"submitting"`
	Record     intake.CustomerRecord `json:"record"`
}

// view must be called with s.mu held.
func (s *session) view() View {
	state := s.wizard.State()
	return View{
		ID:         s.id,
		StepIndex:  state.StepIndex,
		Step:       state.Step,
		Steps:      s.wizard.Steps(),
		Reviewing:  state.Reviewing,
		Submitting: s.wizard.Submitting(),
		Record:     s.wizard.Record(),
	}
}

type SubmitResult struct {
	Record  intake.CustomerRecord
	Created bool
}

type StoreOptions struct {
	Gateway   intake.Gateway
	Steps     intake.Steps
	Validator *intake.Validator
	// TTL is how long an idle session is kept.
	TTL            time.Duration
	MaxEntries     int
	MonitorService monitor.MonitorServiceInterface
}

func (o *StoreOptions) Validate() error {
	if o.Gateway == nil {
		return fmt.Errorf("gateway cannot be nil")
	}
	if len(o.Steps) == 0 {
		o.Steps = intake.FiveStepFlow
	}
	if err := o.Steps.Validate(); err != nil {
		return fmt.Errorf("validating steps: %w", err)
	}
	if o.TTL < 0 {
		return fmt.Errorf("TTL cannot be negative")
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxEntries < 0 {
		return fmt.Errorf("max entries cannot be negative")
	}
	if o.MaxEntries == 0 {
		o.MaxEntries = DefaultMaxEntries
	}
	return nil
}

// Store keeps the wizards of in-progress intakes in memory. Sessions expire after being idle for the TTL and the
// least recently used ones are evicted when the store is full.
type Store struct {
	cache          *expirable.LRU[string, *session]
	gateway        intake.Gateway
	steps          intake.Steps
	validator      *intake.Validator
	monitorService monitor.MonitorServiceInterface
}

func NewStore(opts StoreOptions) (*Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating store options: %w", err)
	}

	return &Store{
		cache:          expirable.NewLRU[string, *session](opts.MaxEntries, nil, opts.TTL),
		gateway:        opts.Gateway,
		steps:          append(intake.Steps{}, opts.Steps...),
		validator:      opts.Validator,
		monitorService: opts.MonitorService,
	}, nil
}

func (s *Store) Steps() intake.Steps {
	return append(intake.Steps{}, s.steps...)
}

func (s *Store) wizardOptions() []intake.Option {
	if s.validator == nil {
		return nil
	}
	return []intake.Option{intake.WithValidator(s.validator)}
}

// Start opens a session on a blank record, or on the record stored under customerID when it is not empty.
func (s *Store) Start(ctx context.Context, customerID string) (View, error) {
	var (
		wizard *intake.Wizard
		err    error
		flow   = FlowNew
	)
	if customerID == "" {
		wizard, err = intake.NewWizard(s.steps, s.wizardOptions()...)
	} else {
		flow = FlowResume
		wizard, err = intake.LoadWizard(ctx, s.gateway, customerID, s.steps, s.wizardOptions()...)
	}
	if err != nil {
		return View{}, fmt.Errorf("starting intake session: %w", err)
	}

	sess := &session{id: uuid.NewString(), wizard: wizard}
	s.cache.Add(sess.id, sess)
	s.countSession(ctx, flow)

	log.Ctx(ctx).Infof("started %s intake session %s", flow, sess.id)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(), nil
}

func (s *Store) get(id string) (*session, error) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	// re-adding refreshes the idle expiration
	s.cache.Add(id, sess)
	return sess, nil
}

func (s *Store) Get(id string) (View, error) {
	return s.With(id, func(*intake.Wizard) error { return nil })
}

// With runs fn as the single writer of the session's wizard and returns the resulting view. The view is returned
// along with fn's error so callers can render the current state on failure.
func (s *Store) With(id string, fn func(w *intake.Wizard) error) (View, error) {
	sess, err := s.get(id)
	if err != nil {
		return View{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	err = fn(sess.wizard)
	return sess.view(), err
}

// Mutate is With for edits. It fails with intake.ErrSubmitInFlight while the session's record is being submitted.
func (s *Store) Mutate(id string, fn func(w *intake.Wizard) error) (View, error) {
	return s.With(id, func(w *intake.Wizard) error {
		if w.Submitting() {
			return intake.ErrSubmitInFlight
		}
		return fn(w)
	})
}

// Submit validates every step and sends the record through the gateway. The session lock is released during the
// gateway call; a concurrent submit fails with intake.ErrSubmitInFlight. A successful submit discards the session.
func (s *Store) Submit(ctx context.Context, id string) (SubmitResult, error) {
	sess, err := s.get(id)
	if err != nil {
		return SubmitResult{}, err
	}

	sess.mu.Lock()
	record, err := s.beginSubmit(sess.wizard)
	sess.mu.Unlock()
	if err != nil {
		return SubmitResult{}, err
	}

	operation := OperationUpdate
	if record.ID == "" {
		operation = OperationCreate
	}

	saved, err := intake.SubmitRecord(ctx, s.gateway, record)

	sess.mu.Lock()
	sess.wizard.FinishSubmit(saved, err)
	sess.mu.Unlock()

	s.countSubmission(ctx, operation, err)
	if err != nil {
		log.Ctx(ctx).WithField("session_id", id).Errorf("submitting intake session: %v", err)
		return SubmitResult{}, err
	}

	s.cache.Remove(id)
	log.Ctx(ctx).WithField("session_id", id).Infof("intake session submitted customer %s (%s)", saved.ID, operation)

	return SubmitResult{Record: saved, Created: operation == OperationCreate}, nil
}

// beginSubmit must be called with the session lock held.
func (s *Store) beginSubmit(w *intake.Wizard) (intake.CustomerRecord, error) {
	if w.Done() {
		return intake.CustomerRecord{}, intake.ErrAlreadySubmitted
	}
	if w.Submitting() {
		return intake.CustomerRecord{}, intake.ErrSubmitInFlight
	}

	errs, err := w.ValidateAll()
	if err != nil {
		return intake.CustomerRecord{}, fmt.Errorf("validating record: %w", err)
	}
	if !errs.Valid() {
		return intake.CustomerRecord{}, &ValidationError{Errors: errs}
	}

	return w.BeginSubmit()
}

// Abandon discards the session. It reports whether the session existed.
func (s *Store) Abandon(id string) bool {
	return s.cache.Remove(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) countSession(ctx context.Context, flow string) {
	if s.monitorService == nil {
		return
	}
	labels := monitor.IntakeSessionLabels{Flow: flow}.ToMap()
	if err := s.monitorService.MonitorCounters(monitor.IntakeSessionsCounterTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring intake session counter: %v", err)
	}
}

func (s *Store) countSubmission(ctx context.Context, operation string, submitErr error) {
	if s.monitorService == nil {
		return
	}
	status := "success"
	if submitErr != nil {
		status = "failure"
	}
	labels := monitor.SubmissionLabels{Operation: operation, Status: status}.ToMap()
	if err := s.monitorService.MonitorCounters(monitor.IntakeSubmissionsCounterTag, labels); err != nil {
		log.Ctx(ctx).Errorf("monitoring intake submission counter: %v", err)
	}
}
