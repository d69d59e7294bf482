package intake

import (
	"context"
	"errors"
	"fmt"
)

// ErrSubmitFailed wraps every gateway failure returned by Submit. The wizard keeps its record so the submit can be
// retried.
var ErrSubmitFailed = errors.New("submitting customer record")

// State is the position of a wizard: a step index, or the review pseudo-state reached from the last step.
type State struct {
	StepIndex int  `json:"stepIndex"`
	Step      Step `json:"step"`
	Reviewing bool `json:"reviewing"`
}

func (s State) String() string {
	if s.Reviewing {
		return "review"
	}
	return fmt.Sprintf("%d:%s", s.StepIndex, s.Step)
}

// Reviewer receives the accumulated record when the wizard moves past its last step.
type Reviewer interface {
	Review(record CustomerRecord)
}

type ReviewerFunc func(record CustomerRecord)

func (f ReviewerFunc) Review(record CustomerRecord) {
	f(record)
}

type Option func(w *Wizard)

func WithReviewer(r Reviewer) Option {
	return func(w *Wizard) {
		w.reviewer = r
	}
}

func WithValidator(v *Validator) Option {
	return func(w *Wizard) {
		w.validator = v
	}
}

// Wizard accumulates one customer record across the configured steps. It is not safe for concurrent use: a single
// writer drives it.
type Wizard struct {
	steps     Steps
	current   int
	reviewing bool
	record    CustomerRecord
	validator *Validator
	reviewer  Reviewer

	submitting bool
	done       bool
}

// NewWizard starts a wizard on a blank record.
func NewWizard(steps Steps, opts ...Option) (*Wizard, error) {
	return ResumeWizard(steps, NewCustomerRecord(), opts...)
}

// ResumeWizard starts a wizard at the first step, seeded with an existing record.
func ResumeWizard(steps Steps, record CustomerRecord, opts ...Option) (*Wizard, error) {
	if err := steps.Validate(); err != nil {
		return nil, fmt.Errorf("validating steps: %w", err)
	}

	w := &Wizard{
		steps:  append(Steps{}, steps...),
		record: Normalize(RawFromRecord(record)),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.validator == nil {
		w.validator = NewValidator()
	}
	return w, nil
}

// LoadWizard loads the record stored under id and resumes a wizard with it.
func LoadWizard(ctx context.Context, gw Gateway, id string, steps Steps, opts ...Option) (*Wizard, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	record, err := gw.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading customer record %s: %w", id, err)
	}
	return ResumeWizard(steps, record, opts...)
}

func (w *Wizard) Steps() Steps {
	return append(Steps{}, w.steps...)
}

func (w *Wizard) State() State {
	return State{StepIndex: w.current, Step: w.steps[w.current], Reviewing: w.reviewing}
}

// Record returns a copy of the accumulated record.
func (w *Wizard) Record() CustomerRecord {
	return w.record.Clone()
}

func (w *Wizard) Submitting() bool {
	return w.submitting
}

func (w *Wizard) Done() bool {
	return w.done
}

// UpdateStep merges update into the slice of the record owned by the step at stepIndex. It never validates and never
// moves the wizard.
func (w *Wizard) UpdateStep(stepIndex int, update StepUpdate) error {
	step, err := w.steps.At(stepIndex)
	if err != nil {
		return err
	}
	if update == nil {
		return fmt.Errorf("%w: nil update for step %s", ErrStepMismatch, step)
	}
	if update.Step() != step {
		return fmt.Errorf("%w: %s update sent to step %d (%s)", ErrStepMismatch, update.Step(), stepIndex, step)
	}
	update.apply(&w.record)
	return nil
}

func (w *Wizard) Validate(stepIndex int) (StepErrors, error) {
	step, err := w.steps.At(stepIndex)
	if err != nil {
		return StepErrors{}, err
	}
	return w.validator.ValidateStep(step, w.record)
}

// CanAdvance reports whether the step at stepIndex passes validation. Out of range indexes never can.
func (w *Wizard) CanAdvance(stepIndex int) bool {
	se, err := w.Validate(stepIndex)
	return err == nil && se.Valid()
}

// ValidateAll validates every configured step.
func (w *Wizard) ValidateAll() (RecordErrors, error) {
	return w.validator.ValidateRecord(w.record, w.steps)
}

// Next moves to the following step. From the last step it enters review and hands the record to the reviewer.
func (w *Wizard) Next() State {
	switch {
	case w.reviewing:
	case w.current == len(w.steps)-1:
		w.reviewing = true
		if w.reviewer != nil {
			w.reviewer.Review(w.Record())
		}
	default:
		w.current++
	}
	return w.State()
}

// Previous moves back one step. From review it returns to the last step.
func (w *Wizard) Previous() State {
	switch {
	case w.reviewing:
		w.reviewing = false
	case w.current > 0:
		w.current--
	}
	return w.State()
}

// GoTo jumps to any step, leaving review.
func (w *Wizard) GoTo(stepIndex int) (State, error) {
	if _, err := w.steps.At(stepIndex); err != nil {
		return w.State(), err
	}
	w.current = stepIndex
	w.reviewing = false
	return w.State(), nil
}

// BeginSubmit marks a submission as in flight and returns the record to send. Callers that hold a lock around the
// wizard can release it between BeginSubmit and FinishSubmit.
func (w *Wizard) BeginSubmit() (CustomerRecord, error) {
	if w.done {
		return CustomerRecord{}, ErrAlreadySubmitted
	}
	if w.submitting {
		return CustomerRecord{}, ErrSubmitInFlight
	}
	w.submitting = true
	return w.Record(), nil
}

// FinishSubmit records the outcome of a submission started with BeginSubmit.
func (w *Wizard) FinishSubmit(saved CustomerRecord, err error) {
	w.submitting = false
	if err != nil {
		return
	}
	w.record = saved.Clone()
	w.done = true
}

// Submit creates the record when it has no id and replaces it otherwise. It does not validate: callers gate on
// CanAdvance for every step first.
func (w *Wizard) Submit(ctx context.Context, gw Gateway) (CustomerRecord, error) {
	record, err := w.BeginSubmit()
	if err != nil {
		return CustomerRecord{}, err
	}

	saved, err := SubmitRecord(ctx, gw, record)
	w.FinishSubmit(saved, err)
	if err != nil {
		return CustomerRecord{}, err
	}
	return saved, nil
}

// SubmitRecord sends record to gw: Save without id, Update with it.
func SubmitRecord(ctx context.Context, gw Gateway, record CustomerRecord) (CustomerRecord, error) {
	if record.ID == "" {
		saved, err := gw.Save(ctx, record)
		if err != nil {
			return CustomerRecord{}, fmt.Errorf("%w: creating: %w", ErrSubmitFailed, err)
		}
		return saved, nil
	}

	saved, err := gw.Update(ctx, record.ID, record)
	if err != nil {
		return CustomerRecord{}, fmt.Errorf("%w: updating %s: %w", ErrSubmitFailed, record.ID, err)
	}
	return saved, nil
}
