package intake

import (
	"context"
	"errors"
)

var (
	ErrRecordNotFound   = errors.New("customer record not found")
	ErrStepOutOfRange   = errors.New("step index out of range")
	ErrStepMismatch     = errors.New("update does not belong to step")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrAlreadySubmitted = errors.New("wizard was already submitted")
	ErrMissingID        = errors.New("customer id is required")
)

// Gateway is the persistence boundary the wizard loads from and submits to.
//
//go:generate mockery --name=Gateway --case=underscore --structname=MockGateway
type Gateway interface {
	List(ctx context.Context) ([]CustomerRecord, error)
	Load(ctx context.Context, id string) (CustomerRecord, error)
	// Save creates a record without id and returns it with the id the backend assigned.
	Save(ctx context.Context, record CustomerRecord) (CustomerRecord, error)
	// Update replaces the whole record stored under id.
	Update(ctx context.Context, id string, record CustomerRecord) (CustomerRecord, error)
}
