package consultation

import "context"

type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id int64) (*Consultation, error)
	// LatestForUser returns the highest-id consultation for the user, or nil
	// when the user has none.
	LatestForUser(ctx context.Context, userID int64) (*Consultation, error)
	// ListForUser returns the user's consultations, highest id first.
	ListForUser(ctx context.Context, userID int64) ([]*Consultation, error)
	// List returns worklist rows, highest id first, optionally filtered by
	// status ("" means all).
	List(ctx context.Context, status string) ([]*Summary, error)
	// UpdateMutable overwrites the editable fields when the stored row still
	// matches the given version and is not COMPLETED. Reports whether a row
	// was written.
	UpdateMutable(ctx context.Context, c *Consultation) (bool, error)
	// SetStatus forces the lifecycle state.
	SetStatus(ctx context.Context, id int64, status string) error
	// AdvanceToInProgress moves a PENDING consultation to IN_PROGRESS in a
	// single conditional write. Reports whether the row advanced; rows
	// already past PENDING are left untouched.
	AdvanceToInProgress(ctx context.Context, id int64) (bool, error)
	ExistsPatientID(ctx context.Context, patientID string) (bool, error)
}
