package artifact

import "context"

type Repository interface {
	// Create persists the artifact under its kind's table and fills in ID and
	// CreatedAt.
	Create(ctx context.Context, a *Artifact) error
	GetByID(ctx context.Context, kind string, id int64) (*Artifact, error)
	// LatestForConsultation returns the highest-id artifact of the kind for
	// the consultation, or nil when none exists.
	LatestForConsultation(ctx context.Context, kind string, consultationID int64) (*Artifact, error)
	// ListForConsultation returns every artifact of the kind for the
	// consultation, highest id first.
	ListForConsultation(ctx context.Context, kind string, consultationID int64) ([]*Artifact, error)
	// LatestForUser returns the highest-id artifact of the kind across all of
	// the user's consultations, or nil when none exists.
	LatestForUser(ctx context.Context, kind string, userID int64) (*Artifact, error)
}
