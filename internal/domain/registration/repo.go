package registration

import "context"

type Repository interface {
	// Create stores the registration and its traveler rows.
	Create(ctx context.Context, r *Registration) error
	// Update overwrites the registration and replaces its traveler rows.
	Update(ctx context.Context, r *Registration) error
	GetByID(ctx context.Context, id int64) (*Registration, error)
	// LatestByEmail returns the highest-id registration for the email, or nil
	// when none exists.
	LatestByEmail(ctx context.Context, email string) (*Registration, error)
	Exists(ctx context.Context, id int64) (bool, error)

	AddDocument(ctx context.Context, d *Document) error
	// ListDocuments returns metadata newest first, without payloads.
	ListDocuments(ctx context.Context, registrationID int64) ([]*DocumentMeta, error)
	// GetDocument returns the document only when it belongs to the
	// registration.
	GetDocument(ctx context.Context, registrationID, docID int64) (*Document, error)
}
