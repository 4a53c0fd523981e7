package repository

import (
	"context"
	"errors"

	"github.com/rsmedika/consent-api/internal/model"
)

var (
	// ErrNotFound means no row matched. For approvals this covers both an
	// unknown mrn and a wrong token; callers must not distinguish the two.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate signals a uniqueness violation.
	ErrDuplicate = errors.New("duplicate")
	// ErrTokenConflict signals a collision on the access token column;
	// callers retry with a freshly minted token.
	ErrTokenConflict = errors.New("access token conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// List returns all users ordered admin, admin_poc, exporter, then
	// alphabetically by username.
	List(ctx context.Context) ([]*model.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
	SetActive(ctx context.Context, username string, active bool) error
}

type PatientRepository interface {
	Get(ctx context.Context, mrn string) (*model.Patient, error)
	Exists(ctx context.Context, mrn string) (bool, error)
	Insert(ctx context.Context, p *model.Patient) error
	// Update rewrites the roster fields and the access token for an
	// existing record.
	Update(ctx context.Context, p *model.Patient) error
	// UpdateDetails rewrites roster fields only, leaving the access token
	// and approval state untouched.
	UpdateDetails(ctx context.Context, p *model.Patient) error
	List(ctx context.Context, limit, offset int) ([]*model.Patient, int, error)
	ListAll(ctx context.Context) ([]*model.Patient, error)
	Delete(ctx context.Context, mrn string) error
	// Approve performs the conditional pending-to-approved transition and
	// returns the updated record. ErrNotFound when no pending row matches
	// the mrn+token pair.
	Approve(ctx context.Context, sub *model.SubmitApprovalRequest) (*model.Patient, error)
	// ApprovedWithToken reports whether an already approved row matches the
	// mrn+token pair, used to turn a re-submission into a conflict.
	ApprovedWithToken(ctx context.Context, mrn, token string) (bool, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*model.AppSettings, error)
	// Update appends a history row and replaces the current settings row in
	// a single transaction.
	Update(ctx context.Context, patientBaseURL, updatedBy string) error
}
