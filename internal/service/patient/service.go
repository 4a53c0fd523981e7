package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
	"github.com/rsmedika/consent-api/pkg/token"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// notFoundOrTokenInvalid is shared by the wrong-mrn and wrong-token cases;
// the response must not reveal which identifiers exist.
var notFoundOrTokenInvalid = apperrors.NotFound("patient not found or token invalid")

type Service struct {
	patients repository.PatientRepository
}

func NewService(patients repository.PatientRepository) *Service {
	return &Service{patients: patients}
}

// Save creates or updates a roster record by MRN. Every save mints a fresh
// access token, implicitly revoking any link issued before. The returned
// bool reports whether a new record was created.
func (s *Service) Save(ctx context.Context, req *model.UpsertPatientRequest) (*model.Patient, bool, error) {
	accessToken, err := token.NewAccessToken()
	if err != nil {
		return nil, false, apperrors.Store(fmt.Errorf("failed to mint access token: %w", err))
	}

	p := &model.Patient{
		MRN:           req.MRN,
		Name:          req.Name,
		Gender:        req.Gender,
		Age:           req.Age,
		Diagnosis:     req.Diagnosis,
		Payer:         req.Payer,
		WardClass:     req.WardClass,
		PriorityScale: req.PriorityScale,
		Physician:     req.Physician,
		ScheduledAt:   req.ScheduledAt,
		Status:        model.ApprovalPending,
		AccessToken:   &accessToken,
	}

	exists, err := s.patients.Exists(ctx, req.MRN)
	if err != nil {
		return nil, false, apperrors.Store(fmt.Errorf("failed to check patient existence: %w", err))
	}

	if exists {
		saved, err := s.updateExisting(ctx, p)
		return saved, false, err
	}

	err = s.save(ctx, p, s.patients.Insert)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent create won the race between the existence check
		// and the insert; the row is there now, so save as an update.
		saved, uerr := s.updateExisting(ctx, p)
		return saved, false, uerr
	}
	if err != nil {
		return nil, false, err
	}
	log.Info().Str("mrn", p.MRN).Msg("patient created")
	return p, true, nil
}

func (s *Service) updateExisting(ctx context.Context, p *model.Patient) (*model.Patient, error) {
	if err := s.save(ctx, p, s.patients.Update); err != nil {
		return nil, err
	}
	saved, err := s.patients.Get(ctx, p.MRN)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to reload patient: %w", err))
	}
	log.Info().Str("mrn", p.MRN).Msg("patient updated, access token reissued")
	return saved, nil
}

// save runs an insert or update, retrying once with a new token if the
// store reports a token collision.
func (s *Service) save(ctx context.Context, p *model.Patient, op func(context.Context, *model.Patient) error) error {
	err := op(ctx, p)
	if errors.Is(err, repository.ErrTokenConflict) {
		fresh, terr := token.NewAccessToken()
		if terr != nil {
			return apperrors.Store(fmt.Errorf("failed to mint access token: %w", terr))
		}
		p.AccessToken = &fresh
		err = op(ctx, p)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient not found")
		}
		return apperrors.Store(fmt.Errorf("failed to save patient: %w", err))
	}
	return nil
}

// UpdateDetails edits demographic and schedule fields without reissuing the
// access token, so already shared links keep working.
func (s *Service) UpdateDetails(ctx context.Context, req *model.UpsertPatientRequest) error {
	p := &model.Patient{
		MRN:           req.MRN,
		Name:          req.Name,
		Gender:        req.Gender,
		Age:           req.Age,
		Diagnosis:     req.Diagnosis,
		Payer:         req.Payer,
		WardClass:     req.WardClass,
		PriorityScale: req.PriorityScale,
		Physician:     req.Physician,
		ScheduledAt:   req.ScheduledAt,
	}

	if err := s.patients.UpdateDetails(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient not found")
		}
		return apperrors.Store(fmt.Errorf("failed to update patient: %w", err))
	}

	return nil
}

func (s *Service) Get(ctx context.Context, mrn string) (*model.Patient, error) {
	p, err := s.patients.Get(ctx, mrn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient not found")
		}
		return nil, apperrors.Store(fmt.Errorf("failed to get patient: %w", err))
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, page, limit int) ([]*model.Patient, int, int, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	patients, total, err := s.patients.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, 0, 0, apperrors.Store(fmt.Errorf("failed to list patients: %w", err))
	}

	return patients, page, limit, total, nil
}

func (s *Service) Delete(ctx context.Context, mrn string) error {
	if err := s.patients.Delete(ctx, mrn); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient not found")
		}
		return apperrors.Store(fmt.Errorf("failed to delete patient: %w", err))
	}
	log.Info().Str("mrn", mrn).Msg("patient deleted")
	return nil
}

// SubmitApproval performs the Menunggu to Disetujui transition for the
// bearer of a matching access token. A re-submission against an already
// approved record is rejected as a conflict rather than overwriting the
// recorded consent.
func (s *Service) SubmitApproval(ctx context.Context, req *model.SubmitApprovalRequest) (*model.Patient, error) {
	if req.MRN == "" || req.Token == "" || req.SignatureData == "" {
		return nil, apperrors.Validation("mrn, token, and signature_data are required")
	}

	if req.ConsentData == nil {
		req.ConsentData = model.JSONMap{}
	}
	if req.OfficerSignData == nil {
		req.OfficerSignData = model.JSONMap{}
	}

	p, err := s.patients.Approve(ctx, req)
	if err == nil {
		log.Info().Str("mrn", p.MRN).Msg("consent approved")
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Store(fmt.Errorf("failed to submit approval: %w", err))
	}

	// Zero rows: either the pair does not match anything, or it matches a
	// record already approved. Only a caller holding a valid token can
	// reach the conflict branch, so this does not leak existence.
	approved, err := s.patients.ApprovedWithToken(ctx, req.MRN, req.Token)
	if err != nil {
		return nil, apperrors.Store(fmt.Errorf("failed to check approval state: %w", err))
	}
	if approved {
		return nil, apperrors.Conflict("consent has already been submitted for this patient")
	}

	return nil, notFoundOrTokenInvalid
}
