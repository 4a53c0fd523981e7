package settings

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
	apperrors "github.com/rsmedika/consent-api/pkg/errors"
)

type Service struct {
	settings repository.SettingsRepository
}

func NewService(settings repository.SettingsRepository) *Service {
	return &Service{settings: settings}
}

// Get returns the current settings, or an empty record when none have been
// saved yet.
func (s *Service) Get(ctx context.Context) (*model.AppSettings, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.AppSettings{}, nil
		}
		return nil, apperrors.Store(fmt.Errorf("failed to get settings: %w", err))
	}
	return current, nil
}

// Update validates and stores the patient link base URL. Changing it does
// not touch tokens already issued; only newly composed links change.
func (s *Service) Update(ctx context.Context, patientBaseURL, updatedBy string) error {
	parsed, err := url.ParseRequestURI(patientBaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return apperrors.Validation("patient_base_url must be a valid http or https URL")
	}

	if err := s.settings.Update(ctx, patientBaseURL, updatedBy); err != nil {
		return apperrors.Store(fmt.Errorf("failed to update settings: %w", err))
	}

	log.Info().Str("updated_by", updatedBy).Msg("settings updated")
	return nil
}
