package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
)

type settingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*model.AppSettings, error) {
	query := `
		SELECT patient_base_url, updated_at, updated_by
		FROM app_settings
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var settings model.AppSettings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// Update appends to settings_history and replaces the current row in one
// transaction; either both rows land or neither does.
func (r *settingsRepository) Update(ctx context.Context, patientBaseURL, updatedBy string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settings update: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO settings_history (patient_base_url, updated_by, updated_at)
		VALUES ($1, $2, NOW())
	`, patientBaseURL, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to append settings history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO app_settings (id, patient_base_url, updated_by, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET patient_base_url = EXCLUDED.patient_base_url,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`, patientBaseURL, updatedBy)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings update: %w", err)
	}

	return nil
}
