package model

import "time"

// AppSettings holds the current operator configuration. Every successful
// update also appends a row to settings_history for audit.
type AppSettings struct {
	PatientBaseURL string     `db:"patient_base_url" json:"patient_base_url"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy      *string    `db:"updated_by" json:"updated_by"`
}

type UpdateSettingsRequest struct {
	PatientBaseURL string `json:"patient_base_url" binding:"required"`
}
