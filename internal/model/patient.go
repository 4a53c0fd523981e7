package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ApprovalStatus is the consent state of a patient record. The only legal
// transition is Menunggu to Disetujui.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Menunggu"
	ApprovalApproved ApprovalStatus = "Disetujui"
)

// JSONMap is an opaque structured payload stored as jsonb.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(JSONMap{})
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", src)
	}
}

// Patient is a pre-operative patient record keyed by medical record number.
// AccessToken authorizes the patient-facing consent submission and is
// reissued every time the record is saved through the roster.
type Patient struct {
	MRN             string         `db:"mrn" json:"mrn"`
	Name            string         `db:"name" json:"name"`
	Gender          *string        `db:"gender" json:"gender,omitempty"`
	Age             *string        `db:"age" json:"age,omitempty"`
	Diagnosis       *string        `db:"diagnosis" json:"diagnosis,omitempty"`
	Payer           *string        `db:"payer" json:"payer,omitempty"`
	WardClass       *string        `db:"ward_class" json:"ward_class,omitempty"`
	PriorityScale   *string        `db:"priority_scale" json:"priority_scale,omitempty"`
	Physician       *string        `db:"physician" json:"physician,omitempty"`
	ScheduledAt     *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Status          ApprovalStatus `db:"approval_status" json:"approval_status"`
	ApprovedAt      *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	AccessToken     *string        `db:"access_token" json:"access_token,omitempty"`
	SignatureData   *string        `db:"signature_data" json:"signature_data,omitempty"`
	ConsentData     JSONMap        `db:"consent_data" json:"consent_data,omitempty"`
	OfficerName     *string        `db:"officer_name" json:"officer_name,omitempty"`
	OfficerSignData JSONMap        `db:"officer_sign_data" json:"officer_sign_data,omitempty"`
	PhysicianNote   *string        `db:"physician_note" json:"physician_note,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

type UpsertPatientRequest struct {
	MRN           string     `json:"mrn" binding:"required"`
	Name          string     `json:"name" binding:"required"`
	Gender        *string    `json:"gender"`
	Age           *string    `json:"age"`
	Diagnosis     *string    `json:"diagnosis"`
	Payer         *string    `json:"payer"`
	WardClass     *string    `json:"ward_class"`
	PriorityScale *string    `json:"priority_scale"`
	Physician     *string    `json:"physician"`
	ScheduledAt   *time.Time `json:"scheduled_at"`
}

// SubmitApprovalRequest is authenticated by the mrn+token pair alone; no
// bearer session is involved.
type SubmitApprovalRequest struct {
	MRN             string  `json:"mrn" binding:"required"`
	Token           string  `json:"token" binding:"required"`
	SignatureData   string  `json:"signature_data" binding:"required"`
	ConsentData     JSONMap `json:"consent_data"`
	OfficerName     *string `json:"officer_name"`
	OfficerSignData JSONMap `json:"officer_sign_data"`
	PhysicianNote   *string `json:"physician_note"`
}
