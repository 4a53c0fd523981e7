package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsmedika/consent-api/internal/model"
	"github.com/rsmedika/consent-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func patientRow(mrn, token string, status model.ApprovalStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"mrn", "name", "gender", "age", "diagnosis", "payer", "ward_class",
		"priority_scale", "physician", "scheduled_at", "approval_status",
		"approved_at", "access_token", "signature_data", "consent_data",
		"officer_name", "officer_sign_data", "physician_note", "created_at",
	}).AddRow(
		mrn, "Budi Santoso", nil, nil, nil, nil, nil,
		nil, nil, nil, string(status),
		nil, token, nil, []byte(`{}`),
		nil, []byte(`{}`), nil, time.Now(),
	)
}

func TestPatientGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM patients WHERE mrn = \$1`).
		WithArgs("RM-001").
		WillReturnRows(patientRow("RM-001", "deadbeef", model.ApprovalPending))

	p, err := repo.Get(context.Background(), "RM-001")
	require.NoError(t, err)
	assert.Equal(t, "RM-001", p.MRN)
	assert.Equal(t, model.ApprovalPending, p.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM patients WHERE mrn = \$1`).
		WithArgs("RM-404").
		WillReturnRows(sqlmock.NewRows([]string{"mrn"}))

	_, err := repo.Get(context.Background(), "RM-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientInsertTokenConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec(`INSERT INTO patients`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "patients_access_token_key"})

	token := "deadbeef"
	err := repo.Insert(context.Background(), &model.Patient{
		MRN:         "RM-001",
		Name:        "Budi Santoso",
		Status:      model.ApprovalPending,
		AccessToken: &token,
	})
	assert.ErrorIs(t, err, repository.ErrTokenConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientInsertDuplicateMRN(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec(`INSERT INTO patients`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "patients_pkey"})

	token := "deadbeef"
	err := repo.Insert(context.Background(), &model.Patient{
		MRN:         "RM-001",
		Name:        "Budi Santoso",
		Status:      model.ApprovalPending,
		AccessToken: &token,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientUpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec(`UPDATE patients`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	token := "deadbeef"
	err := repo.Update(context.Background(), &model.Patient{
		MRN:         "RM-404",
		Name:        "Budi Santoso",
		AccessToken: &token,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientApprove(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`(?s)UPDATE patients\s+SET approval_status.+RETURNING`).
		WithArgs(
			string(model.ApprovalApproved), "sig", sqlmock.AnyArg(), nil, sqlmock.AnyArg(),
			nil, "RM-001", "deadbeef", string(model.ApprovalPending),
		).
		WillReturnRows(patientRow("RM-001", "deadbeef", model.ApprovalApproved))

	p, err := repo.Approve(context.Background(), &model.SubmitApprovalRequest{
		MRN:             "RM-001",
		Token:           "deadbeef",
		SignatureData:   "sig",
		ConsentData:     model.JSONMap{},
		OfficerSignData: model.JSONMap{},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, p.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientApproveNoMatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`(?s)UPDATE patients\s+SET approval_status.+RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"mrn"}))

	_, err := repo.Approve(context.Background(), &model.SubmitApprovalRequest{
		MRN:             "RM-001",
		Token:           "wrong",
		SignatureData:   "sig",
		ConsentData:     model.JSONMap{},
		OfficerSignData: model.JSONMap{},
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientApprovedWithToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`(?s)SELECT EXISTS`).
		WithArgs("RM-001", "deadbeef", string(model.ApprovalApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	approved, err := repo.ApprovedWithToken(context.Background(), "RM-001", "deadbeef")
	require.NoError(t, err)
	assert.True(t, approved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectQuery(`(?s)SELECT .+ FROM patients\s+ORDER BY`).
		WithArgs(20, 0).
		WillReturnRows(patientRow("RM-001", "deadbeef", model.ApprovalPending))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM patients`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	patients, total, err := repo.List(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
	assert.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPatientRepository(db)

	mock.ExpectExec(`DELETE FROM patients WHERE mrn = \$1`).
		WithArgs("RM-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "RM-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
