package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	log := logger.New("error")
	return &Repository{db: database.NewFromSQL(sqlDB, log), logger: log}, mock
}

func sampleRecord() *types.MedicalRecord {
	payload := types.RecordPayload{
		GeminiOutput: &types.SourceBlock{PatientName: "Jane"},
	}
	return &types.MedicalRecord{
		ID:         "rec-1",
		Email:      "a@x.com",
		Number:     "123",
		Payload:    payload,
		Normalized: Normalize("a@x.com", "123", &payload, time.Now()),
	}
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec("INSERT INTO medical_records").
		WithArgs("rec-1", "a@x.com", "123", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(sampleRecord())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func recordRows(t *testing.T, records ...*types.MedicalRecord) *sqlmock.Rows {
	t.Helper()

	rows := sqlmock.NewRows([]string{"id", "email", "number", "payload", "normalized", "created_at"})
	for _, rec := range records {
		payload, err := json.Marshal(rec.Payload)
		require.NoError(t, err)
		normalized, err := json.Marshal(rec.Normalized)
		require.NoError(t, err)
		rows.AddRow(rec.ID, rec.Email, rec.Number, payload, normalized, time.Now())
	}
	return rows
}

func TestRepositoryGetByNumber(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM medical_records").
		WithArgs("123").
		WillReturnRows(recordRows(t, sampleRecord()))

	records, err := repo.GetByNumber("123")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, "Jane", records[0].Normalized.Patient.PatientName)
	require.NotNil(t, records[0].Payload.GeminiOutput)
	assert.Equal(t, "Jane", records[0].Payload.GeminiOutput.PatientName)
}

func TestRepositoryList_BothFilters(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM medical_records").
		WithArgs("a@x.com", "123").
		WillReturnRows(recordRows(t, sampleRecord()))

	records, err := repo.List("a@x.com", "123")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRepositoryList_NoFilters(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM medical_records").
		WillReturnRows(recordRows(t))

	records, err := repo.List("", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}
