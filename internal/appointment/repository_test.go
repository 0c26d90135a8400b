package appointment

import (
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

func TestRepositoryCreate(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs("apt-1", "doc-1", "pat-1", "checkup", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(&types.Appointment{
		ID:        "apt-1",
		DoctorID:  "doc-1",
		PatientID: "pat-1",
		Reason:    "checkup",
		Status:    types.StatusPending,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryUpdateStatus_PendingGuard(t *testing.T) {
	repo, mock := setupRepo(t)

	// The row is already terminal, so the guarded UPDATE touches nothing
	mock.ExpectExec("UPDATE appointments").
		WithArgs("accepted", "apt-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus("apt-1", types.StatusAccepted)
	require.Error(t, err)

	hbErr, ok := types.AsHealthBridgeError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrCodeInvalidTransition, hbErr.Code)
}

func TestRepositoryUpdateStatus_Success(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectExec("UPDATE appointments").
		WithArgs("rejected", "apt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus("apt-1", types.StatusRejected)
	require.NoError(t, err)
}

func TestRepositoryListByDoctor(t *testing.T) {
	repo, mock := setupRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "doctor_id", "patient_id", "reason", "status", "created_at", "updated_at",
		"name", "role",
	}).
		AddRow("apt-2", "doc-1", "pat-2", "fever", "pending", now, now, "Ravi", "patient").
		AddRow("apt-1", "doc-1", "pat-1", "checkup", "accepted", now.Add(-time.Hour), now, "Asha", "patient")

	mock.ExpectQuery("SELECT (.+) FROM appointments a").
		WithArgs("doc-1").
		WillReturnRows(rows)

	appointments, err := repo.ListByDoctor("doc-1")
	require.NoError(t, err)
	require.Len(t, appointments, 2)

	assert.Equal(t, "apt-2", appointments[0].ID)
	require.NotNil(t, appointments[0].Patient)
	assert.Equal(t, "Ravi", appointments[0].Patient.Name)
	assert.Equal(t, "pat-2", appointments[0].Patient.ID)
}

func TestRepositoryAcceptedCounterparts(t *testing.T) {
	repo, mock := setupRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name", "role", "degree", "registration_number"}).
		AddRow("doc-1", "Dr. Rao", "doctor", "MBBS", "REG-9001")

	mock.ExpectQuery("SELECT DISTINCT (.+) FROM appointments a").
		WithArgs("pat-1").
		WillReturnRows(rows)

	cards, err := repo.AcceptedCounterparts("pat-1", types.RoleDoctor)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Dr. Rao", cards[0].Name)
	assert.Equal(t, "MBBS", cards[0].Degree)
}

func TestRepositoryAcceptedCounterparts_BadRole(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.AcceptedCounterparts("pat-1", "asha")
	require.Error(t, err)

	hbErr, _ := types.AsHealthBridgeError(err)
	assert.Equal(t, types.ErrorTypeValidation, hbErr.Type)
}
