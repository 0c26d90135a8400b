package appointment

import (
	"database/sql"
	"fmt"

	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Repository implements the AppointmentRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new appointment repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.AppointmentRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// Create inserts a new appointment
func (r *Repository) Create(apt *types.Appointment) error {
	query := `
		INSERT INTO appointments (id, doctor_id, patient_id, reason, status)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query,
		apt.ID,
		apt.DoctorID,
		apt.PatientID,
		apt.Reason,
		string(apt.Status),
	)

	if err != nil {
		r.logger.WithError(err).Error("Failed to create appointment")
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": apt.ID,
		"doctor_id":      apt.DoctorID,
		"patient_id":     apt.PatientID,
	}).Info("Created appointment")
	return nil
}

// GetByID retrieves an appointment by ID
func (r *Repository) GetByID(id string) (*types.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_id, reason, status, created_at, updated_at
		FROM appointments
		WHERE id = $1`

	apt := &types.Appointment{}
	err := r.db.QueryRow(query, id).Scan(
		&apt.ID,
		&apt.DoctorID,
		&apt.PatientID,
		&apt.Reason,
		&apt.Status,
		&apt.CreatedAt,
		&apt.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found")
		}
		r.logger.WithError(err).Error("Failed to get appointment")
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return apt, nil
}

// UpdateStatus transitions an appointment out of pending. The WHERE clause
// enforces the pending guard at the storage layer as well, so two concurrent
// transitions cannot both win.
func (r *Repository) UpdateStatus(id string, status types.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND status = 'pending'`

	result, err := r.db.Exec(query, string(status), id)
	if err != nil {
		r.logger.WithError(err).Error("Failed to update appointment status")
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewConflictError(types.ErrCodeInvalidTransition, "appointment is not pending")
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": id,
		"status":         status,
	}).Info("Updated appointment status")
	return nil
}

// ListByDoctor retrieves all appointments assigned to a doctor, newest first,
// with the patient's contact card embedded.
func (r *Repository) ListByDoctor(doctorID string) ([]*types.Appointment, error) {
	query := `
		SELECT a.id, a.doctor_id, a.patient_id, a.reason, a.status, a.created_at, a.updated_at,
			   u.name, u.role
		FROM appointments a
		JOIN users u ON u.id = a.patient_id
		WHERE a.doctor_id = $1
		ORDER BY a.created_at DESC`

	rows, err := r.db.Query(query, doctorID)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list doctor appointments")
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*types.Appointment
	for rows.Next() {
		apt := &types.Appointment{Patient: &types.ContactCard{}}
		err := rows.Scan(
			&apt.ID,
			&apt.DoctorID,
			&apt.PatientID,
			&apt.Reason,
			&apt.Status,
			&apt.CreatedAt,
			&apt.UpdatedAt,
			&apt.Patient.Name,
			&apt.Patient.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		apt.Patient.ID = apt.PatientID
		appointments = append(appointments, apt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appointments, nil
}

// AcceptedCounterparts lists the contact cards of the other party on every
// accepted appointment involving userID. counterpartRole selects which side
// of the appointment to project.
func (r *Repository) AcceptedCounterparts(userID string, counterpartRole types.UserRole) ([]*types.ContactCard, error) {
	var query string
	switch counterpartRole {
	case types.RoleDoctor:
		query = `
			SELECT DISTINCT u.id, u.name, u.role, u.degree, u.registration_number
			FROM appointments a
			JOIN users u ON u.id = a.doctor_id
			WHERE a.patient_id = $1 AND a.status = 'accepted'
			ORDER BY u.name ASC`
	case types.RolePatient:
		query = `
			SELECT DISTINCT u.id, u.name, u.role, u.degree, u.registration_number
			FROM appointments a
			JOIN users u ON u.id = a.patient_id
			WHERE a.doctor_id = $1 AND a.status = 'accepted'
			ORDER BY u.name ASC`
	default:
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "unsupported role", nil)
	}

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.WithError(err).Error("Failed to list accepted counterparts")
		return nil, fmt.Errorf("failed to list counterparts: %w", err)
	}
	defer rows.Close()

	var cards []*types.ContactCard
	for rows.Next() {
		user := &types.User{}
		var degree, regNumber sql.NullString

		if err := rows.Scan(&user.ID, &user.Name, &user.Role, &degree, &regNumber); err != nil {
			return nil, fmt.Errorf("failed to scan counterpart: %w", err)
		}

		if degree.Valid || regNumber.Valid {
			user.Doctor = &types.DoctorProfile{
				Degree:             degree.String,
				RegistrationNumber: regNumber.String,
			}
		}
		cards = append(cards, user.ContactCard())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counterparts: %w", err)
	}

	return cards, nil
}
