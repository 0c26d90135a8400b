package appointment

import (
	"strings"

	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Service implements the AppointmentService interface
type Service struct {
	repo   interfaces.AppointmentRepository
	users  interfaces.UserRepository
	logger *logger.Logger
}

// NewService creates a new appointment service
func NewService(repo interfaces.AppointmentRepository, users interfaces.UserRepository, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		logger: log,
	}
}

// Book creates a pending appointment from a patient to a doctor
func (s *Service) Book(patientID string, req *types.BookAppointmentRequest) (*types.Appointment, error) {
	if req.DoctorID == "" || strings.TrimSpace(req.Reason) == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "doctorId and reason are required", nil)
	}

	doctor, err := s.users.GetByID(req.DoctorID)
	if err != nil {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "doctor not found")
	}
	if doctor.Role != types.RoleDoctor || !doctor.IsActive {
		return nil, types.NewNotFoundError(types.ErrCodeNotFound, "doctor not found")
	}

	apt := &types.Appointment{
		ID:        uuid.New().String(),
		DoctorID:  req.DoctorID,
		PatientID: patientID,
		Reason:    strings.TrimSpace(req.Reason),
		Status:    types.StatusPending,
	}

	if err := s.repo.Create(apt); err != nil {
		return nil, err
	}

	s.logger.Audit(patientID, "book_appointment", "appointment", true, map[string]interface{}{
		"appointment_id": apt.ID,
		"doctor_id":      apt.DoctorID,
	})
	return apt, nil
}

// SetStatus transitions a pending appointment to accepted or rejected. Only
// the assigned doctor may transition it.
func (s *Service) SetStatus(appointmentID, callerID string, status types.AppointmentStatus) (*types.Appointment, error) {
	if status != types.StatusAccepted && status != types.StatusRejected {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "status must be accepted or rejected", nil)
	}

	apt, err := s.repo.GetByID(appointmentID)
	if err != nil {
		return nil, err
	}

	if apt.DoctorID != callerID {
		s.logger.Security("appointment_transition_denied", callerID, map[string]interface{}{
			"appointment_id": appointmentID,
		})
		return nil, types.NewAuthorizationError(types.ErrCodeForbidden, "only the assigned doctor may update this appointment")
	}

	if apt.Status != types.StatusPending {
		return nil, types.NewConflictError(types.ErrCodeInvalidTransition, "appointment is not pending")
	}

	if err := s.repo.UpdateStatus(appointmentID, status); err != nil {
		return nil, err
	}

	s.logger.Audit(callerID, "set_appointment_status", "appointment", true, map[string]interface{}{
		"appointment_id": appointmentID,
		"status":         status,
	})

	apt.Status = status
	return apt, nil
}

// ListForDoctor returns every appointment assigned to the doctor, newest first
func (s *Service) ListForDoctor(doctorID string) ([]*types.Appointment, error) {
	return s.repo.ListByDoctor(doctorID)
}

// AcceptedDoctorsForPatient returns contact cards for every doctor who has
// accepted an appointment with the patient
func (s *Service) AcceptedDoctorsForPatient(patientID string) ([]*types.ContactCard, error) {
	return s.repo.AcceptedCounterparts(patientID, types.RoleDoctor)
}

// AcceptedPatientsForDoctor returns contact cards for every patient whose
// appointment the doctor has accepted
func (s *Service) AcceptedPatientsForDoctor(doctorID string) ([]*types.ContactCard, error) {
	return s.repo.AcceptedCounterparts(doctorID, types.RolePatient)
}
