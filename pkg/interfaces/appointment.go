package interfaces

import (
	"github.com/healthbridge/healthbridge/pkg/types"
)

// AppointmentService defines the interface for the appointment lifecycle
type AppointmentService interface {
	Book(patientID string, req *types.BookAppointmentRequest) (*types.Appointment, error)
	SetStatus(appointmentID, callerID string, status types.AppointmentStatus) (*types.Appointment, error)
	ListForDoctor(doctorID string) ([]*types.Appointment, error)
	AcceptedDoctorsForPatient(patientID string) ([]*types.ContactCard, error)
	AcceptedPatientsForDoctor(doctorID string) ([]*types.ContactCard, error)
}

// AppointmentRepository defines the interface for appointment data persistence
type AppointmentRepository interface {
	Create(apt *types.Appointment) error
	GetByID(id string) (*types.Appointment, error)
	UpdateStatus(id string, status types.AppointmentStatus) error
	ListByDoctor(doctorID string) ([]*types.Appointment, error)
	AcceptedCounterparts(userID string, counterpartRole types.UserRole) ([]*types.ContactCard, error)
}
