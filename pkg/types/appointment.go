package types

import "time"

// AppointmentStatus represents appointment lifecycle states
type AppointmentStatus string

const (
	StatusPending  AppointmentStatus = "pending"
	StatusAccepted AppointmentStatus = "accepted"
	StatusRejected AppointmentStatus = "rejected"
)

// Terminal reports whether no further transition is defined from the status
func (s AppointmentStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Appointment represents a requested consultation link between one patient
// and one doctor. Status only ever moves pending->accepted or
// pending->rejected; both targets are terminal.
type Appointment struct {
	ID        string            `json:"id" db:"id"`
	DoctorID  string            `json:"doctor_id" db:"doctor_id"`
	PatientID string            `json:"patient_id" db:"patient_id"`
	Reason    string            `json:"reason" db:"reason"`
	Status    AppointmentStatus `json:"status" db:"status"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`

	// Patient is populated on doctor-scoped listings so the client can
	// render the requester without a second lookup.
	Patient *ContactCard `json:"patient,omitempty"`
}

// BookAppointmentRequest represents a patient's appointment request
type BookAppointmentRequest struct {
	DoctorID string `json:"doctorId"`
	Reason   string `json:"reason"`
}

// AppointmentStatusUpdate represents a doctor's decision on a pending request
type AppointmentStatusUpdate struct {
	Status AppointmentStatus `json:"status"`
}
