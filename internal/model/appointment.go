package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// CanTransitionTo encodes the appointment state machine:
// pending -> confirmed, pending -> cancelled, confirmed -> cancelled.
// Cancelled is terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusPending:
		return next == AppointmentStatusConfirmed || next == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return next == AppointmentStatusCancelled
	default:
		return false
	}
}

// Active reports whether the appointment still occupies its slot. Cancelled
// appointments are kept for audit history but free their interval.
func (s AppointmentStatus) Active() bool {
	return s != AppointmentStatusCancelled
}

// Appointment is a single booked visit. Date is the start instant; the end is
// Date plus the system-wide slot duration, half-open.
type Appointment struct {
	Base
	ClinicID  uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date      time.Time         `db:"date" json:"date"`
	Status    AppointmentStatus `db:"status" json:"status"`
}

type BookAppointmentRequest struct {
	ClinicID  uuid.UUID `json:"clinic_id" binding:"required"`
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	Date      time.Time `json:"date" binding:"required"`
}

type AppointmentFilters struct {
	ClinicID  uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	From      time.Time
	To        time.Time
}

// TimeSlot is a bookable interval offered to callers looking for free times.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
