package model

import (
	"github.com/google/uuid"
)

type ClinicRole string

const (
	ClinicRoleStaff   ClinicRole = "staff"
	ClinicRolePatient ClinicRole = "patient"
)

// Actor is the authenticated caller as supplied by the identity collaborator.
// Account management lives outside this service; we only consume the resolved
// user id, the clinic roles, and an optional patient binding.
type Actor struct {
	UserID      uuid.UUID
	ClinicRoles map[uuid.UUID]ClinicRole
	// PatientID is set when the authenticated user is a patient; used to
	// authorize cancellation of their own appointments.
	PatientID uuid.UUID
}

func (a Actor) IsMemberOf(clinicID uuid.UUID) bool {
	_, ok := a.ClinicRoles[clinicID]
	return ok
}

func (a Actor) IsStaffOf(clinicID uuid.UUID) bool {
	return a.ClinicRoles[clinicID] == ClinicRoleStaff
}

func (a Actor) OwnsPatient(patientID uuid.UUID) bool {
	return a.PatientID != uuid.Nil && a.PatientID == patientID
}
