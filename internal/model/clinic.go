package model

import (
	"time"

	"github.com/google/uuid"
)

// Clinic is the tenant boundary. Doctors, patients and appointments all hang
// off a clinic and never move between clinics.
type Clinic struct {
	Base
	Name string `db:"name" json:"name"`
}

// Membership joins an externally-managed user to a clinic. The pair
// (UserID, ClinicID) is unique.
type Membership struct {
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	ClinicID  uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Role      ClinicRole `db:"role" json:"role"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

type CreateClinicRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

type UpdateClinicRequest struct {
	Name string `json:"name" binding:"required,min=2,max=255"`
}

type AddMemberRequest struct {
	UserID uuid.UUID  `json:"user_id" binding:"required"`
	Role   ClinicRole `json:"role" binding:"required,oneof=staff patient"`
}
