package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/schedule"
)

// The scheduling core consumes these interfaces; the Postgres package under
// postgres/ is the production implementation. Implementations return
// pkg/errors kinds: NotFound for missing rows, StorageUnavailable for I/O
// failures.
type (
	ClinicRepository interface {
		Create(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		Update(ctx context.Context, clinic *model.Clinic) error
		// Delete removes the clinic; doctors, patients and appointments go
		// with it via ON DELETE CASCADE.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Clinic, error)

		AddMember(ctx context.Context, m *model.Membership) error
		RemoveMember(ctx context.Context, clinicID, userID uuid.UUID) error
		ListMembers(ctx context.Context, clinicID uuid.UUID) ([]*model.Membership, error)
		// MembershipsForUser resolves every clinic the user belongs to,
		// with role; used to build the request actor.
		MembershipsForUser(ctx context.Context, userID uuid.UUID) ([]*model.Membership, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, clinicID uuid.UUID) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// UpdateStatus performs a conditional transition: the row is
		// updated only if its current status is `from`. Returns
		// ErrNotFound when the appointment is absent and false when the
		// row exists but the status no longer matches.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (bool, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ActiveIntervalsForDoctor returns the non-cancelled intervals in
		// [from, to); used for slot listing.
		ActiveIntervalsForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]schedule.Interval, error)
		// ActiveBookings feeds schedule.Index.Rebuild on startup and
		// during reconciliation.
		ActiveBookings(ctx context.Context) (map[uuid.UUID][]schedule.Booking, error)
	}
)
