package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/repository"
	"github.com/docagenda/scheduling-api/internal/schedule"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
	"github.com/docagenda/scheduling-api/pkg/metrics"
)

const (
	DefaultSlotDuration = 30 * time.Minute

	doctorCacheTTL     = 30 * time.Second
	doctorCacheCleanup = 5 * time.Minute
)

// Notifier delivers booking lifecycle notifications. Failures are logged and
// never fail the operation itself.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *model.Appointment)
	AppointmentConfirmed(ctx context.Context, appt *model.Appointment)
	AppointmentCancelled(ctx context.Context, appt *model.Appointment)
}

// Config carries the optional collaborators of the booking engine.
type Config struct {
	SlotDuration time.Duration
	Notifier     Notifier
	Metrics      *metrics.Metrics
}

// Service is the booking engine: it validates tenant ownership and
// availability, claims the interval in the conflict index, and drives the
// appointment status lifecycle.
type Service struct {
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	appointments repository.AppointmentRepository
	index        *schedule.Index
	locker       schedule.DoctorLocker
	doctorCache  *cache.Cache
	notifier     Notifier
	metrics      *metrics.Metrics
	slotDuration time.Duration
}

func NewService(
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	appointments repository.AppointmentRepository,
	index *schedule.Index,
	locker schedule.DoctorLocker,
	cfg Config,
) *Service {
	if cfg.SlotDuration <= 0 {
		cfg.SlotDuration = DefaultSlotDuration
	}
	if locker == nil {
		locker = schedule.NewNoopLocker()
	}
	return &Service{
		doctors:      doctors,
		patients:     patients,
		appointments: appointments,
		index:        index,
		locker:       locker,
		doctorCache:  cache.New(doctorCacheTTL, doctorCacheCleanup),
		notifier:     cfg.Notifier,
		metrics:      cfg.Metrics,
		slotDuration: cfg.SlotDuration,
	}
}

// SlotDuration returns the system-wide appointment length.
func (s *Service) SlotDuration() time.Duration {
	return s.slotDuration
}

// BookAppointment validates the request, reserves the interval and creates
// the appointment in pending state. Reservation and record creation are one
// logical unit: if the insert fails, the reservation is released.
func (s *Service) BookAppointment(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	started := time.Now()
	appt, err := s.bookAppointment(ctx, req)
	s.recordBooking(err, time.Since(started))
	return appt, err
}

func (s *Service) bookAppointment(ctx context.Context, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	doctor, err := s.getDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	if doctor.ClinicID != req.ClinicID {
		return nil, apperrors.TenantMismatch("doctor")
	}
	if patient.ClinicID != req.ClinicID {
		return nil, apperrors.TenantMismatch("patient")
	}

	ival := schedule.NewInterval(req.Date, s.slotDuration)
	if !doctor.Availability.Contains(ival.Start, ival.End) {
		return nil, apperrors.OutsideAvailability()
	}

	var appt *model.Appointment
	err = s.locker.WithDoctorLock(ctx, doctor.ID, func(ctx context.Context) error {
		// The in-memory index only knows what this instance booked since
		// its last rebuild; another replica may have persisted a row for
		// this slot in the meantime. Re-check storage under the lock.
		persisted, err := s.appointments.ActiveIntervalsForDoctor(ctx, doctor.ID, ival.Start.Add(-s.slotDuration), ival.End)
		if err != nil {
			return err
		}
		if overlapsAny(ival, persisted) {
			return apperrors.SlotConflict()
		}

		token, err := s.index.Reserve(doctor.ID, ival)
		if err != nil {
			return err
		}

		now := time.Now()
		a := &model.Appointment{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			ClinicID:  req.ClinicID,
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			Date:      ival.Start,
			Status:    model.AppointmentStatusPending,
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			s.index.Release(token)
			return fmt.Errorf("failed to persist appointment: %w", err)
		}
		// The reservation now has a persisted row behind it; bind them so
		// cancellation and reconciliation release by appointment id.
		s.index.Bind(token, a.ID)

		appt = a
		return nil
	})
	if err != nil {
		if errors.Is(err, schedule.ErrLockNotAcquired) {
			// Another instance is booking this doctor right now; the
			// caller sees it as an occupied slot and can retry.
			return nil, apperrors.SlotConflict()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReservationsHeld.Inc()
	}
	s.notify(ctx, appt, func(n Notifier) { n.AppointmentBooked(ctx, appt) })

	return appt, nil
}

// ConfirmAppointment moves a pending appointment to confirmed. Staff only.
func (s *Service) ConfirmAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}

	if !actor.IsStaffOf(appt.ClinicID) {
		return apperrors.Forbidden("only clinic staff may confirm appointments")
	}

	switch appt.Status {
	case model.AppointmentStatusConfirmed:
		return apperrors.ErrAlreadyConfirmed
	case model.AppointmentStatusCancelled:
		return apperrors.InvalidTransition(string(appt.Status), string(model.AppointmentStatusConfirmed))
	}

	ok, err := s.appointments.UpdateStatus(ctx, id, model.AppointmentStatusPending, model.AppointmentStatusConfirmed)
	if err != nil {
		return err
	}
	if !ok {
		// Lost a race; re-read to report the accurate state.
		return s.ConfirmAppointment(ctx, id, actor)
	}

	if s.metrics != nil {
		s.metrics.Confirmations.Inc()
	}
	appt.Status = model.AppointmentStatusConfirmed
	s.notify(ctx, appt, func(n Notifier) { n.AppointmentConfirmed(ctx, appt) })

	return nil
}

// CancelAppointment cancels a pending or confirmed appointment and releases
// its reservation so the slot can be rebooked. Allowed for clinic staff and
// the booking patient.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}

	if !actor.IsStaffOf(appt.ClinicID) && !actor.OwnsPatient(appt.PatientID) {
		return apperrors.Forbidden("only clinic staff or the booking patient may cancel")
	}

	if appt.Status == model.AppointmentStatusCancelled {
		return apperrors.ErrAlreadyCancelled
	}

	ok, err := s.appointments.UpdateStatus(ctx, id, appt.Status, model.AppointmentStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		// Status moved under us (pending -> confirmed, or another
		// cancel won). Re-read and retry from the current state.
		return s.CancelAppointment(ctx, id, actor)
	}

	// Release after the status update. If we crash in between, the
	// reconciler rebuilds the index from storage and the interval frees up.
	s.index.ReleaseAppointment(appt.DoctorID, appt.ID)

	if s.metrics != nil {
		s.metrics.Cancellations.Inc()
		s.metrics.ReservationsHeld.Dec()
	}
	appt.Status = model.AppointmentStatusCancelled
	s.notify(ctx, appt, func(n Notifier) { n.AppointmentCancelled(ctx, appt) })

	return nil
}

// GetAppointment returns an appointment visible to the actor.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Appointment, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsMemberOf(appt.ClinicID) {
		return nil, apperrors.Forbidden("not a member of this clinic")
	}
	return appt, nil
}

// ListAppointments lists a clinic's appointments for a member actor.
func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters, actor model.Actor) ([]*model.Appointment, error) {
	if !actor.IsMemberOf(filters.ClinicID) {
		return nil, apperrors.Forbidden("not a member of this clinic")
	}
	return s.appointments.List(ctx, filters)
}

// AvailableSlots enumerates the free slots of a doctor on a calendar day:
// the availability window cut into slot-duration pieces, minus the intervals
// already booked.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]model.TimeSlot, error) {
	doctor, err := s.getDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	booked, err := s.appointments.ActiveIntervalsForDoctor(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	var slots []model.TimeSlot
	for min := int(doctor.FromTime); min+int(s.slotDuration.Minutes()) <= int(doctor.ToTime); min += int(s.slotDuration.Minutes()) {
		start := dayStart.Add(time.Duration(min) * time.Minute)
		ival := schedule.NewInterval(start, s.slotDuration)
		if !doctor.Availability.Contains(ival.Start, ival.End) {
			continue
		}
		if overlapsAny(ival, booked) {
			continue
		}
		slots = append(slots, model.TimeSlot{Start: ival.Start, End: ival.End})
	}
	return slots, nil
}

func overlapsAny(ival schedule.Interval, booked []schedule.Interval) bool {
	for _, b := range booked {
		if ival.Overlaps(b) {
			return true
		}
	}
	return false
}

// InvalidateDoctor drops a doctor from the lookup cache. The doctor service
// calls this when it changes or removes a doctor, so a narrowed availability
// window takes effect immediately instead of after the cache TTL.
func (s *Service) InvalidateDoctor(id uuid.UUID) {
	s.doctorCache.Delete(id.String())
}

// getDoctor serves doctor lookups through a short-lived cache; availability
// windows change rarely and bookings hit the same doctors repeatedly.
func (s *Service) getDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := s.doctorCache.Get(id.String()); ok {
		return cached.(*model.Doctor), nil
	}
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.doctorCache.Set(id.String(), doctor, cache.DefaultExpiration)
	return doctor, nil
}

func (s *Service) notify(ctx context.Context, appt *model.Appointment, fn func(Notifier)) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("appointment_id", appt.ID.String()).Msg("notifier panicked")
		}
	}()
	fn(s.notifier)
}

func (s *Service) recordBooking(err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "booked"
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindSlotConflict:
			outcome = "slot_conflict"
		case apperrors.KindOutsideAvailability:
			outcome = "outside_availability"
		case apperrors.KindTenantMismatch:
			outcome = "tenant_mismatch"
		case apperrors.KindNotFound:
			outcome = "not_found"
		default:
			outcome = "error"
		}
	}
	s.metrics.BookingAttempts.WithLabelValues(outcome).Inc()
	s.metrics.BookingLatency.Observe(elapsed.Seconds())
}
