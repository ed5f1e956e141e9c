package schedule

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

// Token identifies one held reservation. The nonce is unique per Reserve
// call, so releasing with a stale token cannot free a reservation created
// later for the same interval.
type Token struct {
	DoctorID uuid.UUID
	Interval Interval
	nonce    uint64
}

// Booking is a persisted appointment's claim on an interval, used to rebuild
// the index from storage.
type Booking struct {
	AppointmentID uuid.UUID
	Interval      Interval
}

// IntervalSource supplies the active (non-cancelled) bookings per doctor,
// used to rebuild the index on startup and during reconciliation.
type IntervalSource interface {
	ActiveBookings(ctx context.Context) (map[uuid.UUID][]Booking, error)
}

// reservation is one held interval. appointmentID is Nil while the booking
// is still in flight (reserved but not yet persisted) and is set by Bind
// once the appointment row commits.
type reservation struct {
	ival          Interval
	nonce         uint64
	appointmentID uuid.UUID
}

// calendar holds one doctor's reservations sorted by interval start. A
// rebuild retires the old calendar object so a goroutine still holding a
// reference cannot write into a discarded copy.
type calendar struct {
	mu           sync.Mutex
	reservations []reservation
	retired      bool
}

// Index is the per-doctor conflict index: the single source of truth for
// "is this doctor free then". Reserve either claims an interval atomically or
// reports a conflict; it never waits for the slot to free. Doctors are fully
// independent, so bookings for different doctors proceed in parallel.
type Index struct {
	mu        sync.RWMutex
	calendars map[uuid.UUID]*calendar
	nonces    atomic.Uint64
}

func NewIndex() *Index {
	return &Index{calendars: make(map[uuid.UUID]*calendar)}
}

func (x *Index) calendarFor(doctorID uuid.UUID) *calendar {
	x.mu.RLock()
	c, ok := x.calendars[doctorID]
	x.mu.RUnlock()
	if ok {
		return c
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if c, ok = x.calendars[doctorID]; !ok {
		c = &calendar{}
		x.calendars[doctorID] = c
	}
	return c
}

// lockCalendar returns the doctor's calendar with its mutex held, retrying
// when a concurrent rebuild retired the object we fetched.
func (x *Index) lockCalendar(doctorID uuid.UUID) *calendar {
	for {
		c := x.calendarFor(doctorID)
		c.mu.Lock()
		if !c.retired {
			return c
		}
		c.mu.Unlock()
	}
}

// lockExisting is lockCalendar for operations that must not create a
// calendar; returns nil when the doctor has none.
func (x *Index) lockExisting(doctorID uuid.UUID) *calendar {
	for {
		x.mu.RLock()
		c, ok := x.calendars[doctorID]
		x.mu.RUnlock()
		if !ok {
			return nil
		}
		c.mu.Lock()
		if !c.retired {
			return c
		}
		c.mu.Unlock()
	}
}

// Reserve inserts the interval for the doctor if it overlaps no existing
// reservation, returning ErrSlotConflict otherwise. The insert keeps the
// per-doctor list sorted by start so the overlap test only has to look at the
// neighbours of the insertion point.
func (x *Index) Reserve(doctorID uuid.UUID, ival Interval) (Token, error) {
	if !ival.End.After(ival.Start) {
		return Token{}, apperrors.Validation("interval end must be after start")
	}

	c := x.lockCalendar(doctorID)
	defer c.mu.Unlock()

	pos := sort.Search(len(c.reservations), func(i int) bool {
		return !c.reservations[i].ival.Start.Before(ival.Start)
	})
	// The only candidates for overlap are the predecessor and the successor.
	if pos > 0 && c.reservations[pos-1].ival.Overlaps(ival) {
		return Token{}, apperrors.SlotConflict()
	}
	if pos < len(c.reservations) && c.reservations[pos].ival.Overlaps(ival) {
		return Token{}, apperrors.SlotConflict()
	}

	nonce := x.nonces.Add(1)
	c.reservations = append(c.reservations, reservation{})
	copy(c.reservations[pos+1:], c.reservations[pos:])
	c.reservations[pos] = reservation{ival: ival, nonce: nonce}

	return Token{DoctorID: doctorID, Interval: ival, nonce: nonce}, nil
}

// Bind ties a held reservation to its persisted appointment row. From then on
// the reservation is released by appointment id and is reconciled against the
// storage snapshot on rebuild.
func (x *Index) Bind(t Token, appointmentID uuid.UUID) {
	c := x.lockExisting(t.DoctorID)
	if c == nil {
		return
	}
	defer c.mu.Unlock()

	for i := range c.reservations {
		if c.reservations[i].nonce == t.nonce {
			c.reservations[i].appointmentID = appointmentID
			return
		}
	}
}

// Release removes the reservation the token was issued for. The match is by
// nonce, never by interval, so a stale or replayed token is a no-op even when
// the slot has since been rebooked.
func (x *Index) Release(t Token) {
	c := x.lockExisting(t.DoctorID)
	if c == nil {
		return
	}
	defer c.mu.Unlock()

	for i := range c.reservations {
		if c.reservations[i].nonce == t.nonce {
			c.reservations = append(c.reservations[:i], c.reservations[i+1:]...)
			return
		}
	}
}

// ReleaseAppointment frees the interval held for a persisted appointment,
// used on cancellation. Rebooking the slot produces a reservation bound to a
// different appointment id, so a replayed release cannot free it.
func (x *Index) ReleaseAppointment(doctorID, appointmentID uuid.UUID) {
	if appointmentID == uuid.Nil {
		return
	}
	c := x.lockExisting(doctorID)
	if c == nil {
		return
	}
	defer c.mu.Unlock()

	kept := c.reservations[:0]
	for _, r := range c.reservations {
		if r.appointmentID != appointmentID {
			kept = append(kept, r)
		}
	}
	c.reservations = kept
}

// Reserved returns a copy of the doctor's held intervals, sorted by start.
func (x *Index) Reserved(doctorID uuid.UUID) []Interval {
	c := x.lockExisting(doctorID)
	if c == nil {
		return nil
	}
	defer c.mu.Unlock()
	out := make([]Interval, 0, len(c.reservations))
	for _, r := range c.reservations {
		out = append(out, r.ival)
	}
	return out
}

// EvictDoctor drops all reservations for a doctor, used when the doctor or
// its clinic is deleted.
func (x *Index) EvictDoctor(doctorID uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	c, ok := x.calendars[doctorID]
	if !ok {
		return
	}
	c.mu.Lock()
	c.retired = true
	c.mu.Unlock()
	delete(x.calendars, doctorID)
}

// Rebuild reconciles the index with the active bookings from storage. Bound
// reservations are replaced by the snapshot; reservations not yet bound to a
// persisted row belong to bookings still in flight, which the snapshot cannot
// know about, so they survive unchanged. Called on startup and by the
// reconciler, so a crash between a status update and its release self-heals
// on the next pass.
func (x *Index) Rebuild(ctx context.Context, src IntervalSource) error {
	byDoctor, err := src.ActiveBookings(ctx)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	pending := make(map[uuid.UUID][]reservation)
	for doctorID, c := range x.calendars {
		c.mu.Lock()
		for _, r := range c.reservations {
			if r.appointmentID == uuid.Nil {
				pending[doctorID] = append(pending[doctorID], r)
			}
		}
		c.retired = true
		c.mu.Unlock()
	}

	calendars := make(map[uuid.UUID]*calendar, len(byDoctor))
	for doctorID, bookings := range byDoctor {
		kept := pending[doctorID]
		rs := make([]reservation, 0, len(bookings)+len(kept))
		rs = append(rs, kept...)
		for _, b := range bookings {
			// An in-flight reservation may already have its row in the
			// snapshot (committed but not yet bound); keeping both would
			// pin the slot after release.
			if overlapsPending(b.Interval, kept) {
				continue
			}
			rs = append(rs, reservation{
				ival:          b.Interval,
				nonce:         x.nonces.Add(1),
				appointmentID: b.AppointmentID,
			})
		}
		sortReservations(rs)
		calendars[doctorID] = &calendar{reservations: rs}
	}
	for doctorID, kept := range pending {
		if _, ok := calendars[doctorID]; ok {
			continue
		}
		rs := append([]reservation(nil), kept...)
		sortReservations(rs)
		calendars[doctorID] = &calendar{reservations: rs}
	}

	x.calendars = calendars
	return nil
}

func overlapsPending(ival Interval, rs []reservation) bool {
	for _, r := range rs {
		if r.ival.Overlaps(ival) {
			return true
		}
	}
	return false
}

func sortReservations(rs []reservation) {
	sort.Slice(rs, func(i, j int) bool {
		return rs[i].ival.Start.Before(rs[j].ival.Start)
	})
}
