package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

var slotLen = 30 * time.Minute

func slotAt(h, m int) Interval {
	start := time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
	return NewInterval(start, slotLen)
}

func TestIntervalOverlaps(t *testing.T) {
	a := slotAt(9, 0)

	// Half-open: back-to-back intervals do not overlap.
	assert.False(t, a.Overlaps(slotAt(9, 30)))
	assert.False(t, a.Overlaps(slotAt(8, 30)))

	assert.True(t, a.Overlaps(slotAt(9, 15)))
	assert.True(t, a.Overlaps(slotAt(8, 45)))
	assert.True(t, a.Overlaps(a))

	// Containment in both directions.
	wide := NewInterval(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 4*time.Hour)
	assert.True(t, a.Overlaps(wide))
	assert.True(t, wide.Overlaps(a))
}

func TestIndexReserveConflicts(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()

	_, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)

	// Exact duplicate and partial overlaps conflict.
	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))
	_, err = idx.Reserve(doctorID, slotAt(9, 15))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))
	_, err = idx.Reserve(doctorID, slotAt(8, 45))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))

	// Back-to-back neighbours are fine.
	_, err = idx.Reserve(doctorID, slotAt(9, 30))
	assert.NoError(t, err)
	_, err = idx.Reserve(doctorID, slotAt(8, 30))
	assert.NoError(t, err)

	assert.Len(t, idx.Reserved(doctorID), 3)
}

func TestIndexDoctorsAreIndependent(t *testing.T) {
	idx := NewIndex()
	a, b := uuid.New(), uuid.New()

	_, err := idx.Reserve(a, slotAt(9, 0))
	require.NoError(t, err)

	// Same interval for another doctor does not conflict.
	_, err = idx.Reserve(b, slotAt(9, 0))
	assert.NoError(t, err)
}

func TestIndexReleaseFreesSlot(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()

	tok, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)

	idx.Release(tok)
	assert.Empty(t, idx.Reserved(doctorID))

	// Released slot can be reserved again.
	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	assert.NoError(t, err)

	// Double release is a no-op and must not free the new reservation.
	idx.Release(tok)
	idx.Release(tok)
	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))
}

func TestIndexReleaseByAppointment(t *testing.T) {
	idx := NewIndex()
	doctorID, apptID := uuid.New(), uuid.New()

	tok, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)
	idx.Bind(tok, apptID)

	idx.ReleaseAppointment(doctorID, apptID)
	assert.Empty(t, idx.Reserved(doctorID))

	// Rebooking the slot binds a different appointment; replaying the old
	// release must not free it.
	tok2, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)
	idx.Bind(tok2, uuid.New())

	idx.ReleaseAppointment(doctorID, apptID)
	assert.Len(t, idx.Reserved(doctorID), 1)
}

func TestIndexStaleTokenCannotFreeRebookedSlot(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()

	old, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)
	idx.Release(old)

	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)

	// The replayed token matches the interval but not the reservation.
	idx.Release(old)
	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))
}

func TestIndexConcurrentReserveExactlyOneWins(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()

	const attempts = 64
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := idx.Reserve(doctorID, slotAt(10, 0))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
		} else {
			require.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, idx.Reserved(doctorID), 1)
}

func TestIndexRejectsEmptyInterval(t *testing.T) {
	idx := NewIndex()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err := idx.Reserve(uuid.New(), Interval{Start: start, End: start})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

type staticSource map[uuid.UUID][]Booking

func (s staticSource) ActiveBookings(context.Context) (map[uuid.UUID][]Booking, error) {
	return s, nil
}

func bookingAt(h, m int) Booking {
	return Booking{AppointmentID: uuid.New(), Interval: slotAt(h, m)}
}

func TestIndexRebuild(t *testing.T) {
	idx := NewIndex()
	stale, current := uuid.New(), uuid.New()

	// A bound reservation whose appointment is no longer active in storage
	// (cancelled elsewhere, release lost in a crash) must be dropped.
	tok, err := idx.Reserve(stale, slotAt(9, 0))
	require.NoError(t, err)
	idx.Bind(tok, uuid.New())

	src := staticSource{
		current: {bookingAt(11, 0), bookingAt(10, 0)},
	}
	require.NoError(t, idx.Rebuild(context.Background(), src))

	assert.Empty(t, idx.Reserved(stale))
	got := idx.Reserved(current)
	require.Len(t, got, 2)
	assert.True(t, got[0].Start.Before(got[1].Start))

	// Rebuilt reservations participate in conflict checks.
	_, err = idx.Reserve(current, slotAt(10, 15))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))
}

func TestIndexRebuildKeepsInFlightReservations(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()

	// Reserved but not yet persisted: the snapshot cannot know about it,
	// so a rebuild landing in that window must not drop it.
	tok, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)

	require.NoError(t, idx.Rebuild(context.Background(), staticSource{}))

	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	assert.Equal(t, apperrors.KindSlotConflict, apperrors.KindOf(err))

	// The surviving reservation still binds and releases normally.
	apptID := uuid.New()
	idx.Bind(tok, apptID)
	idx.ReleaseAppointment(doctorID, apptID)
	assert.Empty(t, idx.Reserved(doctorID))
}

func TestIndexRebuildDeduplicatesCommittedInFlightRow(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()
	apptID := uuid.New()

	// The row committed but Bind has not run yet; the snapshot already
	// carries it. The rebuild must hold the slot exactly once.
	tok, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)

	src := staticSource{
		doctorID: {{AppointmentID: apptID, Interval: slotAt(9, 0)}},
	}
	require.NoError(t, idx.Rebuild(context.Background(), src))
	require.Len(t, idx.Reserved(doctorID), 1)

	idx.Bind(tok, apptID)
	idx.ReleaseAppointment(doctorID, apptID)
	assert.Empty(t, idx.Reserved(doctorID))
}

func TestIndexEvictDoctor(t *testing.T) {
	idx := NewIndex()
	doctorID := uuid.New()

	_, err := idx.Reserve(doctorID, slotAt(9, 0))
	require.NoError(t, err)

	idx.EvictDoctor(doctorID)
	assert.Empty(t, idx.Reserved(doctorID))

	_, err = idx.Reserve(doctorID, slotAt(9, 0))
	assert.NoError(t, err)
}
