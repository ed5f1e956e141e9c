package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSlotConflict, KindOf(SlotConflict()))
	assert.Equal(t, KindNotFound, KindOf(NotFound("doctor")))
	assert.Equal(t, KindStorageUnavailable, KindOf(Storage(io.ErrUnexpectedEOF)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("booking failed: %w", SlotConflict())
	assert.Equal(t, KindSlotConflict, KindOf(err))
	assert.True(t, errors.Is(err, ErrSlotConflict))
}

func TestIsMatchesOnKind(t *testing.T) {
	assert.True(t, errors.Is(TenantMismatch("patient"), ErrTenantMismatch))
	assert.True(t, errors.Is(InvalidTransition("cancelled", "confirmed"), ErrInvalidTransition))
	assert.False(t, errors.Is(SlotConflict(), ErrNotFound))
	assert.False(t, errors.Is(errors.New("plain"), ErrSlotConflict))
}

func TestStoragePreservesCause(t *testing.T) {
	cause := io.ErrClosedPipe
	err := Storage(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "storage unavailable")
	assert.Contains(t, err.Error(), cause.Error())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "doctor not found", NotFound("doctor").Error())
	assert.Equal(t, "patient belongs to a different clinic", TenantMismatch("patient").Error())
	assert.Equal(t, "cannot transition appointment from cancelled to confirmed",
		InvalidTransition("cancelled", "confirmed").Error())
}
