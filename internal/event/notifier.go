package event

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/service/booking"
	"github.com/docagenda/scheduling-api/pkg/messaging"
)

const (
	ChannelBooked    = "appointments.booked"
	ChannelConfirmed = "appointments.confirmed"
	ChannelCancelled = "appointments.cancelled"
)

// AppointmentEvent is the payload published on appointment lifecycle
// transitions. Downstream consumers (calendar sync, analytics) subscribe to
// the per-transition channels.
type AppointmentEvent struct {
	AppointmentID string    `json:"appointment_id"`
	ClinicID      string    `json:"clinic_id"`
	DoctorID      string    `json:"doctor_id"`
	PatientID     string    `json:"patient_id"`
	Date          time.Time `json:"date"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier publishes lifecycle events to a message broker. Publishing is
// best-effort: a broker outage must never fail a booking.
type Notifier struct {
	broker messaging.Broker
}

func NewNotifier(broker messaging.Broker) *Notifier {
	return &Notifier{broker: broker}
}

func (n *Notifier) AppointmentBooked(ctx context.Context, appt *model.Appointment) {
	n.publish(ctx, ChannelBooked, appt)
}

func (n *Notifier) AppointmentConfirmed(ctx context.Context, appt *model.Appointment) {
	n.publish(ctx, ChannelConfirmed, appt)
}

func (n *Notifier) AppointmentCancelled(ctx context.Context, appt *model.Appointment) {
	n.publish(ctx, ChannelCancelled, appt)
}

func (n *Notifier) publish(ctx context.Context, channel string, appt *model.Appointment) {
	ev := AppointmentEvent{
		AppointmentID: appt.ID.String(),
		ClinicID:      appt.ClinicID.String(),
		DoctorID:      appt.DoctorID.String(),
		PatientID:     appt.PatientID.String(),
		Date:          appt.Date,
		Status:        string(appt.Status),
		OccurredAt:    time.Now().UTC(),
	}
	if err := n.broker.Publish(ctx, channel, ev); err != nil {
		log.Error().Err(err).
			Str("channel", channel).
			Str("appointment_id", ev.AppointmentID).
			Msg("failed to publish appointment event")
	}
}

// Multi fans a lifecycle notification out to several notifiers.
type Multi []booking.Notifier

func (m Multi) AppointmentBooked(ctx context.Context, appt *model.Appointment) {
	for _, n := range m {
		n.AppointmentBooked(ctx, appt)
	}
}

func (m Multi) AppointmentConfirmed(ctx context.Context, appt *model.Appointment) {
	for _, n := range m {
		n.AppointmentConfirmed(ctx, appt)
	}
}

func (m Multi) AppointmentCancelled(ctx context.Context, appt *model.Appointment) {
	for _, n := range m {
		n.AppointmentCancelled(ctx, appt)
	}
}
