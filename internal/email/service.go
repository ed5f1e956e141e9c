package email

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/repository"
	"github.com/docagenda/scheduling-api/pkg/circuitbreaker"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Service sends booking lifecycle mail to patients. It implements
// booking.Notifier; delivery failures are logged, never surfaced, because a
// booking must not fail on a mail outage.
type Service struct {
	dialer   *gomail.Dialer
	from     string
	patients repository.PatientRepository
	doctors  repository.DoctorRepository
	breaker  *circuitbreaker.CircuitBreaker
}

func NewService(cfg Config, patients repository.PatientRepository, doctors repository.DoctorRepository) *Service {
	return &Service{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		patients: patients,
		doctors:  doctors,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxRequests: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

func (s *Service) AppointmentBooked(ctx context.Context, appt *model.Appointment) {
	s.send(ctx, appt, "Appointment requested",
		"Your appointment with %s on %s is pending confirmation by the clinic.")
}

func (s *Service) AppointmentConfirmed(ctx context.Context, appt *model.Appointment) {
	s.send(ctx, appt, "Appointment confirmed",
		"Your appointment with %s on %s has been confirmed.")
}

func (s *Service) AppointmentCancelled(ctx context.Context, appt *model.Appointment) {
	s.send(ctx, appt, "Appointment cancelled",
		"Your appointment with %s on %s has been cancelled.")
}

func (s *Service) send(ctx context.Context, appt *model.Appointment, subject, bodyFormat string) {
	patient, err := s.patients.Get(ctx, appt.PatientID)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("skipping notification, patient lookup failed")
		return
	}
	doctor, err := s.doctors.Get(ctx, appt.DoctorID)
	if err != nil {
		log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("skipping notification, doctor lookup failed")
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", patient.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", fmt.Sprintf(bodyFormat, doctor.Name, appt.Date.Format("Mon, 02 Jan 2006 15:04")))

	err = s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		log.Error().Err(err).
			Str("appointment_id", appt.ID.String()).
			Str("to", patient.Email).
			Msg("failed to send appointment notification")
	}
}
