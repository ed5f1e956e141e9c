package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// ReminderWorker mails patients about confirmed appointments happening
// within the lookahead window. It runs as a separate binary so a mail
// backlog never slows down the API.
type ReminderWorker struct {
	db        *sqlx.DB
	dialer    *gomail.Dialer
	from      string
	lookahead time.Duration
	interval  time.Duration
}

type reminderRow struct {
	AppointmentID string    `db:"appointment_id"`
	Date          time.Time `db:"date"`
	PatientName   string    `db:"patient_name"`
	PatientEmail  string    `db:"patient_email"`
	DoctorName    string    `db:"doctor_name"`
}

func NewReminderWorker(db *sqlx.DB, dialer *gomail.Dialer, from string, lookahead, interval time.Duration) *ReminderWorker {
	return &ReminderWorker{
		db:        db,
		dialer:    dialer,
		from:      from,
		lookahead: lookahead,
		interval:  interval,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.run(ctx); err != nil {
				log.Error().Err(err).Msg("Reminder pass failed")
			}
		}
	}
}

func (w *ReminderWorker) run(ctx context.Context) error {
	rows, err := w.pending(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := w.remind(row); err != nil {
			log.Error().Err(err).
				Str("appointment_id", row.AppointmentID).
				Msg("Failed to send reminder")
			continue
		}
		if err := w.markReminded(ctx, row.AppointmentID); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		log.Info().Int("count", len(rows)).Msg("Reminders sent")
	}
	return nil
}

func (w *ReminderWorker) pending(ctx context.Context) ([]reminderRow, error) {
	query := `
		SELECT a.id AS appointment_id, a.date,
		       p.name AS patient_name, p.email AS patient_email,
		       d.name AS doctor_name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.status = 'confirmed'
		  AND a.reminded_at IS NULL
		  AND a.date BETWEEN NOW() AND NOW() + $1::interval
		ORDER BY a.date`

	var rows []reminderRow
	lookahead := fmt.Sprintf("%d seconds", int(w.lookahead.Seconds()))
	if err := w.db.SelectContext(ctx, &rows, query, lookahead); err != nil {
		return nil, fmt.Errorf("failed to list upcoming appointments: %w", err)
	}
	return rows, nil
}

func (w *ReminderWorker) remind(row reminderRow) error {
	m := gomail.NewMessage()
	m.SetHeader("From", w.from)
	m.SetHeader("To", row.PatientEmail)
	m.SetHeader("Subject", "Appointment reminder")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nThis is a reminder of your appointment with Dr. %s on %s.\n",
		row.PatientName, row.DoctorName, row.Date.Format("Monday, 2 Jan 2006 at 15:04"),
	))
	return w.dialer.DialAndSend(m)
}

func (w *ReminderWorker) markReminded(ctx context.Context, appointmentID string) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE appointments SET reminded_at = NOW() WHERE id = $1`, appointmentID)
	if err != nil {
		return fmt.Errorf("failed to mark appointment reminded: %w", err)
	}
	return nil
}
