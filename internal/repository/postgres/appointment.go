package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/schedule"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, doctor_id, patient_id, date, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.DoctorID,
		appointment.PatientID,
		appointment.Date,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to create appointment: %w", err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, clinic_id, doctor_id, patient_id, date, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to get appointment: %w", err))
	}
	return &appointment, nil
}

// UpdateStatus transitions the appointment only if its current status matches
// `from`, so concurrent confirm/cancel attempts cannot both win.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, apperrors.Storage(fmt.Errorf("failed to update appointment status: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		// Distinguish a missing row from a lost status race.
		if _, err := r.Get(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, clinic_id, doctor_id, patient_id, date, status, created_at, updated_at
		FROM appointments
		WHERE clinic_id = $1
	`
	args := []interface{}{filters.ClinicID}
	argCount := 2

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.From.IsZero() {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, filters.From)
		argCount++
	}
	if !filters.To.IsZero() {
		query += fmt.Sprintf(" AND date < $%d", argCount)
		args = append(args, filters.To)
		argCount++
	}

	query += " ORDER BY date ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list appointments: %w", err))
	}
	return appointments, nil
}

func (r *appointmentRepository) ActiveIntervalsForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]schedule.Interval, error) {
	query := `
		SELECT date
		FROM appointments
		WHERE doctor_id = $1
		  AND status != 'cancelled'
		  AND date >= $2
		  AND date < $3
		ORDER BY date ASC
	`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, doctorID, from, to); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to load doctor intervals: %w", err))
	}

	intervals := make([]schedule.Interval, 0, len(dates))
	for _, d := range dates {
		intervals = append(intervals, schedule.NewInterval(d, r.slotDuration))
	}
	return intervals, nil
}

// ActiveBookings loads every non-cancelled appointment's interval grouped by
// doctor; the conflict index rebuilds from this on startup and during
// reconciliation.
func (r *appointmentRepository) ActiveBookings(ctx context.Context) (map[uuid.UUID][]schedule.Booking, error) {
	query := `
		SELECT id, doctor_id, date
		FROM appointments
		WHERE status != 'cancelled'
		ORDER BY doctor_id, date ASC
	`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to load active bookings: %w", err))
	}
	defer rows.Close()

	byDoctor := make(map[uuid.UUID][]schedule.Booking)
	for rows.Next() {
		var id, doctorID uuid.UUID
		var date time.Time
		if err := rows.Scan(&id, &doctorID, &date); err != nil {
			return nil, apperrors.Storage(fmt.Errorf("failed to scan active booking: %w", err))
		}
		byDoctor[doctorID] = append(byDoctor[doctorID], schedule.Booking{
			AppointmentID: id,
			Interval:      schedule.NewInterval(date, r.slotDuration),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to read active bookings: %w", err))
	}
	return byDoctor, nil
}
