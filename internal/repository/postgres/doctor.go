package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docagenda/scheduling-api/internal/model"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, clinic_id, name, specialty, avatar_image_url,
			appointment_price_in_cents,
			available_from_week_day, available_to_week_day,
			available_from_time, available_to_time,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.ClinicID,
		doctor.Name,
		doctor.Specialty,
		doctor.AvatarImageURL,
		doctor.AppointmentPriceInCents,
		doctor.FromWeekDay,
		doctor.ToWeekDay,
		doctor.FromTime,
		doctor.ToTime,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to create doctor: %w", err))
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, clinic_id, name, specialty, avatar_image_url,
			   appointment_price_in_cents,
			   available_from_week_day, available_to_week_day,
			   available_from_time, available_to_time,
			   created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("doctor")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to get doctor: %w", err))
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, specialty = $2, avatar_image_url = $3,
			appointment_price_in_cents = $4,
			available_from_week_day = $5, available_to_week_day = $6,
			available_from_time = $7, available_to_time = $8,
			updated_at = $9
		WHERE id = $10
	`
	doctor.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Specialty,
		doctor.AvatarImageURL,
		doctor.AppointmentPriceInCents,
		doctor.FromWeekDay,
		doctor.ToWeekDay,
		doctor.FromTime,
		doctor.ToTime,
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to update doctor: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("doctor")
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to delete doctor: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("doctor")
	}
	return nil
}

func (r *doctorRepository) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Doctor, error) {
	query := `
		SELECT id, clinic_id, name, specialty, avatar_image_url,
			   appointment_price_in_cents,
			   available_from_week_day, available_to_week_day,
			   available_from_time, available_to_time,
			   created_at, updated_at
		FROM doctors
		WHERE clinic_id = $1
		ORDER BY name ASC
	`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, clinicID); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list doctors: %w", err))
	}
	return doctors, nil
}
