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

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		clinic.ID,
		clinic.Name,
		clinic.CreatedAt,
		clinic.UpdatedAt,
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to create clinic: %w", err))
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM clinics
		WHERE id = $1
	`
	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("clinic")
		}
		return nil, apperrors.Storage(fmt.Errorf("failed to get clinic: %w", err))
	}
	return &clinic, nil
}

func (r *clinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	query := `
		UPDATE clinics
		SET name = $1, updated_at = $2
		WHERE id = $3
	`
	clinic.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, clinic.Name, clinic.UpdatedAt, clinic.ID)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to update clinic: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("clinic")
	}
	return nil
}

// Delete relies on ON DELETE CASCADE in the schema: the clinic's doctors,
// patients, appointments and memberships are removed by the database.
func (r *clinicRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to delete clinic: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("clinic")
	}
	return nil
}

func (r *clinicRepository) List(ctx context.Context) ([]*model.Clinic, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM clinics
		ORDER BY name ASC
	`
	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list clinics: %w", err))
	}
	return clinics, nil
}

func (r *clinicRepository) AddMember(ctx context.Context, m *model.Membership) error {
	query := `
		INSERT INTO clinic_memberships (user_id, clinic_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, m.UserID, m.ClinicID, m.Role, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Validation("user is already a member of this clinic")
		}
		return apperrors.Storage(fmt.Errorf("failed to add clinic member: %w", err))
	}
	return nil
}

func (r *clinicRepository) RemoveMember(ctx context.Context, clinicID, userID uuid.UUID) error {
	query := `
		DELETE FROM clinic_memberships
		WHERE clinic_id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, clinicID, userID)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to remove clinic member: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("membership")
	}
	return nil
}

func (r *clinicRepository) ListMembers(ctx context.Context, clinicID uuid.UUID) ([]*model.Membership, error) {
	query := `
		SELECT user_id, clinic_id, role, created_at
		FROM clinic_memberships
		WHERE clinic_id = $1
		ORDER BY created_at ASC
	`
	var members []*model.Membership
	if err := r.db.SelectContext(ctx, &members, query, clinicID); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list clinic members: %w", err))
	}
	return members, nil
}

func (r *clinicRepository) MembershipsForUser(ctx context.Context, userID uuid.UUID) ([]*model.Membership, error) {
	query := `
		SELECT user_id, clinic_id, role, created_at
		FROM clinic_memberships
		WHERE user_id = $1
	`
	var members []*model.Membership
	if err := r.db.SelectContext(ctx, &members, query, userID); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("failed to list user memberships: %w", err))
	}
	return members, nil
}
