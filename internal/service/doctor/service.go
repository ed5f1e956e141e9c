package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/repository"
	"github.com/docagenda/scheduling-api/internal/schedule"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

// CacheInvalidator evicts a doctor from the booking engine's lookup cache,
// so availability changes take effect without waiting for the cache TTL.
type CacheInvalidator interface {
	InvalidateDoctor(id uuid.UUID)
}

type Service struct {
	repo    repository.DoctorRepository
	clinics repository.ClinicRepository
	index   *schedule.Index
	cache   CacheInvalidator
}

func NewService(repo repository.DoctorRepository, clinics repository.ClinicRepository, index *schedule.Index, cache CacheInvalidator) *Service {
	return &Service{
		repo:    repo,
		clinics: clinics,
		index:   index,
		cache:   cache,
	}
}

func (s *Service) invalidate(id uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateDoctor(id)
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if _, err := s.clinics.Get(ctx, req.ClinicID); err != nil {
		return nil, err
	}

	availability, err := model.NewAvailability(
		time.Weekday(req.FromWeekDay),
		time.Weekday(req.ToWeekDay),
		req.FromTime,
		req.ToTime,
	)
	if err != nil {
		return nil, err
	}
	if req.AppointmentPriceInCents < 0 {
		return nil, apperrors.Validation("appointment price must not be negative")
	}

	now := time.Now()
	doctor := &model.Doctor{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClinicID:                req.ClinicID,
		Name:                    req.Name,
		Specialty:               req.Specialty,
		AvatarImageURL:          req.AvatarImageURL,
		AppointmentPriceInCents: req.AppointmentPriceInCents,
		Availability:            availability,
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return nil, err
	}
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.repo.Get(ctx, id)
}

// UpdateDoctor applies partial updates. The doctor's clinic never changes; a
// doctor belongs to one clinic for its lifetime.
func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialty != nil {
		doctor.Specialty = *req.Specialty
	}
	if req.AvatarImageURL != nil {
		doctor.AvatarImageURL = req.AvatarImageURL
	}
	if req.AppointmentPriceInCents != nil {
		if *req.AppointmentPriceInCents < 0 {
			return nil, apperrors.Validation("appointment price must not be negative")
		}
		doctor.AppointmentPriceInCents = *req.AppointmentPriceInCents
	}
	if req.FromWeekDay != nil {
		doctor.FromWeekDay = time.Weekday(*req.FromWeekDay)
	}
	if req.ToWeekDay != nil {
		doctor.ToWeekDay = time.Weekday(*req.ToWeekDay)
	}
	if req.FromTime != nil {
		doctor.FromTime = *req.FromTime
	}
	if req.ToTime != nil {
		doctor.ToTime = *req.ToTime
	}

	// Narrowing the window does not touch existing appointments; they were
	// valid when booked and stay on the calendar.
	if err := doctor.Availability.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, err
	}
	s.invalidate(doctor.ID)
	return doctor, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.index.EvictDoctor(id)
	s.invalidate(id)
	return nil
}

func (s *Service) ListDoctors(ctx context.Context, clinicID uuid.UUID) ([]*model.Doctor, error) {
	return s.repo.List(ctx, clinicID)
}
