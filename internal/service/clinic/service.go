package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/repository"
	"github.com/docagenda/scheduling-api/internal/schedule"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

// Service is the tenant directory: clinic records plus the user->clinic
// memberships that scope every other operation.
type Service struct {
	repo    repository.ClinicRepository
	doctors repository.DoctorRepository
	index   *schedule.Index
}

func NewService(repo repository.ClinicRepository, doctors repository.DoctorRepository, index *schedule.Index) *Service {
	return &Service{
		repo:    repo,
		doctors: doctors,
		index:   index,
	}
}

func (s *Service) CreateClinic(ctx context.Context, req *model.CreateClinicRequest) (*model.Clinic, error) {
	now := time.Now()
	clinic := &model.Clinic{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name: req.Name,
	}
	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, err
	}
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	clinic.Name = req.Name
	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, err
	}
	return clinic, nil
}

// DeleteClinic removes the clinic and everything it owns. The database
// cascades the deletes; we evict the clinic's doctors from the conflict index
// so freed intervals do not linger until the next rebuild.
func (s *Service) DeleteClinic(ctx context.Context, id uuid.UUID) error {
	doctors, err := s.doctors.List(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	for _, d := range doctors {
		s.index.EvictDoctor(d.ID)
	}
	log.Info().Str("clinic_id", id.String()).Int("doctors", len(doctors)).Msg("clinic deleted")
	return nil
}

func (s *Service) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	return s.repo.List(ctx)
}

func (s *Service) AddMember(ctx context.Context, clinicID uuid.UUID, req *model.AddMemberRequest) (*model.Membership, error) {
	if _, err := s.repo.Get(ctx, clinicID); err != nil {
		return nil, err
	}
	m := &model.Membership{
		UserID:    req.UserID,
		ClinicID:  clinicID,
		Role:      req.Role,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) RemoveMember(ctx context.Context, clinicID, userID uuid.UUID) error {
	return s.repo.RemoveMember(ctx, clinicID, userID)
}

func (s *Service) ListMembers(ctx context.Context, clinicID uuid.UUID) ([]*model.Membership, error) {
	return s.repo.ListMembers(ctx, clinicID)
}

// ResolveActor turns an authenticated user id into the actor the booking
// engine authorizes against: the user's clinic roles, plus a patient binding
// when the identity layer supplies one.
func (s *Service) ResolveActor(ctx context.Context, userID, patientID uuid.UUID) (model.Actor, error) {
	memberships, err := s.repo.MembershipsForUser(ctx, userID)
	if err != nil {
		return model.Actor{}, err
	}
	roles := make(map[uuid.UUID]model.ClinicRole, len(memberships))
	for _, m := range memberships {
		roles[m.ClinicID] = m.Role
	}
	return model.Actor{
		UserID:      userID,
		ClinicRoles: roles,
		PatientID:   patientID,
	}, nil
}

// RequireMember returns Forbidden unless the user belongs to the clinic.
func (s *Service) RequireMember(ctx context.Context, userID, clinicID uuid.UUID) error {
	actor, err := s.ResolveActor(ctx, userID, uuid.Nil)
	if err != nil {
		return err
	}
	if !actor.IsMemberOf(clinicID) {
		return apperrors.Forbidden("not a member of this clinic")
	}
	return nil
}
