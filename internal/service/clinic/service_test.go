package clinic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/schedule"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

type memberKey struct {
	userID   uuid.UUID
	clinicID uuid.UUID
}

type fakeClinicRepo struct {
	mu      sync.Mutex
	clinics map[uuid.UUID]*model.Clinic
	members map[memberKey]*model.Membership
}

func newFakeClinicRepo() *fakeClinicRepo {
	return &fakeClinicRepo{
		clinics: make(map[uuid.UUID]*model.Clinic),
		members: make(map[memberKey]*model.Membership),
	}
}

func (r *fakeClinicRepo) Create(_ context.Context, c *model.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clinics[c.ID] = c
	return nil
}

func (r *fakeClinicRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clinics[id]
	if !ok {
		return nil, apperrors.NotFound("clinic")
	}
	return c, nil
}

func (r *fakeClinicRepo) Update(_ context.Context, c *model.Clinic) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clinics[c.ID]; !ok {
		return apperrors.NotFound("clinic")
	}
	r.clinics[c.ID] = c
	return nil
}

func (r *fakeClinicRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clinics[id]; !ok {
		return apperrors.NotFound("clinic")
	}
	delete(r.clinics, id)
	return nil
}

func (r *fakeClinicRepo) List(_ context.Context) ([]*model.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Clinic
	for _, c := range r.clinics {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeClinicRepo) AddMember(_ context.Context, m *model.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[memberKey{m.UserID, m.ClinicID}] = m
	return nil
}

func (r *fakeClinicRepo) RemoveMember(_ context.Context, clinicID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, memberKey{userID, clinicID})
	return nil
}

func (r *fakeClinicRepo) ListMembers(_ context.Context, clinicID uuid.UUID) ([]*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Membership
	for _, m := range r.members {
		if m.ClinicID == clinicID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeClinicRepo) MembershipsForUser(_ context.Context, userID uuid.UUID) ([]*model.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Membership
	for _, m := range r.members {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (r *fakeDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor")
	}
	return d, nil
}

func (r *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.doctors, id)
	return nil
}

func (r *fakeDoctorRepo) List(_ context.Context, clinicID uuid.UUID) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, d := range r.doctors {
		if d.ClinicID == clinicID {
			out = append(out, d)
		}
	}
	return out, nil
}

func newService() (*Service, *fakeClinicRepo, *fakeDoctorRepo, *schedule.Index) {
	clinics := newFakeClinicRepo()
	doctors := &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
	index := schedule.NewIndex()
	return NewService(clinics, doctors, index), clinics, doctors, index
}

func TestClinicCRUD(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	created, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "Harbor Clinic"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := svc.GetClinic(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Clinic", got.Name)

	updated, err := svc.UpdateClinic(ctx, created.ID, &model.UpdateClinicRequest{Name: "Harbor Medical"})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Medical", updated.Name)

	_, err = svc.GetClinic(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteClinicEvictsDoctors(t *testing.T) {
	svc, _, doctors, index := newService()
	ctx := context.Background()

	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "Harbor Clinic"})
	require.NoError(t, err)

	doctorID := uuid.New()
	require.NoError(t, doctors.Create(ctx, &model.Doctor{
		Base:     model.Base{ID: doctorID},
		ClinicID: clinic.ID,
	}))

	_, err = index.Reserve(doctorID, schedule.NewInterval(time.Now(), 30*time.Minute))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteClinic(ctx, clinic.ID))
	assert.Empty(t, index.Reserved(doctorID))
}

func TestMemberships(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "Harbor Clinic"})
	require.NoError(t, err)

	userID := uuid.New()
	_, err = svc.AddMember(ctx, clinic.ID, &model.AddMemberRequest{
		UserID: userID,
		Role:   model.ClinicRoleStaff,
	})
	require.NoError(t, err)

	// Membership against an unknown clinic fails.
	_, err = svc.AddMember(ctx, uuid.New(), &model.AddMemberRequest{
		UserID: userID,
		Role:   model.ClinicRoleStaff,
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	members, err := svc.ListMembers(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	require.NoError(t, svc.RemoveMember(ctx, clinic.ID, userID))
	members, err = svc.ListMembers(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestResolveActor(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()

	staffClinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "A"})
	require.NoError(t, err)
	patientClinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "B"})
	require.NoError(t, err)

	userID := uuid.New()
	patientID := uuid.New()
	_, err = svc.AddMember(ctx, staffClinic.ID, &model.AddMemberRequest{UserID: userID, Role: model.ClinicRoleStaff})
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, patientClinic.ID, &model.AddMemberRequest{UserID: userID, Role: model.ClinicRolePatient})
	require.NoError(t, err)

	actor, err := svc.ResolveActor(ctx, userID, patientID)
	require.NoError(t, err)

	assert.True(t, actor.IsStaffOf(staffClinic.ID))
	assert.True(t, actor.IsMemberOf(patientClinic.ID))
	assert.False(t, actor.IsStaffOf(patientClinic.ID))
	assert.False(t, actor.IsMemberOf(uuid.New()))
	assert.True(t, actor.OwnsPatient(patientID))

	require.NoError(t, svc.RequireMember(ctx, userID, staffClinic.ID))
	err = svc.RequireMember(ctx, userID, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}
