package doctor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docagenda/scheduling-api/internal/model"
	"github.com/docagenda/scheduling-api/internal/schedule"
	apperrors "github.com/docagenda/scheduling-api/pkg/errors"
)

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
	cp := *d
	return &cp, nil
}

func (r *fakeDoctorRepo) Update(_ context.Context, d *model.Doctor) error {
	if _, ok := r.doctors[d.ID]; !ok {
		return apperrors.NotFound("doctor")
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.doctors[id]; !ok {
		return apperrors.NotFound("doctor")
	}
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

type fakeClinicRepo struct {
	clinics map[uuid.UUID]*model.Clinic
}

func (r *fakeClinicRepo) Create(_ context.Context, c *model.Clinic) error {
	r.clinics[c.ID] = c
	return nil
}

func (r *fakeClinicRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinic, error) {
	c, ok := r.clinics[id]
	if !ok {
		return nil, apperrors.NotFound("clinic")
	}
	return c, nil
}

func (r *fakeClinicRepo) Update(context.Context, *model.Clinic) error { return nil }
func (r *fakeClinicRepo) Delete(context.Context, uuid.UUID) error     { return nil }
func (r *fakeClinicRepo) List(context.Context) ([]*model.Clinic, error) {
	return nil, nil
}
func (r *fakeClinicRepo) AddMember(context.Context, *model.Membership) error { return nil }
func (r *fakeClinicRepo) RemoveMember(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}
func (r *fakeClinicRepo) ListMembers(context.Context, uuid.UUID) ([]*model.Membership, error) {
	return nil, nil
}
func (r *fakeClinicRepo) MembershipsForUser(context.Context, uuid.UUID) ([]*model.Membership, error) {
	return nil, nil
}

// spyInvalidator records which doctors were dropped from the booking cache.
type spyInvalidator struct {
	invalidated []uuid.UUID
}

func (s *spyInvalidator) InvalidateDoctor(id uuid.UUID) {
	s.invalidated = append(s.invalidated, id)
}

func newService(t *testing.T) (*Service, uuid.UUID, *schedule.Index) {
	t.Helper()
	svc, clinicID, index, _ := newServiceWithSpy(t)
	return svc, clinicID, index
}

func newServiceWithSpy(t *testing.T) (*Service, uuid.UUID, *schedule.Index, *spyInvalidator) {
	t.Helper()
	doctors := &fakeDoctorRepo{doctors: make(map[uuid.UUID]*model.Doctor)}
	clinics := &fakeClinicRepo{clinics: make(map[uuid.UUID]*model.Clinic)}
	index := schedule.NewIndex()
	spy := &spyInvalidator{}

	clinicID := uuid.New()
	require.NoError(t, clinics.Create(context.Background(), &model.Clinic{
		Base: model.Base{ID: clinicID},
		Name: "Harbor Clinic",
	}))

	return NewService(doctors, clinics, index, spy), clinicID, index, spy
}

func createRequest(t *testing.T, clinicID uuid.UUID) *model.CreateDoctorRequest {
	t.Helper()
	from, err := model.ParseTimeOfDay("08:00")
	require.NoError(t, err)
	to, err := model.ParseTimeOfDay("17:00")
	require.NoError(t, err)
	return &model.CreateDoctorRequest{
		ClinicID:                clinicID,
		Name:                    "Dr. Alvarez",
		Specialty:               "Cardiology",
		AppointmentPriceInCents: 15000,
		FromWeekDay:             int(time.Monday),
		ToWeekDay:               int(time.Friday),
		FromTime:                from,
		ToTime:                  to,
	}
}

func TestCreateDoctor(t *testing.T) {
	svc, clinicID, _ := newService(t)
	ctx := context.Background()

	doctor, err := svc.CreateDoctor(ctx, createRequest(t, clinicID))
	require.NoError(t, err)
	assert.Equal(t, clinicID, doctor.ClinicID)
	assert.Equal(t, time.Monday, doctor.FromWeekDay)

	got, err := svc.GetDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Alvarez", got.Name)
}

func TestCreateDoctorValidation(t *testing.T) {
	svc, clinicID, _ := newService(t)
	ctx := context.Background()

	// Unknown clinic.
	req := createRequest(t, uuid.New())
	_, err := svc.CreateDoctor(ctx, req)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Inverted time window.
	req = createRequest(t, clinicID)
	req.FromTime, req.ToTime = req.ToTime, req.FromTime
	_, err = svc.CreateDoctor(ctx, req)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAvailability))

	// Weekday out of range.
	req = createRequest(t, clinicID)
	req.ToWeekDay = 9
	_, err = svc.CreateDoctor(ctx, req)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAvailability))

	// Negative price.
	req = createRequest(t, clinicID)
	req.AppointmentPriceInCents = -1
	_, err = svc.CreateDoctor(ctx, req)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCreateDoctorWrappingWeekWindow(t *testing.T) {
	svc, clinicID, _ := newService(t)

	// Friday through Monday is a legal wrapping window.
	req := createRequest(t, clinicID)
	req.FromWeekDay = int(time.Friday)
	req.ToWeekDay = int(time.Monday)

	doctor, err := svc.CreateDoctor(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, time.Friday, doctor.FromWeekDay)
	assert.Equal(t, time.Monday, doctor.ToWeekDay)
}

func TestUpdateDoctor(t *testing.T) {
	svc, clinicID, _ := newService(t)
	ctx := context.Background()

	doctor, err := svc.CreateDoctor(ctx, createRequest(t, clinicID))
	require.NoError(t, err)

	name := "Dr. Iris Alvarez"
	price := 20000
	updated, err := svc.UpdateDoctor(ctx, doctor.ID, &model.UpdateDoctorRequest{
		Name:                    &name,
		AppointmentPriceInCents: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, price, updated.AppointmentPriceInCents)
	// Untouched fields survive the partial update.
	assert.Equal(t, "Cardiology", updated.Specialty)

	// An update producing an invalid window is rejected and not persisted.
	badFrom, err := model.ParseTimeOfDay("18:00")
	require.NoError(t, err)
	_, err = svc.UpdateDoctor(ctx, doctor.ID, &model.UpdateDoctorRequest{FromTime: &badFrom})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAvailability))

	got, err := svc.GetDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.NotEqual(t, badFrom, got.FromTime)
}

func TestDeleteDoctorEvictsIndex(t *testing.T) {
	svc, clinicID, index := newService(t)
	ctx := context.Background()

	doctor, err := svc.CreateDoctor(ctx, createRequest(t, clinicID))
	require.NoError(t, err)

	_, err = index.Reserve(doctor.ID, schedule.NewInterval(time.Now(), 30*time.Minute))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDoctor(ctx, doctor.ID))
	assert.Empty(t, index.Reserved(doctor.ID))

	_, err = svc.GetDoctor(ctx, doctor.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateAndDeleteDoctorInvalidateBookingCache(t *testing.T) {
	svc, clinicID, _, spy := newServiceWithSpy(t)

	doctor, err := svc.CreateDoctor(context.Background(), createRequest(t, clinicID))
	require.NoError(t, err)
	assert.Empty(t, spy.invalidated)

	name := "Dr. Rivera"
	_, err = svc.UpdateDoctor(context.Background(), doctor.ID, &model.UpdateDoctorRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{doctor.ID}, spy.invalidated)

	require.NoError(t, svc.DeleteDoctor(context.Background(), doctor.ID))
	assert.Equal(t, []uuid.UUID{doctor.ID, doctor.ID}, spy.invalidated)
}
