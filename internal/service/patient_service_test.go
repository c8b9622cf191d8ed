package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

type fakePatientStore struct {
	lastQuery  model.PatientSearchQuery
	created    []model.CreatePatientRequest
	createdBy  int64
	patients   map[int64]model.Patient
	updateSeen *model.UpdatePatientRequest
}

func (f *fakePatientStore) Search(_ context.Context, query model.PatientSearchQuery) ([]model.PatientSummary, int, error) {
	f.lastQuery = query
	return nil, 0, nil
}

func (f *fakePatientStore) FindByID(_ context.Context, patientID int64) (model.PatientDetail, error) {
	patient, ok := f.patients[patientID]
	if !ok {
		return model.PatientDetail{}, model.ErrPatientNotFound
	}
	return model.PatientDetail{Patient: patient}, nil
}

func (f *fakePatientStore) Create(_ context.Context, req model.CreatePatientRequest, createdBy int64) (model.Patient, error) {
	f.created = append(f.created, req)
	f.createdBy = createdBy
	return model.Patient{PatientID: 1, PatientNumber: "000001", LastName: req.LastName, FirstName: req.FirstName, BirthDate: req.BirthDate, Gender: req.Gender}, nil
}

func (f *fakePatientStore) Update(_ context.Context, patientID int64, req model.UpdatePatientRequest, _ int64) (model.Patient, error) {
	f.updateSeen = &req
	patient, ok := f.patients[patientID]
	if !ok {
		return model.Patient{}, model.ErrPatientNotFound
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	return patient, nil
}

func newPatientFixture() (*PatientService, *fakePatientStore, *fakeAuditLogger) {
	store := &fakePatientStore{patients: map[int64]model.Patient{5: {PatientID: 5, PatientNumber: "000005", LastName: "Sato", FirstName: "Hanako"}}}
	audit := &fakeAuditLogger{}
	svc := NewPatientService(store, audit)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, store, audit
}

func strPtr(v string) *string { return &v }

func TestPatientSearchNormalisesQuery(t *testing.T) {
	t.Parallel()

	svc, store, _ := newPatientFixture()

	result, err := svc.Search(context.Background(), model.PatientSearchQuery{PhoneNumber: " 090-1234-5678 ", Limit: 1000})
	require.NoError(t, err)
	require.NotNil(t, result.Patients)
	require.Equal(t, "09012345678", store.lastQuery.PhoneNumber)
	require.Equal(t, maxPatientSearchLimit, store.lastQuery.Limit)

	_, err = svc.Search(context.Background(), model.PatientSearchQuery{})
	require.NoError(t, err)
	require.Equal(t, defaultPatientSearchLimit, store.lastQuery.Limit)

	_, err = svc.Search(context.Background(), model.PatientSearchQuery{BirthDate: "1990/01/01"})
	requireAPIError(t, err, 400, apierror.CodeValidation)
}

func TestPatientCreate(t *testing.T) {
	t.Parallel()

	svc, store, audit := newPatientFixture()
	req := model.CreatePatientRequest{LastName: " Yamada ", FirstName: "Taro", BirthDate: "1980-05-17", Gender: "m", Email: strPtr(" ")}

	patient, err := svc.Create(context.Background(), doctorActor(), req)
	require.NoError(t, err)
	require.Equal(t, "000001", patient.PatientNumber)
	require.Equal(t, "Yamada", store.created[0].LastName)
	require.Equal(t, "M", store.created[0].Gender)
	require.Nil(t, store.created[0].Email)
	require.Equal(t, int64(7), store.createdBy)
	require.Equal(t, []string{model.AuditStatusSuccess}, audit.statuses())
}

func TestPatientCreateValidation(t *testing.T) {
	t.Parallel()

	svc, store, _ := newPatientFixture()

	cases := map[string]model.CreatePatientRequest{
		"missing names":   {BirthDate: "1980-05-17", Gender: "F"},
		"bad birth date":  {LastName: "A", FirstName: "B", BirthDate: "17/05/1980", Gender: "F"},
		"future birth":    {LastName: "A", FirstName: "B", BirthDate: "2030-01-01", Gender: "F"},
		"unknown gender":  {LastName: "A", FirstName: "B", BirthDate: "1980-05-17", Gender: "X"},
		"malformed email": {LastName: "A", FirstName: "B", BirthDate: "1980-05-17", Gender: "O", Email: strPtr("not-an-email")},
	}

	for name, req := range cases {
		_, err := svc.Create(context.Background(), doctorActor(), req)
		requireAPIError(t, err, 400, apierror.CodeValidation)
		require.Empty(t, store.created, name)
	}
}

func TestPatientUpdate(t *testing.T) {
	t.Parallel()

	svc, store, _ := newPatientFixture()

	patient, err := svc.Update(context.Background(), doctorActor(), 5, model.UpdatePatientRequest{LastName: strPtr("Suzuki")})
	require.NoError(t, err)
	require.Equal(t, "Suzuki", patient.LastName)
	require.Nil(t, store.updateSeen.FirstName)

	_, err = svc.Update(context.Background(), doctorActor(), 404, model.UpdatePatientRequest{})
	requireAPIError(t, err, 404, apierror.CodeNotFound)

	_, err = svc.Update(context.Background(), doctorActor(), 5, model.UpdatePatientRequest{FirstName: strPtr("  ")})
	requireAPIError(t, err, 400, apierror.CodeValidation)
}

func TestPatientGet(t *testing.T) {
	t.Parallel()

	svc, _, _ := newPatientFixture()

	detail, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, detail.Allergies)

	_, err = svc.Get(context.Background(), 6)
	requireAPIError(t, err, 404, apierror.CodeNotFound)
}
