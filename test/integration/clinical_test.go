//go:build integration

package integration

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-api/internal/model"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestPatientLifecycle(t *testing.T) {
	env := newTestEnv(t)
	nurse := env.seedUser(t, model.RoleNurse)
	token := env.login(t, nurse.Username)

	patient := env.createPatient(t, token)
	assert.Len(t, patient.PatientNumber, 6)
	require.NotNil(t, patient.Age)

	found := decode[model.PatientSearchResult](t, env.do(t, http.MethodGet,
		"/api/patients/search?patientNumber="+patient.PatientNumber, token, nil), http.StatusOK)
	require.Equal(t, 1, found.Total)
	assert.Equal(t, patient.PatientID, found.Patients[0].PatientID)

	byPhone := decode[model.PatientSearchResult](t, env.do(t, http.MethodGet,
		"/api/patients/search?phoneNumber=0312345678&limit=200", token, nil), http.StatusOK)
	assert.GreaterOrEqual(t, byPhone.Total, 1)

	address := "1-2-3 Chiyoda"
	updated := decode[model.Patient](t, env.do(t, http.MethodPut, "/api/patients/"+itoa(patient.PatientID), token,
		model.UpdatePatientRequest{Address: &address}), http.StatusOK)
	require.NotNil(t, updated.Address)
	assert.Equal(t, address, *updated.Address)
	assert.Equal(t, "Tanaka", updated.LastName)

	detail := decode[model.PatientDetail](t, env.do(t, http.MethodGet, "/api/patients/"+itoa(patient.PatientID), token, nil), http.StatusOK)
	assert.Nil(t, detail.Insurance)
	assert.Empty(t, detail.Allergies)

	missing := decode[model.ErrorEnvelope](t, env.do(t, http.MethodGet, "/api/patients/999999999", token, nil), http.StatusNotFound)
	assert.Equal(t, "NOT_FOUND", missing.Error.Code)
}

func TestVisitsAndRecordSigning(t *testing.T) {
	env := newTestEnv(t)
	doctor := env.seedUser(t, model.RoleDoctor)
	token := env.login(t, doctor.Username)

	patient := env.createPatient(t, token)
	visit := env.createVisit(t, token, patient.PatientID)
	assert.Equal(t, model.VisitStatusWaiting, visit.VisitStatus)

	today := decode[[]model.VisitDetail](t, env.do(t, http.MethodGet, "/api/visits/today/list", token, nil), http.StatusOK)
	assert.NotEmpty(t, today)

	subjective := "headache for two days"
	record := decode[model.MedicalRecord](t, env.do(t, http.MethodPost, "/api/medical-records", token,
		model.CreateMedicalRecordRequest{VisitID: visit.VisitID, PatientID: patient.PatientID, Subjective: &subjective}), http.StatusCreated)
	assert.False(t, record.IsSigned)

	signPath := "/api/medical-records/" + itoa(record.RecordID) + "/sign"
	signed := decode[model.MedicalRecord](t, env.do(t, http.MethodPost, signPath, token, nil), http.StatusOK)
	assert.True(t, signed.IsSigned)
	require.NotNil(t, signed.SignedBy)
	assert.Equal(t, doctor.ID, *signed.SignedBy)

	again := decode[model.ErrorEnvelope](t, env.do(t, http.MethodPost, signPath, token, nil), http.StatusNotFound)
	assert.Equal(t, "CONFLICT", again.Error.Code)

	records := decode[[]model.MedicalRecordListItem](t, env.do(t, http.MethodGet,
		"/api/medical-records/patient/"+itoa(patient.PatientID), token, nil), http.StatusOK)
	require.Len(t, records, 1)
}

func TestPrescriptionOrderIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	doctor := env.seedUser(t, model.RoleDoctor)
	token := env.login(t, doctor.Username)

	patient := env.createPatient(t, token)
	visit := env.createVisit(t, token, patient.PatientID)

	meds := decode[[]model.Medication](t, env.do(t, http.MethodGet,
		"/api/prescriptions/medications/search?keyword=tab&limit=5", token, nil), http.StatusOK)
	require.GreaterOrEqual(t, len(meds), 2)

	days := 7
	qty := 21.0
	item := func(medicationID int64) model.PrescriptionItemRequest {
		return model.PrescriptionItemRequest{MedicationID: medicationID, Dosage: "1", Frequency: "3x daily", DurationDays: &days, Quantity: &qty}
	}

	created := decode[model.PrescriptionOrderResult](t, env.do(t, http.MethodPost, "/api/prescriptions", token,
		model.CreatePrescriptionRequest{
			VisitID:     visit.VisitID,
			PatientID:   patient.PatientID,
			Medications: []model.PrescriptionItemRequest{item(meds[0].MedicationID), item(meds[1].MedicationID)},
		}), http.StatusCreated)
	assert.Equal(t, "OUTPATIENT", created.Order.PrescriptionType)
	require.Len(t, created.Details, 2)

	// The second of four line items references a missing medication.
	rejected := decode[model.ErrorEnvelope](t, env.do(t, http.MethodPost, "/api/prescriptions", token,
		model.CreatePrescriptionRequest{
			VisitID:   visit.VisitID,
			PatientID: patient.PatientID,
			Medications: []model.PrescriptionItemRequest{
				item(meds[0].MedicationID), item(999999999), item(meds[1].MedicationID), item(meds[0].MedicationID),
			},
		}), http.StatusInternalServerError)
	assert.Equal(t, "INTERNAL_ERROR", rejected.Error.Code)
	assert.Equal(t, "internal server error", rejected.Error.Message)

	orders := decode[[]model.PrescriptionListItem](t, env.do(t, http.MethodGet,
		"/api/prescriptions/patient/"+itoa(patient.PatientID), token, nil), http.StatusOK)
	require.Len(t, orders, 1)

	detail := decode[model.PrescriptionOrderDetail](t, env.do(t, http.MethodGet,
		"/api/prescriptions/"+itoa(created.Order.OrderID), token, nil), http.StatusOK)
	assert.Len(t, detail.Details, 2)
	assert.Equal(t, patient.PatientNumber, detail.Order.Patient.PatientNumber)
}
