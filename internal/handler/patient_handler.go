package handler

import (
	"net/http"

	"clinic-api/internal/model"
	"clinic-api/internal/service"
)

type PatientHandler struct {
	service *service.PatientService
}

func NewPatientHandler(service *service.PatientService) *PatientHandler {
	return &PatientHandler{service: service}
}

func (h *PatientHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	result, err := h.service.Search(r.Context(), model.PatientSearchQuery{
		PatientNumber: query.Get("patientNumber"),
		LastNameKana:  query.Get("lastNameKana"),
		FirstNameKana: query.Get("firstNameKana"),
		BirthDate:     query.Get("birthDate"),
		PhoneNumber:   query.Get("phoneNumber"),
		Limit:         parseIntOrDefault(query.Get("limit"), 0),
		Offset:        parseIntOrDefault(query.Get("offset"), 0),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patientId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.service.Get(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreatePatientRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	patient, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, patient)
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patientId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload model.UpdatePatientRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	patient, err := h.service.Update(r.Context(), actorFromRequest(r), patientID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, patient)
}
