package handler

import (
	"net/http"

	"clinic-api/internal/model"
	"clinic-api/internal/service"
)

type MedicalRecordHandler struct {
	service *service.MedicalRecordService
}

func NewMedicalRecordHandler(service *service.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{service: service}
}

func (h *MedicalRecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateMedicalRecordRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *MedicalRecordHandler) Sign(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathID(r, "recordId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.service.Sign(r.Context(), actorFromRequest(r), recordID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *MedicalRecordHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patientId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.service.ListByPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (h *MedicalRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathID(r, "recordId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	record, err := h.service.Get(r.Context(), recordID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
