package handler

import (
	"net/http"

	"clinic-api/internal/model"
	"clinic-api/internal/service"
)

type PrescriptionHandler struct {
	service *service.PrescriptionService
}

func NewPrescriptionHandler(service *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{service: service}
}

func (h *PrescriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreatePrescriptionRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.CreateOrder(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *PrescriptionHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patientId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	orders, err := h.service.ListByPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *PrescriptionHandler) SearchMedications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	medications, err := h.service.SearchMedications(r.Context(), query.Get("keyword"), parseIntOrDefault(query.Get("limit"), 0))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, medications)
}

func (h *PrescriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "orderId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.service.Get(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
