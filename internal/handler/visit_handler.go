package handler

import (
	"net/http"

	"clinic-api/internal/model"
	"clinic-api/internal/service"
)

type VisitHandler struct {
	service *service.VisitService
}

func NewVisitHandler(service *service.VisitService) *VisitHandler {
	return &VisitHandler{service: service}
}

func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateVisitRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}

	visit, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, visit)
}

func (h *VisitHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	patientID, err := pathID(r, "patientId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	visits, err := h.service.ListByPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) Today(w http.ResponseWriter, r *http.Request) {
	visits, err := h.service.Today(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, visits)
}

func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	visitID, err := pathID(r, "visitId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	visit, err := h.service.Get(r.Context(), visitID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, visit)
}
