package handler

import (
	"net/http"
	"strconv"
	"strings"

	"clinic-api/internal/model"
	"clinic-api/internal/service"
	"clinic-api/pkg/apierror"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	auditQuery := model.AuditQuery{
		Action: strings.TrimSpace(query.Get("action")),
		Status: strings.TrimSpace(query.Get("status")),
		Page:   parseIntOrDefault(query.Get("page"), 1),
		Limit:  parseIntOrDefault(query.Get("limit"), 50),
	}

	var fields []apierror.FieldError
	if raw := strings.TrimSpace(query.Get("actorId")); raw != "" {
		actorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || actorID <= 0 {
			fields = append(fields, apierror.FieldError{Field: "actorId", Message: "must be a positive integer"})
		} else {
			auditQuery.ActorID = &actorID
		}
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		from, err := service.ParseAuditTime(raw)
		if err != nil {
			fields = append(fields, apierror.FieldError{Field: "from", Message: "must be an RFC 3339 timestamp"})
		} else {
			auditQuery.From = &from
		}
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		to, err := service.ParseAuditTime(raw)
		if err != nil {
			fields = append(fields, apierror.FieldError{Field: "to", Message: "must be an RFC 3339 timestamp"})
		} else {
			auditQuery.To = &to
		}
	}
	if len(fields) > 0 {
		writeError(w, r, apierror.Validation("invalid audit query", fields...))
		return
	}

	result, err := h.service.Query(r.Context(), auditQuery)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
