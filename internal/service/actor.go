package service

import (
	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

func requireActorID(actor model.AuditActor) (int64, error) {
	if actor.UserID == nil || *actor.UserID <= 0 {
		return 0, apierror.Authentication(apierror.CodeMissingToken, "authentication required")
	}
	return *actor.UserID, nil
}

func clampLimit(limit int, fallback int, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
