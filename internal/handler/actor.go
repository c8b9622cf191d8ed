package handler

import (
	"net/http"

	"clinic-api/internal/middleware"
	"clinic-api/internal/model"
)

func actorFromRequest(r *http.Request) model.AuditActor {
	actor := model.AuditActor{IP: middleware.ClientIP(r)}

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return actor
	}

	userID := claims.UserID
	actor.UserID = &userID
	actor.Username = claims.Username
	actor.Role = claims.Role

	return actor
}
