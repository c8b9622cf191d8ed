package middleware

import (
	"encoding/json"
	"net/http"

	"clinic-api/internal/model"
)

func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorEnvelope{
		Error: model.ErrorBody{
			Message: message,
			Status:  status,
			Code:    code,
		},
	})
}
