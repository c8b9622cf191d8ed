package model

import "time"

const (
	AuditActionLogin         = "auth.login"
	AuditActionPatientCreate = "patient.create"
	AuditActionPatientUpdate = "patient.update"
	AuditActionRecordCreate  = "medical_record.create"
	AuditActionRecordSign    = "medical_record.sign"
	AuditActionOrderCreate   = "prescription.create"

	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
	AuditStatusLocked  = "locked"
)

type AuditActor struct {
	UserID   *int64 `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role,omitempty"`
	IP       string `json:"ip,omitempty"`
}

type AuditEntry struct {
	Action     string     `json:"action"`
	OccurredAt time.Time  `json:"occurredAt"`
	Actor      AuditActor `json:"actor"`
	Status     string     `json:"status"`
	Resource   string     `json:"resource,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type AuditQuery struct {
	Action  string
	ActorID *int64
	Status  string
	From    *time.Time
	To      *time.Time
	Page    int
	Limit   int
}

type AuditListData struct {
	Items []AuditEntry `json:"items"`
	Meta  Meta         `json:"meta"`
}
