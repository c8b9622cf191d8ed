package model

import "time"

type MedicalRecord struct {
	RecordID      int64      `json:"recordId"`
	VisitID       int64      `json:"visitId"`
	PatientID     int64      `json:"patientId"`
	RecordDate    time.Time  `json:"recordDate"`
	Subjective    *string    `json:"subjective"`
	Objective     *string    `json:"objective"`
	Assessment    *string    `json:"assessment"`
	Plan          *string    `json:"plan"`
	IsSigned      bool       `json:"isSigned"`
	SignedAt      *time.Time `json:"signedAt"`
	SignedBy      *int64     `json:"signedBy"`
	SignatureData *string    `json:"signatureData"`
	CreatedBy     int64      `json:"createdBy"`
	UpdatedBy     int64      `json:"updatedBy"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type MedicalRecordListItem struct {
	MedicalRecord
	VisitDate       string  `json:"visitDate"`
	DoctorLastName  *string `json:"doctorLastName"`
	DoctorFirstName *string `json:"doctorFirstName"`
}

type MedicalRecordDetail struct {
	MedicalRecordListItem
	Patient PatientRef `json:"patient"`
}

type CreateMedicalRecordRequest struct {
	VisitID    int64   `json:"visitId"`
	PatientID  int64   `json:"patientId"`
	Subjective *string `json:"subjective"`
	Objective  *string `json:"objective"`
	Assessment *string `json:"assessment"`
	Plan       *string `json:"plan"`
}
