package model

import "time"

type PrescriptionOrder struct {
	OrderID          int64     `json:"orderId"`
	VisitID          int64     `json:"visitId"`
	PatientID        int64     `json:"patientId"`
	PrescriptionType string    `json:"prescriptionType"`
	Notes            *string   `json:"notes"`
	OrderDate        time.Time `json:"orderDate"`
	CreatedBy        int64     `json:"createdBy"`
	UpdatedBy        int64     `json:"updatedBy"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PrescriptionDetail is one line item of an order.
type PrescriptionDetail struct {
	DetailID     int64    `json:"detailId"`
	OrderID      int64    `json:"orderId"`
	MedicationID int64    `json:"medicationId"`
	Dosage       string   `json:"dosage"`
	DosageUnit   *string  `json:"dosageUnit"`
	Frequency    string   `json:"frequency"`
	DurationDays *int     `json:"durationDays"`
	Quantity     *float64 `json:"quantity"`
	Instructions *string  `json:"instructions"`
}

// PrescriptionDetailView is a line item joined with its catalog medication.
type PrescriptionDetailView struct {
	PrescriptionDetail
	MedicationName string  `json:"medicationName"`
	GenericName    *string `json:"genericName"`
	DosageForm     *string `json:"dosageForm"`
	Strength       *string `json:"strength"`
	Unit           *string `json:"unit"`
}

type PrescriptionOrderView struct {
	PrescriptionOrder
	VisitDate string     `json:"visitDate"`
	Patient   PatientRef `json:"patient"`
}

type PrescriptionOrderResult struct {
	Order   PrescriptionOrder        `json:"order"`
	Details []PrescriptionDetailView `json:"details"`
}

type PrescriptionOrderDetail struct {
	Order   PrescriptionOrderView    `json:"order"`
	Details []PrescriptionDetailView `json:"details"`
}

type PrescriptionListItem struct {
	PrescriptionOrder
	VisitDate       string  `json:"visitDate"`
	DoctorLastName  *string `json:"doctorLastName"`
	DoctorFirstName *string `json:"doctorFirstName"`
}

type Medication struct {
	MedicationID   int64   `json:"medicationId"`
	MedicationName string  `json:"medicationName"`
	GenericName    *string `json:"genericName"`
	DosageForm     *string `json:"dosageForm"`
	Strength       *string `json:"strength"`
	Unit           *string `json:"unit"`
}

type CreatePrescriptionRequest struct {
	VisitID          int64                     `json:"visitId"`
	PatientID        int64                     `json:"patientId"`
	PrescriptionType string                    `json:"prescriptionType"`
	Notes            *string                   `json:"notes"`
	Medications      []PrescriptionItemRequest `json:"medications"`
}

type PrescriptionItemRequest struct {
	MedicationID int64    `json:"medicationId"`
	Dosage       string   `json:"dosage"`
	DosageUnit   *string  `json:"dosageUnit"`
	Frequency    string   `json:"frequency"`
	DurationDays *int     `json:"durationDays"`
	Quantity     *float64 `json:"quantity"`
	Instructions *string  `json:"instructions"`
}

// NewPrescriptionOrder is the parent row written by the order writer.
type NewPrescriptionOrder struct {
	VisitID          int64
	PatientID        int64
	PrescriptionType string
	Notes            *string
	CreatedBy        int64
}
