package model

import "time"

const VisitStatusWaiting = "WAITING"

type Visit struct {
	VisitID           int64     `json:"visitId"`
	PatientID         int64     `json:"patientId"`
	VisitDate         string    `json:"visitDate"`
	VisitTime         *string   `json:"visitTime"`
	DepartmentID      *int64    `json:"departmentId"`
	AttendingDoctorID *int64    `json:"attendingDoctorId"`
	VisitType         *string   `json:"visitType"`
	VisitStatus       string    `json:"visitStatus"`
	CreatedBy         *int64    `json:"createdBy"`
	CreatedAt         time.Time `json:"createdAt"`
}

type VisitListItem struct {
	Visit
	DepartmentName  *string `json:"departmentName"`
	DoctorLastName  *string `json:"doctorLastName"`
	DoctorFirstName *string `json:"doctorFirstName"`
}

type VisitDetail struct {
	VisitListItem
	Patient PatientRef `json:"patient"`
}

type CreateVisitRequest struct {
	PatientID         int64   `json:"patientId"`
	VisitDate         string  `json:"visitDate"`
	VisitTime         *string `json:"visitTime"`
	DepartmentID      *int64  `json:"departmentId"`
	AttendingDoctorID *int64  `json:"attendingDoctorId"`
	VisitType         *string `json:"visitType"`
}
