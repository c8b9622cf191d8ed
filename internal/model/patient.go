package model

import "time"

type Patient struct {
	PatientID             int64     `json:"patientId"`
	PatientNumber         string    `json:"patientNumber"`
	LastName              string    `json:"lastName"`
	FirstName             string    `json:"firstName"`
	LastNameKana          *string   `json:"lastNameKana"`
	FirstNameKana         *string   `json:"firstNameKana"`
	BirthDate             string    `json:"birthDate"`
	Age                   *int      `json:"age"`
	Gender                string    `json:"gender"`
	PostalCode            *string   `json:"postalCode"`
	Address               *string   `json:"address"`
	PhoneNumber           *string   `json:"phoneNumber"`
	MobileNumber          *string   `json:"mobileNumber"`
	Email                 *string   `json:"email"`
	EmergencyContactName  *string   `json:"emergencyContactName"`
	EmergencyContactPhone *string   `json:"emergencyContactPhone"`
	CreatedBy             *int64    `json:"createdBy"`
	UpdatedBy             *int64    `json:"updatedBy"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// PatientSummary is the projection returned by search.
type PatientSummary struct {
	PatientID     int64   `json:"patientId"`
	PatientNumber string  `json:"patientNumber"`
	LastName      string  `json:"lastName"`
	FirstName     string  `json:"firstName"`
	LastNameKana  *string `json:"lastNameKana"`
	FirstNameKana *string `json:"firstNameKana"`
	BirthDate     string  `json:"birthDate"`
	Age           *int    `json:"age"`
	Gender        string  `json:"gender"`
	PhoneNumber   *string `json:"phoneNumber"`
	MobileNumber  *string `json:"mobileNumber"`
	Email         *string `json:"email"`
}

type PatientInsurance struct {
	InsuranceType   *string  `json:"insuranceType"`
	InsuranceNumber *string  `json:"insuranceNumber"`
	InsurerName     *string  `json:"insurerName"`
	CoverageRatio   *float64 `json:"coverageRatio"`
}

type PatientAllergy struct {
	AllergyID int64     `json:"allergyId"`
	PatientID int64     `json:"patientId"`
	Allergen  string    `json:"allergen"`
	Reaction  *string   `json:"reaction"`
	Severity  *string   `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}

type PatientDetail struct {
	Patient
	Insurance *PatientInsurance `json:"insurance"`
	Allergies []PatientAllergy  `json:"allergies"`
}

// PatientRef is the patient summary embedded in visit, record and order views.
type PatientRef struct {
	PatientNumber string  `json:"patientNumber"`
	LastName      string  `json:"lastName"`
	FirstName     string  `json:"firstName"`
	LastNameKana  *string `json:"lastNameKana,omitempty"`
	FirstNameKana *string `json:"firstNameKana,omitempty"`
	BirthDate     *string `json:"birthDate,omitempty"`
	Gender        *string `json:"gender,omitempty"`
}

type PatientSearchQuery struct {
	PatientNumber string
	LastNameKana  string
	FirstNameKana string
	BirthDate     string
	PhoneNumber   string
	Limit         int
	Offset        int
}

type PatientSearchResult struct {
	Patients []PatientSummary `json:"patients"`
	Total    int              `json:"total"`
}

type CreatePatientRequest struct {
	LastName              string  `json:"lastName"`
	FirstName             string  `json:"firstName"`
	LastNameKana          *string `json:"lastNameKana"`
	FirstNameKana         *string `json:"firstNameKana"`
	BirthDate             string  `json:"birthDate"`
	Gender                string  `json:"gender"`
	PostalCode            *string `json:"postalCode"`
	Address               *string `json:"address"`
	PhoneNumber           *string `json:"phoneNumber"`
	MobileNumber          *string `json:"mobileNumber"`
	Email                 *string `json:"email"`
	EmergencyContactName  *string `json:"emergencyContactName"`
	EmergencyContactPhone *string `json:"emergencyContactPhone"`
}

// UpdatePatientRequest is a partial update; nil fields keep their stored value.
type UpdatePatientRequest struct {
	LastName              *string `json:"lastName"`
	FirstName             *string `json:"firstName"`
	LastNameKana          *string `json:"lastNameKana"`
	FirstNameKana         *string `json:"firstNameKana"`
	PostalCode            *string `json:"postalCode"`
	Address               *string `json:"address"`
	PhoneNumber           *string `json:"phoneNumber"`
	MobileNumber          *string `json:"mobileNumber"`
	Email                 *string `json:"email"`
	EmergencyContactName  *string `json:"emergencyContactName"`
	EmergencyContactPhone *string `json:"emergencyContactPhone"`
}
