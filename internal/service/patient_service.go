package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"clinic-api/internal/model"
	"clinic-api/internal/util"
	"clinic-api/pkg/apierror"
)

const (
	defaultPatientSearchLimit = 50
	maxPatientSearchLimit     = 200
)

type patientStore interface {
	Search(ctx context.Context, query model.PatientSearchQuery) ([]model.PatientSummary, int, error)
	FindByID(ctx context.Context, patientID int64) (model.PatientDetail, error)
	Create(ctx context.Context, req model.CreatePatientRequest, createdBy int64) (model.Patient, error)
	Update(ctx context.Context, patientID int64, req model.UpdatePatientRequest, updatedBy int64) (model.Patient, error)
}

type PatientService struct {
	store patientStore
	audit auditLogger
	now   func() time.Time
}

func NewPatientService(store patientStore, audit auditLogger) *PatientService {
	return &PatientService{store: store, audit: audit, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PatientService) Search(ctx context.Context, query model.PatientSearchQuery) (model.PatientSearchResult, error) {
	query.PatientNumber = strings.TrimSpace(query.PatientNumber)
	query.LastNameKana = strings.TrimSpace(query.LastNameKana)
	query.FirstNameKana = strings.TrimSpace(query.FirstNameKana)
	query.BirthDate = strings.TrimSpace(query.BirthDate)
	query.PhoneNumber = strings.ReplaceAll(strings.TrimSpace(query.PhoneNumber), "-", "")
	query.Limit = clampLimit(query.Limit, defaultPatientSearchLimit, maxPatientSearchLimit)

	var fields fieldErrors
	if query.BirthDate != "" {
		if _, ok := parseDate(query.BirthDate); !ok {
			fields.add("birthDate", "must be a date in YYYY-MM-DD format")
		}
	}
	if query.Offset < 0 {
		fields.add("offset", "must not be negative")
	}
	if err := fields.err("invalid search query"); err != nil {
		return model.PatientSearchResult{}, err
	}

	patients, total, err := s.store.Search(ctx, query)
	if err != nil {
		return model.PatientSearchResult{}, err
	}
	if patients == nil {
		patients = []model.PatientSummary{}
	}

	return model.PatientSearchResult{Patients: patients, Total: total}, nil
}

func (s *PatientService) Get(ctx context.Context, patientID int64) (model.PatientDetail, error) {
	detail, err := s.store.FindByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, model.ErrPatientNotFound) {
			return model.PatientDetail{}, apierror.NotFound("patient not found")
		}
		return model.PatientDetail{}, err
	}
	if detail.Allergies == nil {
		detail.Allergies = []model.PatientAllergy{}
	}
	return detail, nil
}

func (s *PatientService) Create(ctx context.Context, actor model.AuditActor, req model.CreatePatientRequest) (model.Patient, error) {
	actorID, err := requireActorID(actor)
	if err != nil {
		return model.Patient{}, err
	}

	req.LastName = util.CleanLine(req.LastName)
	req.FirstName = util.CleanLine(req.FirstName)
	req.BirthDate = strings.TrimSpace(req.BirthDate)
	req.Gender = strings.ToUpper(strings.TrimSpace(req.Gender))
	req.LastNameKana = trimOptional(req.LastNameKana)
	req.FirstNameKana = trimOptional(req.FirstNameKana)
	req.Email = trimOptional(req.Email)
	req.PostalCode = trimOptional(req.PostalCode)
	req.Address = trimOptional(req.Address)
	req.PhoneNumber = trimOptional(req.PhoneNumber)
	req.MobileNumber = trimOptional(req.MobileNumber)
	req.EmergencyContactName = trimOptional(req.EmergencyContactName)
	req.EmergencyContactPhone = trimOptional(req.EmergencyContactPhone)

	var fields fieldErrors
	fields.required("lastName", req.LastName)
	fields.required("firstName", req.FirstName)
	if birth, ok := parseDate(req.BirthDate); !ok {
		fields.add("birthDate", "must be a date in YYYY-MM-DD format")
	} else if birth.After(s.now()) {
		fields.add("birthDate", "must not be in the future")
	}
	switch req.Gender {
	case "M", "F", "O":
	default:
		fields.add("gender", "must be one of M, F, O")
	}
	if req.Email != nil && !validEmail(*req.Email) {
		fields.add("email", "must be a valid email address")
	}
	fields.maxLen("lastNameKana", req.LastNameKana, 100)
	fields.maxLen("firstNameKana", req.FirstNameKana, 100)
	if err := fields.err("invalid patient"); err != nil {
		return model.Patient{}, err
	}

	patient, err := s.store.Create(ctx, req, actorID)
	if err != nil {
		s.logAudit(ctx, model.AuditActionPatientCreate, actor, model.AuditStatusFailure, "patient", err)
		return model.Patient{}, err
	}

	s.logAudit(ctx, model.AuditActionPatientCreate, actor, model.AuditStatusSuccess, patientResource(patient.PatientID), nil)
	return patient, nil
}

// Update applies a partial update; omitted fields keep their stored values.
func (s *PatientService) Update(ctx context.Context, actor model.AuditActor, patientID int64, req model.UpdatePatientRequest) (model.Patient, error) {
	actorID, err := requireActorID(actor)
	if err != nil {
		return model.Patient{}, err
	}

	for _, field := range []**string{
		&req.LastName, &req.FirstName, &req.LastNameKana, &req.FirstNameKana,
		&req.PostalCode, &req.Address, &req.PhoneNumber, &req.MobileNumber,
		&req.Email, &req.EmergencyContactName, &req.EmergencyContactPhone,
	} {
		*field = cleanPatch(*field)
	}

	var fields fieldErrors
	if req.LastName != nil {
		fields.required("lastName", *req.LastName)
	}
	if req.FirstName != nil {
		fields.required("firstName", *req.FirstName)
	}
	if req.Email != nil && *req.Email != "" && !validEmail(*req.Email) {
		fields.add("email", "must be a valid email address")
	}
	fields.maxLen("lastNameKana", req.LastNameKana, 100)
	fields.maxLen("firstNameKana", req.FirstNameKana, 100)
	if err := fields.err("invalid patient update"); err != nil {
		return model.Patient{}, err
	}

	patient, err := s.store.Update(ctx, patientID, req, actorID)
	if err != nil {
		s.logAudit(ctx, model.AuditActionPatientUpdate, actor, model.AuditStatusFailure, patientResource(patientID), err)
		if errors.Is(err, model.ErrPatientNotFound) {
			return model.Patient{}, apierror.NotFound("patient not found")
		}
		return model.Patient{}, err
	}

	s.logAudit(ctx, model.AuditActionPatientUpdate, actor, model.AuditStatusSuccess, patientResource(patientID), nil)
	return patient, nil
}

func (s *PatientService) logAudit(ctx context.Context, action string, actor model.AuditActor, status string, resource string, err error) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, action, actor, status, resource, errorText(err))
}

func patientResource(patientID int64) string {
	return "patient:" + strconv.FormatInt(patientID, 10)
}
