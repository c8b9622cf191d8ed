package service

import (
	"context"
	"errors"
	"strconv"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

const signatureMarker = "DIGITAL_SIGNATURE"

type medicalRecordStore interface {
	Create(ctx context.Context, req model.CreateMedicalRecordRequest, authorID int64) (model.MedicalRecord, error)
	Sign(ctx context.Context, recordID int64, signerID int64, signature string) (model.MedicalRecord, error)
	ListByPatient(ctx context.Context, patientID int64, limit int) ([]model.MedicalRecordListItem, error)
	FindByID(ctx context.Context, recordID int64) (model.MedicalRecordDetail, error)
}

type MedicalRecordService struct {
	store medicalRecordStore
	audit auditLogger
}

func NewMedicalRecordService(store medicalRecordStore, audit auditLogger) *MedicalRecordService {
	return &MedicalRecordService{store: store, audit: audit}
}

func (s *MedicalRecordService) Create(ctx context.Context, actor model.AuditActor, req model.CreateMedicalRecordRequest) (model.MedicalRecord, error) {
	actorID, err := requireActorID(actor)
	if err != nil {
		return model.MedicalRecord{}, err
	}

	req.Subjective = cleanNote(req.Subjective)
	req.Objective = cleanNote(req.Objective)
	req.Assessment = cleanNote(req.Assessment)
	req.Plan = cleanNote(req.Plan)

	var fields fieldErrors
	if req.VisitID <= 0 {
		fields.add("visitId", "is required")
	}
	if req.PatientID <= 0 {
		fields.add("patientId", "is required")
	}
	if err := fields.err("invalid medical record"); err != nil {
		return model.MedicalRecord{}, err
	}

	record, err := s.store.Create(ctx, req, actorID)
	if err != nil {
		s.logAudit(ctx, model.AuditActionRecordCreate, actor, model.AuditStatusFailure, "visit:"+strconv.FormatInt(req.VisitID, 10), err)
		return model.MedicalRecord{}, apierror.Internal(err)
	}

	s.logAudit(ctx, model.AuditActionRecordCreate, actor, model.AuditStatusSuccess, recordResource(record.RecordID), nil)
	return record, nil
}

// Sign marks a record as signed by the caller. A record can be signed once;
// both a missing and an already-signed record surface as 404.
func (s *MedicalRecordService) Sign(ctx context.Context, actor model.AuditActor, recordID int64) (model.MedicalRecord, error) {
	actorID, err := requireActorID(actor)
	if err != nil {
		return model.MedicalRecord{}, err
	}

	record, err := s.store.Sign(ctx, recordID, actorID, signatureMarker)
	if err != nil {
		s.logAudit(ctx, model.AuditActionRecordSign, actor, model.AuditStatusFailure, recordResource(recordID), err)
		switch {
		case errors.Is(err, model.ErrRecordAlreadySigned):
			return model.MedicalRecord{}, apierror.Conflict("medical record not found or already signed")
		case errors.Is(err, model.ErrMedicalRecordNotFound):
			return model.MedicalRecord{}, apierror.NotFound("medical record not found or already signed")
		default:
			return model.MedicalRecord{}, err
		}
	}

	s.logAudit(ctx, model.AuditActionRecordSign, actor, model.AuditStatusSuccess, recordResource(recordID), nil)
	return record, nil
}

func (s *MedicalRecordService) ListByPatient(ctx context.Context, patientID int64) ([]model.MedicalRecordListItem, error) {
	items, err := s.store.ListByPatient(ctx, patientID, patientHistoryLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.MedicalRecordListItem{}
	}
	return items, nil
}

func (s *MedicalRecordService) Get(ctx context.Context, recordID int64) (model.MedicalRecordDetail, error) {
	record, err := s.store.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, model.ErrMedicalRecordNotFound) {
			return model.MedicalRecordDetail{}, apierror.NotFound("medical record not found")
		}
		return model.MedicalRecordDetail{}, err
	}
	return record, nil
}

func (s *MedicalRecordService) logAudit(ctx context.Context, action string, actor model.AuditActor, status string, resource string, err error) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, action, actor, status, resource, errorText(err))
}

func recordResource(recordID int64) string {
	return "medical_record:" + strconv.FormatInt(recordID, 10)
}
