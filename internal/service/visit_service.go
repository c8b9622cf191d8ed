package service

import (
	"context"
	"errors"
	"strings"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

type visitStore interface {
	Create(ctx context.Context, req model.CreateVisitRequest, createdBy int64) (model.Visit, error)
	ListByPatient(ctx context.Context, patientID int64, limit int) ([]model.VisitListItem, error)
	ListToday(ctx context.Context) ([]model.VisitDetail, error)
	FindByID(ctx context.Context, visitID int64) (model.VisitDetail, error)
}

type VisitService struct {
	store visitStore
}

func NewVisitService(store visitStore) *VisitService {
	return &VisitService{store: store}
}

func (s *VisitService) Create(ctx context.Context, actor model.AuditActor, req model.CreateVisitRequest) (model.Visit, error) {
	actorID, err := requireActorID(actor)
	if err != nil {
		return model.Visit{}, err
	}

	req.VisitDate = strings.TrimSpace(req.VisitDate)
	req.VisitTime = trimOptional(req.VisitTime)
	req.VisitType = trimOptional(req.VisitType)

	var fields fieldErrors
	if req.PatientID <= 0 {
		fields.add("patientId", "is required")
	}
	if _, ok := parseDate(req.VisitDate); !ok {
		fields.add("visitDate", "must be a date in YYYY-MM-DD format")
	}
	if req.VisitTime != nil && !validTimeOfDay(*req.VisitTime) {
		fields.add("visitTime", "must be a time in HH:MM or HH:MM:SS format")
	}
	fields.maxLen("visitType", req.VisitType, 20)
	if err := fields.err("invalid visit"); err != nil {
		return model.Visit{}, err
	}

	visit, err := s.store.Create(ctx, req, actorID)
	if err != nil {
		return model.Visit{}, apierror.Internal(err)
	}

	return visit, nil
}

func (s *VisitService) ListByPatient(ctx context.Context, patientID int64) ([]model.VisitListItem, error) {
	items, err := s.store.ListByPatient(ctx, patientID, patientHistoryLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.VisitListItem{}
	}
	return items, nil
}

func (s *VisitService) Today(ctx context.Context) ([]model.VisitDetail, error) {
	items, err := s.store.ListToday(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.VisitDetail{}
	}
	return items, nil
}

func (s *VisitService) Get(ctx context.Context, visitID int64) (model.VisitDetail, error) {
	visit, err := s.store.FindByID(ctx, visitID)
	if err != nil {
		if errors.Is(err, model.ErrVisitNotFound) {
			return model.VisitDetail{}, apierror.NotFound("visit not found")
		}
		return model.VisitDetail{}, err
	}
	return visit, nil
}
