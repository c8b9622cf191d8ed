package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clinic-api/internal/model"
	"clinic-api/internal/util"
	"clinic-api/pkg/apierror"
)

const (
	defaultPrescriptionType = "OUTPATIENT"
	patientHistoryLimit     = 50
	defaultMedicationLimit  = 20
	maxMedicationLimit      = 100
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type prescriptionStore interface {
	InsertOrder(ctx context.Context, order model.NewPrescriptionOrder) (model.PrescriptionOrder, error)
	InsertDetail(ctx context.Context, orderID int64, item model.PrescriptionItemRequest) (model.PrescriptionDetail, error)
	ListDetails(ctx context.Context, orderID int64) ([]model.PrescriptionDetailView, error)
	FindOrder(ctx context.Context, orderID int64) (model.PrescriptionOrderView, error)
	ListByPatient(ctx context.Context, patientID int64, limit int) ([]model.PrescriptionListItem, error)
	SearchMedications(ctx context.Context, keyword string, limit int) ([]model.Medication, error)
}

type PrescriptionService struct {
	tx    txRunner
	store prescriptionStore
	audit auditLogger
}

func NewPrescriptionService(tx txRunner, store prescriptionStore, audit auditLogger) *PrescriptionService {
	return &PrescriptionService{tx: tx, store: store, audit: audit}
}

// CreateOrder writes the order and every line item in one transaction. If any
// insert fails nothing is persisted and no partial order is observable.
func (s *PrescriptionService) CreateOrder(ctx context.Context, actor model.AuditActor, req model.CreatePrescriptionRequest) (model.PrescriptionOrderResult, error) {
	actorID, err := requireActorID(actor)
	if err != nil {
		return model.PrescriptionOrderResult{}, err
	}

	req.PrescriptionType = strings.ToUpper(strings.TrimSpace(req.PrescriptionType))
	if req.PrescriptionType == "" {
		req.PrescriptionType = defaultPrescriptionType
	}
	req.Notes = cleanNote(req.Notes)
	req.Medications = append([]model.PrescriptionItemRequest(nil), req.Medications...)
	for i := range req.Medications {
		item := &req.Medications[i]
		item.Dosage = util.CleanLine(item.Dosage)
		item.Frequency = util.CleanLine(item.Frequency)
		item.DosageUnit = trimOptional(item.DosageUnit)
		item.Instructions = cleanNote(item.Instructions)
	}

	if fields := validatePrescription(req); len(fields) > 0 {
		return model.PrescriptionOrderResult{}, apierror.Validation("invalid prescription order", fields...)
	}

	var order model.PrescriptionOrder
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		created, err := s.store.InsertOrder(ctx, model.NewPrescriptionOrder{
			VisitID:          req.VisitID,
			PatientID:        req.PatientID,
			PrescriptionType: req.PrescriptionType,
			Notes:            req.Notes,
			CreatedBy:        actorID,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, item := range req.Medications {
			if _, err := s.store.InsertDetail(ctx, created.OrderID, item); err != nil {
				return fmt.Errorf("insert line item %d: %w", i, err)
			}
		}

		order = created
		return nil
	})
	if err != nil {
		s.logAudit(ctx, actor, model.AuditStatusFailure, "visit:"+strconv.FormatInt(req.VisitID, 10), err)
		return model.PrescriptionOrderResult{}, apierror.Internal(err)
	}

	s.logAudit(ctx, actor, model.AuditStatusSuccess, orderResource(order.OrderID), nil)

	details, err := s.store.ListDetails(ctx, order.OrderID)
	if err != nil {
		return model.PrescriptionOrderResult{}, apierror.Internal(fmt.Errorf("read back order %d: %w", order.OrderID, err))
	}

	return model.PrescriptionOrderResult{Order: order, Details: details}, nil
}

func (s *PrescriptionService) Get(ctx context.Context, orderID int64) (model.PrescriptionOrderDetail, error) {
	order, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return model.PrescriptionOrderDetail{}, apierror.NotFound("prescription order not found")
		}
		return model.PrescriptionOrderDetail{}, err
	}

	details, err := s.store.ListDetails(ctx, orderID)
	if err != nil {
		return model.PrescriptionOrderDetail{}, err
	}

	return model.PrescriptionOrderDetail{Order: order, Details: details}, nil
}

func (s *PrescriptionService) ListByPatient(ctx context.Context, patientID int64) ([]model.PrescriptionListItem, error) {
	items, err := s.store.ListByPatient(ctx, patientID, patientHistoryLimit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.PrescriptionListItem{}
	}
	return items, nil
}

func (s *PrescriptionService) SearchMedications(ctx context.Context, keyword string, limit int) ([]model.Medication, error) {
	items, err := s.store.SearchMedications(ctx, strings.TrimSpace(keyword), clampLimit(limit, defaultMedicationLimit, maxMedicationLimit))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Medication{}
	}
	return items, nil
}

func (s *PrescriptionService) logAudit(ctx context.Context, actor model.AuditActor, status string, resource string, err error) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, model.AuditActionOrderCreate, actor, status, resource, errorText(err))
}

func orderResource(orderID int64) string {
	return "prescription:" + strconv.FormatInt(orderID, 10)
}

func validatePrescription(req model.CreatePrescriptionRequest) []apierror.FieldError {
	var fields []apierror.FieldError

	if req.VisitID <= 0 {
		fields = append(fields, apierror.FieldError{Field: "visitId", Message: "is required"})
	}
	if req.PatientID <= 0 {
		fields = append(fields, apierror.FieldError{Field: "patientId", Message: "is required"})
	}
	if len(req.PrescriptionType) > 20 {
		fields = append(fields, apierror.FieldError{Field: "prescriptionType", Message: "must be at most 20 characters"})
	}
	if len(req.Medications) == 0 {
		fields = append(fields, apierror.FieldError{Field: "medications", Message: "must contain at least one item"})
	}

	for i, item := range req.Medications {
		prefix := "medications[" + strconv.Itoa(i) + "]."
		if item.MedicationID <= 0 {
			fields = append(fields, apierror.FieldError{Field: prefix + "medicationId", Message: "is required"})
		}
		if strings.TrimSpace(item.Dosage) == "" {
			fields = append(fields, apierror.FieldError{Field: prefix + "dosage", Message: "is required"})
		}
		if strings.TrimSpace(item.Frequency) == "" {
			fields = append(fields, apierror.FieldError{Field: prefix + "frequency", Message: "is required"})
		}
		if item.DurationDays != nil && *item.DurationDays <= 0 {
			fields = append(fields, apierror.FieldError{Field: prefix + "durationDays", Message: "must be positive"})
		}
		if item.Quantity != nil && *item.Quantity <= 0 {
			fields = append(fields, apierror.FieldError{Field: prefix + "quantity", Message: "must be positive"})
		}
	}

	return fields
}
