package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

type stagedWrites struct {
	orders  []model.PrescriptionOrder
	details []model.PrescriptionDetail
}

type stageKey struct{}

// fakeOrderStore emulates transactional visibility: writes made inside
// WithTx are staged and only become visible on commit.
type fakeOrderStore struct {
	mu            sync.Mutex
	orders        []model.PrescriptionOrder
	details       []model.PrescriptionDetail
	nextOrderID   int64
	nextDetailID  int64
	failDetailAt  int
	detailInserts int
	failErr       error
	medications   map[int64]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		nextOrderID:  100,
		nextDetailID: 1,
		failDetailAt: -1,
		medications:  map[int64]string{1: "Loxonin Tablets 60mg", 2: "Calonal Tablets 200mg", 3: "Mucodyne Tablets 250mg", 4: "Amlodipine Tablets 5mg"},
	}
}

func (f *fakeOrderStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	stage := &stagedWrites{}
	if err := fn(context.WithValue(ctx, stageKey{}, stage)); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, stage.orders...)
	f.details = append(f.details, stage.details...)
	return nil
}

func stageFrom(ctx context.Context) *stagedWrites {
	stage, _ := ctx.Value(stageKey{}).(*stagedWrites)
	return stage
}

func (f *fakeOrderStore) InsertOrder(ctx context.Context, order model.NewPrescriptionOrder) (model.PrescriptionOrder, error) {
	stage := stageFrom(ctx)
	if stage == nil {
		return model.PrescriptionOrder{}, errors.New("insert outside transaction")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	created := model.PrescriptionOrder{
		OrderID:          f.nextOrderID,
		VisitID:          order.VisitID,
		PatientID:        order.PatientID,
		PrescriptionType: order.PrescriptionType,
		Notes:            order.Notes,
		OrderDate:        now,
		CreatedBy:        order.CreatedBy,
		UpdatedBy:        order.CreatedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.nextOrderID++
	stage.orders = append(stage.orders, created)
	return created, nil
}

func (f *fakeOrderStore) InsertDetail(ctx context.Context, orderID int64, item model.PrescriptionItemRequest) (model.PrescriptionDetail, error) {
	stage := stageFrom(ctx)
	if stage == nil {
		return model.PrescriptionDetail{}, errors.New("insert outside transaction")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	index := f.detailInserts
	f.detailInserts++
	if index == f.failDetailAt {
		return model.PrescriptionDetail{}, f.failErr
	}
	if _, ok := f.medications[item.MedicationID]; !ok {
		return model.PrescriptionDetail{}, fmt.Errorf("medication %d: %w", item.MedicationID, model.ErrReferenceNotFound)
	}

	detail := model.PrescriptionDetail{
		DetailID:     f.nextDetailID,
		OrderID:      orderID,
		MedicationID: item.MedicationID,
		Dosage:       item.Dosage,
		DosageUnit:   item.DosageUnit,
		Frequency:    item.Frequency,
		DurationDays: item.DurationDays,
		Quantity:     item.Quantity,
		Instructions: item.Instructions,
	}
	f.nextDetailID++
	stage.details = append(stage.details, detail)
	return detail, nil
}

func (f *fakeOrderStore) ListDetails(_ context.Context, orderID int64) ([]model.PrescriptionDetailView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.PrescriptionDetailView
	for _, detail := range f.details {
		if detail.OrderID == orderID {
			out = append(out, model.PrescriptionDetailView{PrescriptionDetail: detail, MedicationName: f.medications[detail.MedicationID]})
		}
	}
	return out, nil
}

func (f *fakeOrderStore) FindOrder(_ context.Context, orderID int64) (model.PrescriptionOrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, order := range f.orders {
		if order.OrderID == orderID {
			return model.PrescriptionOrderView{PrescriptionOrder: order, VisitDate: "2026-03-01"}, nil
		}
	}
	return model.PrescriptionOrderView{}, model.ErrOrderNotFound
}

func (f *fakeOrderStore) ListByPatient(_ context.Context, patientID int64, limit int) ([]model.PrescriptionListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.PrescriptionListItem
	for _, order := range f.orders {
		if order.PatientID == patientID && len(out) < limit {
			out = append(out, model.PrescriptionListItem{PrescriptionOrder: order})
		}
	}
	return out, nil
}

func (f *fakeOrderStore) SearchMedications(_ context.Context, _ string, limit int) ([]model.Medication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []model.Medication
	for id, name := range f.medications {
		if len(out) >= limit {
			break
		}
		out = append(out, model.Medication{MedicationID: id, MedicationName: name})
	}
	return out, nil
}

func (f *fakeOrderStore) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders), len(f.details)
}

func doctorActor() model.AuditActor {
	id := int64(7)
	return model.AuditActor{UserID: &id, Username: "doctor", Role: model.RoleDoctor, IP: "127.0.0.1"}
}

func orderRequest(items int) model.CreatePrescriptionRequest {
	req := model.CreatePrescriptionRequest{VisitID: 10, PatientID: 20}
	for i := 0; i < items; i++ {
		req.Medications = append(req.Medications, model.PrescriptionItemRequest{
			MedicationID: int64(i%4 + 1),
			Dosage:       "1",
			Frequency:    "3 times daily after meals",
		})
	}
	return req
}

func TestCreateOrderCommitsAllLineItems(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	audit := &fakeAuditLogger{}
	svc := NewPrescriptionService(store, store, audit)

	result, err := svc.CreateOrder(context.Background(), doctorActor(), orderRequest(3))
	require.NoError(t, err)
	require.Equal(t, int64(100), result.Order.OrderID)
	require.Equal(t, "OUTPATIENT", result.Order.PrescriptionType)
	require.Equal(t, int64(7), result.Order.CreatedBy)
	require.Len(t, result.Details, 3)
	require.Equal(t, "Loxonin Tablets 60mg", result.Details[0].MedicationName)

	orders, details := store.counts()
	require.Equal(t, 1, orders)
	require.Equal(t, 3, details)
	require.Equal(t, []string{model.AuditStatusSuccess}, audit.statuses())
}

func TestCreateOrderIsAtomic(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 4, 7} {
		n := n
		t.Run(fmt.Sprintf("%d items", n), func(t *testing.T) {
			t.Parallel()

			store := newFakeOrderStore()
			store.failDetailAt = n / 2
			store.failErr = errors.New("connection reset by peer")
			audit := &fakeAuditLogger{}
			svc := NewPrescriptionService(store, store, audit)

			_, err := svc.CreateOrder(context.Background(), doctorActor(), orderRequest(n))
			requireAPIError(t, err, 500, apierror.CodeInternal)

			orders, details := store.counts()
			require.Zero(t, orders)
			require.Zero(t, details)
			require.Equal(t, []string{model.AuditStatusFailure}, audit.statuses())
		})
	}
}

func TestCreateOrderUnknownMedicationRollsBack(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	audit := &fakeAuditLogger{}
	svc := NewPrescriptionService(store, store, audit)

	req := orderRequest(2)
	req.Medications[1].MedicationID = 999

	_, err := svc.CreateOrder(context.Background(), doctorActor(), req)
	apiErr := requireAPIError(t, err, 500, apierror.CodeInternal)
	require.Equal(t, "internal server error", apiErr.Message)
	require.NotContains(t, apiErr.Message, "medication")
	require.ErrorIs(t, err, model.ErrReferenceNotFound)

	orders, details := store.counts()
	require.Zero(t, orders)
	require.Zero(t, details)
	require.Equal(t, []string{model.AuditStatusFailure}, audit.statuses())
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	svc := NewPrescriptionService(store, store, nil)

	t.Run("empty line items", func(t *testing.T) {
		t.Parallel()

		_, err := svc.CreateOrder(context.Background(), doctorActor(), orderRequest(0))
		apiErr := requireAPIError(t, err, 400, apierror.CodeValidation)
		require.Equal(t, "medications", apiErr.Fields[0].Field)
	})

	t.Run("missing item fields", func(t *testing.T) {
		t.Parallel()

		req := orderRequest(1)
		req.VisitID = 0
		req.Medications[0].Dosage = " "
		req.Medications[0].Frequency = ""

		_, err := svc.CreateOrder(context.Background(), doctorActor(), req)
		apiErr := requireAPIError(t, err, 400, apierror.CodeValidation)
		require.Len(t, apiErr.Fields, 3)
	})

	t.Run("anonymous actor", func(t *testing.T) {
		t.Parallel()

		_, err := svc.CreateOrder(context.Background(), model.AuditActor{}, orderRequest(1))
		requireAPIError(t, err, 401, apierror.CodeMissingToken)
	})
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	svc := NewPrescriptionService(store, store, nil)

	created, err := svc.CreateOrder(context.Background(), doctorActor(), orderRequest(2))
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), created.Order.OrderID)
	require.NoError(t, err)
	require.Len(t, detail.Details, 2)

	_, err = svc.Get(context.Background(), 9999)
	requireAPIError(t, err, 404, apierror.CodeNotFound)
}

func TestSearchMedicationsClampsLimit(t *testing.T) {
	t.Parallel()

	store := newFakeOrderStore()
	svc := NewPrescriptionService(store, store, nil)

	items, err := svc.SearchMedications(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = svc.SearchMedications(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, items, 4)

	empty, err := svc.ListByPatient(context.Background(), 404)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}
