package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clinic-api/internal/database"
	"clinic-api/internal/model"
)

const orderColumns = `
	po.order_id, po.visit_id, po.patient_id, po.prescription_type, po.notes, po.order_date,
	po.created_by, po.updated_by, po.created_at, po.updated_at`

const detailColumns = `
	pd.detail_id, pd.order_id, pd.medication_id, pd.dosage, pd.dosage_unit,
	pd.frequency, pd.duration_days, pd.quantity, pd.instructions`

type PrescriptionRepository struct {
	db *database.DB
}

func NewPrescriptionRepository(db *database.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) InsertOrder(ctx context.Context, order model.NewPrescriptionOrder) (model.PrescriptionOrder, error) {
	var po model.PrescriptionOrder
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO prescription_orders AS po (
		     visit_id, patient_id, prescription_type, notes, created_by, updated_by
		 ) VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING `+orderColumns,
		order.VisitID, order.PatientID, order.PrescriptionType, order.Notes, order.CreatedBy).
		Scan(orderDest(&po)...)
	if database.IsForeignKeyViolation(err) {
		return model.PrescriptionOrder{}, fmt.Errorf("insert prescription order: %w", model.ErrReferenceNotFound)
	}
	if err != nil {
		return model.PrescriptionOrder{}, fmt.Errorf("insert prescription order: %w", err)
	}
	return po, nil
}

func (r *PrescriptionRepository) InsertDetail(ctx context.Context, orderID int64, item model.PrescriptionItemRequest) (model.PrescriptionDetail, error) {
	var pd model.PrescriptionDetail
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO prescription_details AS pd (
		     order_id, medication_id, dosage, dosage_unit, frequency, duration_days, quantity, instructions
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+detailColumns,
		orderID, item.MedicationID, item.Dosage, item.DosageUnit, item.Frequency,
		item.DurationDays, item.Quantity, item.Instructions).Scan(detailDest(&pd)...)
	if database.IsForeignKeyViolation(err) {
		return model.PrescriptionDetail{}, fmt.Errorf("insert prescription detail (medication %d): %w", item.MedicationID, model.ErrReferenceNotFound)
	}
	if err != nil {
		return model.PrescriptionDetail{}, fmt.Errorf("insert prescription detail: %w", err)
	}
	return pd, nil
}

// ListDetails returns the line items of an order in insertion order, joined
// with the catalog fields of each medication.
func (r *PrescriptionRepository) ListDetails(ctx context.Context, orderID int64) ([]model.PrescriptionDetailView, error) {
	rows, err := r.db.Conn(ctx).Query(ctx,
		`SELECT `+detailColumns+`,
		        m.medication_name, m.generic_name, m.dosage_form, m.strength, m.unit
		 FROM prescription_details pd
		 JOIN medications m ON m.medication_id = pd.medication_id
		 WHERE pd.order_id = $1
		 ORDER BY pd.detail_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list prescription details: %w", err)
	}

	details, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PrescriptionDetailView, error) {
		var d model.PrescriptionDetailView
		err := row.Scan(append(detailDest(&d.PrescriptionDetail),
			&d.MedicationName, &d.GenericName, &d.DosageForm, &d.Strength, &d.Unit)...)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan prescription details: %w", err)
	}
	return details, nil
}

func (r *PrescriptionRepository) FindOrder(ctx context.Context, orderID int64) (model.PrescriptionOrderView, error) {
	var view model.PrescriptionOrderView
	dest := append(orderDest(&view.PrescriptionOrder),
		&view.VisitDate, &view.Patient.PatientNumber, &view.Patient.LastName, &view.Patient.FirstName)

	err := r.db.Conn(ctx).QueryRow(ctx,
		`SELECT `+orderColumns+`, v.visit_date::text, p.patient_number, p.last_name, p.first_name
		 FROM prescription_orders po
		 JOIN patients p ON p.patient_id = po.patient_id
		 JOIN visits v ON v.visit_id = po.visit_id
		 WHERE po.order_id = $1`, orderID).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PrescriptionOrderView{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.PrescriptionOrderView{}, fmt.Errorf("find prescription order: %w", err)
	}
	return view, nil
}

func (r *PrescriptionRepository) ListByPatient(ctx context.Context, patientID int64, limit int) ([]model.PrescriptionListItem, error) {
	rows, err := r.db.Conn(ctx).Query(ctx,
		`SELECT `+orderColumns+`, v.visit_date::text, s.last_name, s.first_name
		 FROM prescription_orders po
		 JOIN visits v ON v.visit_id = po.visit_id
		 LEFT JOIN users u ON u.user_id = po.created_by
		 LEFT JOIN staff s ON s.staff_id = u.staff_id
		 WHERE po.patient_id = $1
		 ORDER BY po.order_date DESC, po.order_id DESC
		 LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list prescription orders: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PrescriptionListItem, error) {
		var item model.PrescriptionListItem
		err := row.Scan(append(orderDest(&item.PrescriptionOrder),
			&item.VisitDate, &item.DoctorLastName, &item.DoctorFirstName)...)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan prescription orders: %w", err)
	}
	return items, nil
}

func (r *PrescriptionRepository) SearchMedications(ctx context.Context, keyword string, limit int) ([]model.Medication, error) {
	sql := `SELECT medication_id, medication_name, generic_name, dosage_form, strength, unit
		FROM medications
		WHERE is_deleted = FALSE`
	args := []any{}

	if keyword != "" {
		sql += ` AND (medication_name ILIKE $1 OR generic_name ILIKE $1)`
		args = append(args, likePattern(true, keyword, true))
	}

	sql += fmt.Sprintf(` ORDER BY medication_name LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("search medications: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Medication, error) {
		var m model.Medication
		err := row.Scan(&m.MedicationID, &m.MedicationName, &m.GenericName, &m.DosageForm, &m.Strength, &m.Unit)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan medications: %w", err)
	}
	return items, nil
}

func orderDest(po *model.PrescriptionOrder) []any {
	return []any{
		&po.OrderID, &po.VisitID, &po.PatientID, &po.PrescriptionType, &po.Notes, &po.OrderDate,
		&po.CreatedBy, &po.UpdatedBy, &po.CreatedAt, &po.UpdatedAt,
	}
}

func detailDest(pd *model.PrescriptionDetail) []any {
	return []any{
		&pd.DetailID, &pd.OrderID, &pd.MedicationID, &pd.Dosage, &pd.DosageUnit,
		&pd.Frequency, &pd.DurationDays, &pd.Quantity, &pd.Instructions,
	}
}
