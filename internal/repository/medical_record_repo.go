package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clinic-api/internal/database"
	"clinic-api/internal/model"
)

const recordColumns = `
	mr.record_id, mr.visit_id, mr.patient_id, mr.record_date,
	mr.subjective, mr.objective, mr.assessment, mr.plan,
	mr.is_signed, mr.signed_at, mr.signed_by, mr.signature_data,
	mr.created_by, mr.updated_by, mr.created_at, mr.updated_at`

// Author names come from the staff row behind the creating user.
const recordJoins = `
	JOIN visits v ON v.visit_id = mr.visit_id
	LEFT JOIN users u ON u.user_id = mr.created_by
	LEFT JOIN staff s ON s.staff_id = u.staff_id`

type MedicalRecordRepository struct {
	db *database.DB
}

func NewMedicalRecordRepository(db *database.DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

func (r *MedicalRecordRepository) Create(ctx context.Context, req model.CreateMedicalRecordRequest, authorID int64) (model.MedicalRecord, error) {
	var rec model.MedicalRecord
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO medical_records AS mr (
		     visit_id, patient_id, subjective, objective, assessment, plan, created_by, updated_by
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		 RETURNING `+recordColumns,
		req.VisitID, req.PatientID, req.Subjective, req.Objective, req.Assessment, req.Plan, authorID).
		Scan(recordDest(&rec)...)
	if database.IsForeignKeyViolation(err) {
		return model.MedicalRecord{}, fmt.Errorf("create medical record: %w", model.ErrReferenceNotFound)
	}
	if err != nil {
		return model.MedicalRecord{}, fmt.Errorf("create medical record: %w", err)
	}
	return rec, nil
}

// Sign sets the signature only on an unsigned record. When no row changes it
// tells a missing record apart from one that is already signed.
func (r *MedicalRecordRepository) Sign(ctx context.Context, recordID int64, signerID int64, signature string) (model.MedicalRecord, error) {
	conn := r.db.Conn(ctx)

	var rec model.MedicalRecord
	err := conn.QueryRow(ctx,
		`UPDATE medical_records AS mr SET
		     is_signed = TRUE,
		     signed_at = NOW(),
		     signed_by = $1,
		     signature_data = $2,
		     updated_by = $1,
		     updated_at = NOW()
		 WHERE mr.record_id = $3 AND mr.is_signed = FALSE
		 RETURNING `+recordColumns,
		signerID, signature, recordID).Scan(recordDest(&rec)...)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.MedicalRecord{}, fmt.Errorf("sign medical record: %w", err)
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM medical_records WHERE record_id = $1)`, recordID).Scan(&exists); err != nil {
		return model.MedicalRecord{}, fmt.Errorf("check medical record: %w", err)
	}
	if exists {
		return model.MedicalRecord{}, model.ErrRecordAlreadySigned
	}
	return model.MedicalRecord{}, model.ErrMedicalRecordNotFound
}

func (r *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID int64, limit int) ([]model.MedicalRecordListItem, error) {
	rows, err := r.db.Conn(ctx).Query(ctx,
		`SELECT `+recordColumns+`, v.visit_date::text, s.last_name, s.first_name
		 FROM medical_records mr`+recordJoins+`
		 WHERE mr.patient_id = $1
		 ORDER BY mr.record_date DESC, mr.record_id DESC
		 LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MedicalRecordListItem, error) {
		var item model.MedicalRecordListItem
		err := row.Scan(recordListDest(&item)...)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan medical records: %w", err)
	}
	return items, nil
}

func (r *MedicalRecordRepository) FindByID(ctx context.Context, recordID int64) (model.MedicalRecordDetail, error) {
	var item model.MedicalRecordDetail
	dest := append(recordListDest(&item.MedicalRecordListItem),
		&item.Patient.PatientNumber, &item.Patient.LastName, &item.Patient.FirstName)

	err := r.db.Conn(ctx).QueryRow(ctx,
		`SELECT `+recordColumns+`, v.visit_date::text, s.last_name, s.first_name,
		        p.patient_number, p.last_name, p.first_name
		 FROM medical_records mr
		 JOIN patients p ON p.patient_id = mr.patient_id`+recordJoins+`
		 WHERE mr.record_id = $1`, recordID).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MedicalRecordDetail{}, model.ErrMedicalRecordNotFound
	}
	if err != nil {
		return model.MedicalRecordDetail{}, fmt.Errorf("find medical record: %w", err)
	}
	return item, nil
}

func recordDest(rec *model.MedicalRecord) []any {
	return []any{
		&rec.RecordID, &rec.VisitID, &rec.PatientID, &rec.RecordDate,
		&rec.Subjective, &rec.Objective, &rec.Assessment, &rec.Plan,
		&rec.IsSigned, &rec.SignedAt, &rec.SignedBy, &rec.SignatureData,
		&rec.CreatedBy, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	}
}

func recordListDest(item *model.MedicalRecordListItem) []any {
	return append(recordDest(&item.MedicalRecord), &item.VisitDate, &item.DoctorLastName, &item.DoctorFirstName)
}
