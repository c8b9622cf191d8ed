package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clinic-api/internal/database"
	"clinic-api/internal/model"
)

const visitColumns = `
	v.visit_id, v.patient_id, v.visit_date::text, v.visit_time::text, v.department_id,
	v.attending_doctor_id, v.visit_type, v.visit_status, v.created_by, v.created_at`

const visitJoins = `
	LEFT JOIN departments d ON d.department_id = v.department_id
	LEFT JOIN staff s ON s.staff_id = v.attending_doctor_id`

type VisitRepository struct {
	db *database.DB
}

func NewVisitRepository(db *database.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Create(ctx context.Context, req model.CreateVisitRequest, createdBy int64) (model.Visit, error) {
	var v model.Visit
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO visits AS v (
		     patient_id, visit_date, visit_time, department_id,
		     attending_doctor_id, visit_type, visit_status, created_by
		 ) VALUES ($1, $2::date, $3::time, $4, $5, $6, $7, $8)
		 RETURNING `+visitColumns,
		req.PatientID, req.VisitDate, req.VisitTime, req.DepartmentID,
		req.AttendingDoctorID, req.VisitType, model.VisitStatusWaiting, createdBy).Scan(visitDest(&v)...)
	if database.IsForeignKeyViolation(err) {
		return model.Visit{}, fmt.Errorf("create visit: %w", model.ErrReferenceNotFound)
	}
	if err != nil {
		return model.Visit{}, fmt.Errorf("create visit: %w", err)
	}
	return v, nil
}

func (r *VisitRepository) ListByPatient(ctx context.Context, patientID int64, limit int) ([]model.VisitListItem, error) {
	rows, err := r.db.Conn(ctx).Query(ctx,
		`SELECT `+visitColumns+`, d.department_name, s.last_name, s.first_name
		 FROM visits v`+visitJoins+`
		 WHERE v.patient_id = $1
		 ORDER BY v.visit_date DESC, v.visit_time DESC NULLS LAST, v.visit_id DESC
		 LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.VisitListItem, error) {
		var item model.VisitListItem
		err := row.Scan(append(visitDest(&item.Visit), &item.DepartmentName, &item.DoctorLastName, &item.DoctorFirstName)...)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan visits: %w", err)
	}
	return items, nil
}

// ListToday returns visits dated on the database server's current date.
func (r *VisitRepository) ListToday(ctx context.Context) ([]model.VisitDetail, error) {
	rows, err := r.db.Conn(ctx).Query(ctx,
		`SELECT `+visitColumns+`, d.department_name, s.last_name, s.first_name,
		        p.patient_number, p.last_name, p.first_name, p.last_name_kana, p.first_name_kana,
		        p.birth_date::text, p.gender
		 FROM visits v
		 JOIN patients p ON p.patient_id = v.patient_id`+visitJoins+`
		 WHERE v.visit_date = CURRENT_DATE
		 ORDER BY v.visit_time NULLS LAST, v.visit_id`)
	if err != nil {
		return nil, fmt.Errorf("list today's visits: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.VisitDetail, error) {
		var item model.VisitDetail
		err := row.Scan(visitDetailDest(&item)...)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan today's visits: %w", err)
	}
	return items, nil
}

func (r *VisitRepository) FindByID(ctx context.Context, visitID int64) (model.VisitDetail, error) {
	var item model.VisitDetail
	err := r.db.Conn(ctx).QueryRow(ctx,
		`SELECT `+visitColumns+`, d.department_name, s.last_name, s.first_name,
		        p.patient_number, p.last_name, p.first_name, p.last_name_kana, p.first_name_kana,
		        p.birth_date::text, p.gender
		 FROM visits v
		 JOIN patients p ON p.patient_id = v.patient_id`+visitJoins+`
		 WHERE v.visit_id = $1`, visitID).Scan(visitDetailDest(&item)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.VisitDetail{}, model.ErrVisitNotFound
	}
	if err != nil {
		return model.VisitDetail{}, fmt.Errorf("find visit: %w", err)
	}
	return item, nil
}

func visitDest(v *model.Visit) []any {
	return []any{
		&v.VisitID, &v.PatientID, &v.VisitDate, &v.VisitTime, &v.DepartmentID,
		&v.AttendingDoctorID, &v.VisitType, &v.VisitStatus, &v.CreatedBy, &v.CreatedAt,
	}
}

func visitDetailDest(item *model.VisitDetail) []any {
	return append(visitDest(&item.Visit),
		&item.DepartmentName, &item.DoctorLastName, &item.DoctorFirstName,
		&item.Patient.PatientNumber, &item.Patient.LastName, &item.Patient.FirstName,
		&item.Patient.LastNameKana, &item.Patient.FirstNameKana,
		&item.Patient.BirthDate, &item.Patient.Gender,
	)
}
