package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"clinic-api/internal/database"
	"clinic-api/internal/model"
)

const patientColumns = `
	p.patient_id, p.patient_number, p.last_name, p.first_name, p.last_name_kana, p.first_name_kana,
	p.birth_date::text, EXTRACT(YEAR FROM AGE(p.birth_date))::int, p.gender,
	p.postal_code, p.address, p.phone_number, p.mobile_number, p.email,
	p.emergency_contact_name, p.emergency_contact_phone,
	p.created_by, p.updated_by, p.created_at, p.updated_at`

type PatientRepository struct {
	db *database.DB
}

func NewPatientRepository(db *database.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Search(ctx context.Context, query model.PatientSearchQuery) ([]model.PatientSummary, int, error) {
	where := []string{"is_deleted = FALSE"}
	args := make([]any, 0, 7)
	argIdx := 1

	if query.PatientNumber != "" {
		where = append(where, fmt.Sprintf("patient_number = $%d", argIdx))
		args = append(args, query.PatientNumber)
		argIdx++
	}
	if query.LastNameKana != "" {
		where = append(where, fmt.Sprintf("last_name_kana LIKE $%d", argIdx))
		args = append(args, likePattern(false, query.LastNameKana, true))
		argIdx++
	}
	if query.FirstNameKana != "" {
		where = append(where, fmt.Sprintf("first_name_kana LIKE $%d", argIdx))
		args = append(args, likePattern(false, query.FirstNameKana, true))
		argIdx++
	}
	if query.BirthDate != "" {
		where = append(where, fmt.Sprintf("birth_date = $%d::date", argIdx))
		args = append(args, query.BirthDate)
		argIdx++
	}
	if query.PhoneNumber != "" {
		where = append(where, fmt.Sprintf(
			"(replace(phone_number, '-', '') LIKE $%d OR replace(mobile_number, '-', '') LIKE $%d)", argIdx, argIdx))
		args = append(args, likePattern(true, query.PhoneNumber, true))
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(where, " AND ")
	conn := r.db.Conn(ctx)

	var total int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM patients "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := conn.Query(ctx, fmt.Sprintf(
		`SELECT patient_id, patient_number, last_name, first_name, last_name_kana, first_name_kana,
		        birth_date::text, EXTRACT(YEAR FROM AGE(birth_date))::int, gender,
		        phone_number, mobile_number, email
		 FROM patients %s
		 ORDER BY patient_number
		 LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1),
		append(args, query.Limit, query.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}

	patients, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PatientSummary, error) {
		var p model.PatientSummary
		err := row.Scan(&p.PatientID, &p.PatientNumber, &p.LastName, &p.FirstName, &p.LastNameKana, &p.FirstNameKana,
			&p.BirthDate, &p.Age, &p.Gender, &p.PhoneNumber, &p.MobileNumber, &p.Email)
		return p, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan patients: %w", err)
	}

	return patients, total, nil
}

func (r *PatientRepository) FindByID(ctx context.Context, patientID int64) (model.PatientDetail, error) {
	conn := r.db.Conn(ctx)

	var detail model.PatientDetail
	var insuranceID *int64
	var insurance model.PatientInsurance

	dest := append(patientDest(&detail.Patient),
		&insuranceID, &insurance.InsuranceType, &insurance.InsuranceNumber, &insurance.InsurerName, &insurance.CoverageRatio)

	err := conn.QueryRow(ctx,
		`SELECT `+patientColumns+`,
		        pi.insurance_id, pi.insurance_type, pi.insurance_number, pi.insurer_name, pi.coverage_ratio
		 FROM patients p
		 LEFT JOIN LATERAL (
		     SELECT insurance_id, insurance_type, insurance_number, insurer_name, coverage_ratio
		     FROM patient_insurance
		     WHERE patient_id = p.patient_id AND is_primary = TRUE
		     ORDER BY insurance_id DESC
		     LIMIT 1
		 ) pi ON TRUE
		 WHERE p.patient_id = $1 AND p.is_deleted = FALSE`, patientID).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PatientDetail{}, model.ErrPatientNotFound
	}
	if err != nil {
		return model.PatientDetail{}, fmt.Errorf("find patient: %w", err)
	}
	if insuranceID != nil {
		detail.Insurance = &insurance
	}

	rows, err := conn.Query(ctx,
		`SELECT allergy_id, patient_id, allergen, reaction, severity, created_at
		 FROM patient_allergies
		 WHERE patient_id = $1
		 ORDER BY created_at DESC, allergy_id DESC`, patientID)
	if err != nil {
		return model.PatientDetail{}, fmt.Errorf("list allergies: %w", err)
	}

	detail.Allergies, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PatientAllergy, error) {
		var a model.PatientAllergy
		err := row.Scan(&a.AllergyID, &a.PatientID, &a.Allergen, &a.Reaction, &a.Severity, &a.CreatedAt)
		return a, err
	})
	if err != nil {
		return model.PatientDetail{}, fmt.Errorf("scan allergies: %w", err)
	}

	return detail, nil
}

// Create assigns the next zero-padded patient number from patient_number_seq.
func (r *PatientRepository) Create(ctx context.Context, req model.CreatePatientRequest, createdBy int64) (model.Patient, error) {
	var p model.Patient
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO patients AS p (
		     patient_number, last_name, first_name, last_name_kana, first_name_kana,
		     birth_date, gender, postal_code, address, phone_number, mobile_number,
		     email, emergency_contact_name, emergency_contact_phone, created_by, updated_by
		 ) VALUES (
		     LPAD(nextval('patient_number_seq')::text, 6, '0'), $1, $2, $3, $4,
		     $5::date, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14
		 )
		 RETURNING `+patientColumns,
		req.LastName, req.FirstName, req.LastNameKana, req.FirstNameKana,
		req.BirthDate, req.Gender, req.PostalCode, req.Address, req.PhoneNumber, req.MobileNumber,
		req.Email, req.EmergencyContactName, req.EmergencyContactPhone, createdBy).Scan(patientDest(&p)...)
	if err != nil {
		return model.Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) Update(ctx context.Context, patientID int64, req model.UpdatePatientRequest, updatedBy int64) (model.Patient, error) {
	var p model.Patient
	err := r.db.Conn(ctx).QueryRow(ctx,
		`UPDATE patients AS p SET
		     last_name = COALESCE($1, last_name),
		     first_name = COALESCE($2, first_name),
		     last_name_kana = COALESCE($3, last_name_kana),
		     first_name_kana = COALESCE($4, first_name_kana),
		     postal_code = COALESCE($5, postal_code),
		     address = COALESCE($6, address),
		     phone_number = COALESCE($7, phone_number),
		     mobile_number = COALESCE($8, mobile_number),
		     email = COALESCE($9, email),
		     emergency_contact_name = COALESCE($10, emergency_contact_name),
		     emergency_contact_phone = COALESCE($11, emergency_contact_phone),
		     updated_by = $12,
		     updated_at = NOW()
		 WHERE p.patient_id = $13 AND p.is_deleted = FALSE
		 RETURNING `+patientColumns,
		req.LastName, req.FirstName, req.LastNameKana, req.FirstNameKana,
		req.PostalCode, req.Address, req.PhoneNumber, req.MobileNumber,
		req.Email, req.EmergencyContactName, req.EmergencyContactPhone,
		updatedBy, patientID).Scan(patientDest(&p)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Patient{}, model.ErrPatientNotFound
	}
	if err != nil {
		return model.Patient{}, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

func patientDest(p *model.Patient) []any {
	return []any{
		&p.PatientID, &p.PatientNumber, &p.LastName, &p.FirstName, &p.LastNameKana, &p.FirstNameKana,
		&p.BirthDate, &p.Age, &p.Gender,
		&p.PostalCode, &p.Address, &p.PhoneNumber, &p.MobileNumber, &p.Email,
		&p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	}
}
