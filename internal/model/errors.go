package model

import "errors"

var (
	// Identity
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Tokens
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// Clinical records
	ErrPatientNotFound       = errors.New("patient not found")
	ErrVisitNotFound         = errors.New("visit not found")
	ErrMedicalRecordNotFound = errors.New("medical record not found")
	ErrRecordAlreadySigned   = errors.New("medical record already signed")
	ErrOrderNotFound         = errors.New("prescription order not found")
	ErrReferenceNotFound     = errors.New("referenced row does not exist")
)
