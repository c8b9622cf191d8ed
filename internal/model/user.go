package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleDoctor       Role = "DOCTOR"
	RoleNurse        Role = "NURSE"
	RoleReceptionist Role = "RECEPTIONIST"
	RoleAdmin        Role = "ADMIN"
)

var knownRoles = []Role{RoleDoctor, RoleNurse, RoleReceptionist, RoleAdmin}

func ParseRole(raw string) (Role, bool) {
	candidate := Role(strings.ToUpper(strings.TrimSpace(raw)))
	for _, role := range knownRoles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// User is a login identity joined with the staff member it belongs to.
type User struct {
	ID               int64
	Username         string
	PasswordHash     string
	Role             Role
	StaffID          *int64
	Email            *string
	IsActive         bool
	FailedLoginCount int
	LockedUntil      *time.Time
	LastLogin        *time.Time
	LastName         *string
	FirstName        *string
}

func (u User) Profile() UserProfile {
	return UserProfile{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		LastName:  u.LastName,
		FirstName: u.FirstName,
		Email:     u.Email,
	}
}

func (u User) Claims() AuthClaims {
	return AuthClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		StaffID:  u.StaffID,
	}
}

type AuthClaims struct {
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	StaffID   *int64    `json:"staffId"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

type UserProfile struct {
	UserID    int64   `json:"userId"`
	Username  string  `json:"username"`
	Role      Role    `json:"role"`
	LastName  *string `json:"lastName"`
	FirstName *string `json:"firstName"`
	Email     *string `json:"email"`
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}

type VerifyResult struct {
	Valid bool        `json:"valid"`
	User  UserProfile `json:"user"`
}

type NewUser struct {
	Username     string
	PasswordHash string
	Role         Role
	StaffID      *int64
	Email        *string
}
