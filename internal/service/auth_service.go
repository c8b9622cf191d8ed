package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

type credentialStore interface {
	FindActiveByUsername(ctx context.Context, username string) (model.User, error)
	FindActiveByID(ctx context.Context, id int64) (model.User, error)
	RecordLoginFailure(ctx context.Context, id int64, failedCount int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error
	Create(ctx context.Context, user model.NewUser) (model.User, error)
}

type auditLogger interface {
	Log(ctx context.Context, action string, actor model.AuditActor, status string, resource string, errText string)
}

var (
	errInvalidCredentials = apierror.Authentication(apierror.CodeInvalidCredentials, "invalid username or password")
	errAccountLocked      = apierror.Authorization(apierror.CodeAccountLocked, "account is locked due to repeated failed logins; try again later")
)

type AuthService struct {
	users     credentialStore
	passwords *PasswordVerifier
	lockout   LockoutPolicy
	tokens    *TokenService
	audit     auditLogger
	now       func() time.Time
	dummyHash string
}

func NewAuthService(users credentialStore, passwords *PasswordVerifier, lockout LockoutPolicy, tokens *TokenService, audit auditLogger) *AuthService {
	// Unknown usernames still pay for one bcrypt comparison.
	dummyHash, err := passwords.Hash("clinic-api-timing-equalizer")
	if err != nil {
		slog.Warn("could not prepare dummy password hash", "error", err)
	}

	return &AuthService{
		users:     users,
		passwords: passwords,
		lockout:   lockout,
		tokens:    tokens,
		audit:     audit,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: dummyHash,
	}
}

// Login runs the credential check, lockout bookkeeping and token issuance.
// Unknown, inactive and wrong-password attempts are indistinguishable to the caller.
// The username is matched exactly as sent.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, ip string) (model.LoginResult, error) {
	username := req.Username
	if fields := validateLogin(strings.TrimSpace(username), req.Password); len(fields) > 0 {
		return model.LoginResult{}, apierror.Validation("invalid login request", fields...)
	}

	actor := model.AuditActor{Username: username, IP: ip}

	user, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.passwords.Verify(req.Password, s.dummyHash)
			s.logLogin(ctx, actor, model.AuditStatusFailure, "unknown or inactive user")
			return model.LoginResult{}, errInvalidCredentials
		}
		return model.LoginResult{}, apierror.Internal(fmt.Errorf("find user: %w", err))
	}

	actor.UserID = &user.ID
	actor.Role = user.Role
	now := s.now()

	if s.lockout.IsLocked(user.LockedUntil, now) {
		s.logLogin(ctx, actor, model.AuditStatusLocked, "account locked")
		return model.LoginResult{}, errAccountLocked
	}

	if !s.passwords.Verify(req.Password, user.PasswordHash) {
		count, lockedUntil := s.lockout.OnFailure(user.FailedLoginCount, now)
		if err := s.users.RecordLoginFailure(ctx, user.ID, count, lockedUntil); err != nil {
			return model.LoginResult{}, apierror.Internal(fmt.Errorf("record login failure: %w", err))
		}

		reason := "wrong password"
		if lockedUntil != nil {
			reason = "wrong password; account locked"
			slog.Warn("account locked after repeated failures", "user_id", user.ID, "failed_count", count, "locked_until", *lockedUntil)
		}
		s.logLogin(ctx, actor, model.AuditStatusFailure, reason)
		return model.LoginResult{}, errInvalidCredentials
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return model.LoginResult{}, apierror.Internal(fmt.Errorf("record login success: %w", err))
	}

	issued, err := s.tokens.Issue(user.Claims(), 0)
	if err != nil {
		return model.LoginResult{}, apierror.Internal(err)
	}

	s.logLogin(ctx, actor, model.AuditStatusSuccess, "")
	slog.Info("user logged in", "user_id", user.ID, "role", user.Role)

	return model.LoginResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      user.Profile(),
	}, nil
}

// VerifyToken is the offline check used by the auth middleware.
func (s *AuthService) VerifyToken(token string) (model.AuthClaims, error) {
	return s.tokens.Verify(token)
}

// CurrentUser re-reads the identity behind verified claims so that
// deactivated or deleted accounts are reported as invalid.
func (s *AuthService) CurrentUser(ctx context.Context, claims model.AuthClaims) (model.VerifyResult, error) {
	user, err := s.users.FindActiveByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.VerifyResult{}, apierror.Authentication(apierror.CodeInvalidToken, "user not found")
		}
		return model.VerifyResult{}, apierror.Internal(fmt.Errorf("find user: %w", err))
	}

	return model.VerifyResult{Valid: true, User: user.Profile()}, nil
}

// CreateUser provisions a login for a staff member.
func (s *AuthService) CreateUser(ctx context.Context, username string, password string, role string, staffID *int64, email *string) (model.User, error) {
	username = strings.TrimSpace(username)

	var fields []apierror.FieldError
	if username == "" {
		fields = append(fields, apierror.FieldError{Field: "username", Message: "is required"})
	}
	if len(password) < 8 {
		fields = append(fields, apierror.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	parsedRole, ok := model.ParseRole(role)
	if !ok {
		fields = append(fields, apierror.FieldError{Field: "role", Message: "must be one of DOCTOR, NURSE, RECEPTIONIST, ADMIN"})
	}
	if len(fields) > 0 {
		return model.User{}, apierror.Validation("invalid user", fields...)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.Create(ctx, model.NewUser{
		Username:     username,
		PasswordHash: hash,
		Role:         parsedRole,
		StaffID:      staffID,
		Email:        email,
	})
	if err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.User{}, apierror.Validation("username already exists",
				apierror.FieldError{Field: "username", Message: "already exists"})
		}
		if errors.Is(err, model.ErrReferenceNotFound) {
			return model.User{}, apierror.Validation("unknown staff member",
				apierror.FieldError{Field: "staffId", Message: "does not exist"})
		}
		return model.User{}, err
	}

	return user, nil
}

func (s *AuthService) logLogin(ctx context.Context, actor model.AuditActor, status string, errText string) {
	if s.audit == nil {
		return
	}

	resource := "user:" + actor.Username
	if actor.UserID != nil {
		resource = "user:" + strconv.FormatInt(*actor.UserID, 10)
	}
	s.audit.Log(ctx, model.AuditActionLogin, actor, status, resource, errText)
}

func validateLogin(username string, password string) []apierror.FieldError {
	var fields []apierror.FieldError
	if username == "" {
		fields = append(fields, apierror.FieldError{Field: "username", Message: "is required"})
	}
	if password == "" {
		fields = append(fields, apierror.FieldError{Field: "password", Message: "is required"})
	}
	return fields
}
