package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"clinic-api/internal/model"
	"clinic-api/pkg/apierror"
)

type fakeCredentialStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	nextID  int64
	failErr error
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{users: map[string]*model.User{}, nextID: 1}
}

func (f *fakeCredentialStore) add(t *testing.T, username string, password string, role model.Role, active bool) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	f.mu.Lock()
	defer f.mu.Unlock()

	last := "Yamada"
	user := &model.User{ID: f.nextID, Username: username, PasswordHash: string(hash), Role: role, IsActive: active, LastName: &last}
	f.nextID++
	f.users[username] = user
	return user
}

func (f *fakeCredentialStore) FindActiveByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[username]
	if !ok || !user.IsActive {
		return model.User{}, model.ErrUserNotFound
	}
	return *user, nil
}

func (f *fakeCredentialStore) FindActiveByID(_ context.Context, id int64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.ID == id && user.IsActive {
			return *user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (f *fakeCredentialStore) RecordLoginFailure(_ context.Context, id int64, failedCount int, lockedUntil *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failErr != nil {
		return f.failErr
	}
	for _, user := range f.users {
		if user.ID == id {
			user.FailedLoginCount = failedCount
			user.LockedUntil = lockedUntil
		}
	}
	return nil
}

func (f *fakeCredentialStore) RecordLoginSuccess(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, user := range f.users {
		if user.ID == id {
			user.FailedLoginCount = 0
			user.LockedUntil = nil
			user.LastLogin = &at
		}
	}
	return nil
}

func (f *fakeCredentialStore) Create(_ context.Context, nu model.NewUser) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.users[nu.Username]; exists {
		return model.User{}, model.ErrUserAlreadyExists
	}
	user := &model.User{ID: f.nextID, Username: nu.Username, PasswordHash: nu.PasswordHash, Role: nu.Role, IsActive: true}
	f.nextID++
	f.users[nu.Username] = user
	return *user, nil
}

type recordedAudit struct {
	action string
	status string
	actor  model.AuditActor
	err    string
}

type fakeAuditLogger struct {
	mu      sync.Mutex
	entries []recordedAudit
}

func (f *fakeAuditLogger) Log(_ context.Context, action string, actor model.AuditActor, status string, _ string, errText string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recordedAudit{action: action, status: status, actor: actor, err: errText})
}

func (f *fakeAuditLogger) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.entries))
	for _, entry := range f.entries {
		out = append(out, entry.status)
	}
	return out
}

type authFixture struct {
	svc   *AuthService
	store *fakeCredentialStore
	audit *fakeAuditLogger
	now   time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := newFakeCredentialStore()
	audit := &fakeAuditLogger{}
	tokens, err := NewTokenService("test-secret", 24*time.Hour)
	require.NoError(t, err)

	fx := &authFixture{
		store: store,
		audit: audit,
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	tokens.now = func() time.Time { return fx.now }

	fx.svc = NewAuthService(store, NewPasswordVerifier(bcrypt.MinCost), NewLockoutPolicy(5, 30*time.Minute), tokens, audit)
	fx.svc.now = func() time.Time { return fx.now }
	return fx
}

func (fx *authFixture) login(username string, password string) (model.LoginResult, error) {
	return fx.svc.Login(context.Background(), model.LoginRequest{Username: username, Password: password}, "127.0.0.1")
}

func requireAPIError(t *testing.T, err error, status int, code string) *apierror.APIError {
	t.Helper()

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected *apierror.APIError, got %v", err)
	require.Equal(t, status, apiErr.Status())
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	doctor := fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)

	result, err := fx.login("doctor", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, model.RoleDoctor, result.User.Role)
	require.Equal(t, "doctor", result.User.Username)
	require.Equal(t, fx.now.Add(24*time.Hour), result.ExpiresAt)

	claims, err := fx.svc.VerifyToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, doctor.ID, claims.UserID)

	stored, err := fx.store.FindActiveByID(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	require.Equal(t, []string{model.AuditStatusSuccess}, fx.audit.statuses())
}

func TestLoginUnknownUserMatchesWrongPassword(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)
	fx.store.add(t, "retired", "password123", model.RoleNurse, false)

	_, wrongPassword := fx.login("doctor", "nope")
	_, unknown := fx.login("ghost", "password123")
	_, inactive := fx.login("retired", "password123")

	expected := requireAPIError(t, wrongPassword, 401, apierror.CodeInvalidCredentials)
	for _, err := range []error{unknown, inactive} {
		got := requireAPIError(t, err, 401, apierror.CodeInvalidCredentials)
		require.Equal(t, expected.Message, got.Message)
	}
}

func TestLoginLocksAfterFiveFailures(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	doctor := fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)

	for i := 1; i <= 5; i++ {
		_, err := fx.login("doctor", "wrong-password")
		requireAPIError(t, err, 401, apierror.CodeInvalidCredentials)
	}

	stored, err := fx.store.FindActiveByID(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.FailedLoginCount)
	require.NotNil(t, stored.LockedUntil)
	require.False(t, stored.LockedUntil.Before(fx.now.Add(30*time.Minute)))

	_, err = fx.login("doctor", "password123")
	requireAPIError(t, err, 403, apierror.CodeAccountLocked)

	stored, err = fx.store.FindActiveByID(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.FailedLoginCount, "locked attempts must not touch counters")
	require.Nil(t, stored.LastLogin)

	statuses := fx.audit.statuses()
	require.Len(t, statuses, 6)
	require.Equal(t, model.AuditStatusLocked, statuses[5])
}

func TestLoginSucceedsAfterLockExpires(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	doctor := fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)

	for i := 0; i < 5; i++ {
		_, _ = fx.login("doctor", "wrong-password")
	}

	fx.now = fx.now.Add(31 * time.Minute)

	_, err := fx.login("doctor", "password123")
	require.NoError(t, err)

	stored, err := fx.store.FindActiveByID(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedLoginCount)
	require.Nil(t, stored.LockedUntil)
}

func TestLoginSuccessResetsPartialFailures(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	doctor := fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)

	for i := 0; i < 3; i++ {
		_, _ = fx.login("doctor", "wrong-password")
	}

	_, err := fx.login("doctor", "password123")
	require.NoError(t, err)

	stored, err := fx.store.FindActiveByID(context.Background(), doctor.ID)
	require.NoError(t, err)
	require.Zero(t, stored.FailedLoginCount)
}

func TestLoginMatchesUsernameExactly(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	stored := fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)

	for _, username := range []string{"  doctor  ", "doctor ", "\tdoctor"} {
		_, err := fx.login(username, "password123")
		requireAPIError(t, err, 401, apierror.CodeInvalidCredentials)
	}

	require.Zero(t, stored.FailedLoginCount)

	_, err := fx.login("doctor", "password123")
	require.NoError(t, err)
}

func TestLoginValidation(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)

	_, err := fx.login("  ", "")
	apiErr := requireAPIError(t, err, 400, apierror.CodeValidation)
	require.Len(t, apiErr.Fields, 2)
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	fx.store.add(t, "doctor", "password123", model.RoleDoctor, true)
	fx.store.failErr = errors.New("connection reset")

	_, err := fx.login("doctor", "wrong-password")
	requireAPIError(t, err, 500, apierror.CodeInternal)
}

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)
	nurse := fx.store.add(t, "nurse", "password123", model.RoleNurse, true)

	result, err := fx.svc.CurrentUser(context.Background(), nurse.Claims())
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, model.RoleNurse, result.User.Role)

	_, err = fx.svc.CurrentUser(context.Background(), model.AuthClaims{UserID: 999, Username: "gone", Role: model.RoleNurse})
	requireAPIError(t, err, 401, apierror.CodeInvalidToken)
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	fx := newAuthFixture(t)

	user, err := fx.svc.CreateUser(context.Background(), "reception", "password123", "receptionist", nil, nil)
	require.NoError(t, err)
	require.Equal(t, model.RoleReceptionist, user.Role)
	require.True(t, strings.HasPrefix(user.PasswordHash, "$2"))

	_, err = fx.login("reception", "password123")
	require.NoError(t, err)

	_, err = fx.svc.CreateUser(context.Background(), "reception", "password123", "NURSE", nil, nil)
	requireAPIError(t, err, 400, apierror.CodeValidation)

	_, err = fx.svc.CreateUser(context.Background(), "x", "short", "SURGEON", nil, nil)
	apiErr := requireAPIError(t, err, 400, apierror.CodeValidation)
	require.Len(t, apiErr.Fields, 2)
}
