//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"clinic-api/internal/app"
	"clinic-api/internal/config"
	"clinic-api/internal/database"
	"clinic-api/internal/model"
	"clinic-api/internal/repository"
)

const testPassword = "password123"

type testEnv struct {
	server *httptest.Server
	db     *database.DB
}

// newTestEnv connects to TEST_DATABASE_URL, ensures the schema and serves the
// full router. Tests skip when no database is configured.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	databaseURL := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, databaseURL, 5, 0)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))

	cfg := &config.Config{
		RequestTimeout:   10 * time.Second,
		JWTSecret:        "integration-secret",
		JWTExpiresIn:     time.Hour,
		BcryptCost:       bcrypt.MinCost,
		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,
		CORSOrigins:      []string{"http://localhost:5173"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
		MetricsEnabled:   true,
	}

	handler, err := app.NewRouter(cfg, db)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return testEnv{server: server, db: db}
}

// seedUser creates a staff member and a login with a unique username.
func (e testEnv) seedUser(t *testing.T, role model.Role) model.User {
	t.Helper()

	ctx := context.Background()
	users := repository.NewUserRepository(e.db)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	var created model.User
	err = e.db.WithTx(ctx, func(ctx context.Context) error {
		staffID, err := users.CreateStaff(ctx, "Test", strings.ToLower(string(role)), nil)
		if err != nil {
			return err
		}

		created, err = users.Create(ctx, model.NewUser{
			Username:     fmt.Sprintf("%s_%s", strings.ToLower(string(role)), uuid.NewString()[:8]),
			PasswordHash: string(hash),
			Role:         role,
			StaffID:      &staffID,
		})
		return err
	})
	require.NoError(t, err)

	return created
}

func (e testEnv) login(t *testing.T, username string) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{Username: username, Password: testPassword})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.LoginResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func (e testEnv) do(t *testing.T, method string, path string, token string, body any) *http.Response {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// decode reads a JSON body after asserting the status.
func decode[T any](t *testing.T, resp *http.Response, wantStatus int) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.Equal(t, wantStatus, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e testEnv) createPatient(t *testing.T, token string) model.Patient {
	t.Helper()

	phone := "03-1234-5678"
	kana := "TESUTO"
	return decode[model.Patient](t, e.do(t, http.MethodPost, "/api/patients", token, model.CreatePatientRequest{
		LastName:     "Tanaka",
		FirstName:    "Hanako",
		LastNameKana: &kana,
		BirthDate:    "1985-04-12",
		Gender:       "F",
		PhoneNumber:  &phone,
	}), http.StatusCreated)
}

func (e testEnv) createVisit(t *testing.T, token string, patientID int64) model.Visit {
	t.Helper()

	visitTime := "09:30"
	return decode[model.Visit](t, e.do(t, http.MethodPost, "/api/visits", token, model.CreateVisitRequest{
		PatientID: patientID,
		VisitDate: time.Now().Format("2006-01-02"),
		VisitTime: &visitTime,
	}), http.StatusCreated)
}
