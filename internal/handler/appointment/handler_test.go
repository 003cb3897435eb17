package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
	appointmentService "github.com/healthbook/healthbook-api/internal/service/appointment"
	"github.com/healthbook/healthbook-api/pkg/logger"
)

type memAppointmentRepo struct {
	byID map[uuid.UUID]*model.Appointment
}

func (r *memAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	cp := *apt
	r.byID[apt.ID] = &cp
	return nil
}

func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (r *memAppointmentRepo) List(_ context.Context, userID *uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.byID {
		if userID != nil && apt.UserID != *userID {
			continue
		}
		cp := *apt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	apt, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apt.Status = status
	cp := *apt
	return &cp, nil
}

type memUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error { r.users[u.ID] = u; return nil }
func (r *memUserRepo) Update(_ context.Context, u *model.User) error { r.users[u.ID] = u; return nil }

func (r *memUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memDoctorRepo struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (r *memDoctorRepo) Create(_ context.Context, d *model.Doctor) error {
	r.doctors[d.ID] = d
	return nil
}

func (r *memDoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

func (r *memDoctorRepo) List(_ context.Context) ([]*model.Doctor, error) {
	var out []*model.Doctor
	for _, d := range r.doctors {
		out = append(out, d)
	}
	return out, nil
}

type memOutboxRepo struct{}

func (memOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }
func (memOutboxRepo) GetPendingEvents(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (memOutboxRepo) MarkProcessed(_ context.Context, _ uuid.UUID) error        { return nil }
func (memOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string) error { return nil }

type noopNotifier struct{}

func (noopNotifier) SendAppointmentConfirmation(_ context.Context, _ *model.Appointment, _, _ string) error {
	return nil
}
func (noopNotifier) SendPasswordReset(_ context.Context, _, _ string) error { return nil }

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupRouter(t *testing.T) (*gin.Engine, uuid.UUID, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	doctorID := uuid.New()

	svc := appointmentService.NewService(
		&memAppointmentRepo{byID: make(map[uuid.UUID]*model.Appointment)},
		&memUserRepo{users: map[uuid.UUID]*model.User{
			userID: {ID: userID, Name: "Asha Rao", Email: "asha@example.com", Age: 30, Gender: "F"},
		}},
		&memDoctorRepo{doctors: map[uuid.UUID]*model.Doctor{
			doctorID: {ID: doctorID, Name: "Dr. Mehta", Specialization: "Cardiology"},
		}},
		memOutboxRepo{},
		noopNotifier{},
		nil,
		logger.New(logger.Config{Output: io.Discard}),
	)

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, userID, doctorID
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func scheduleBody(userID, doctorID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"userId":             userID.String(),
		"doctorId":           doctorID.String(),
		"age":                30,
		"gender":             "F",
		"problemDescription": "chest pain",
		"date":               "2024-05-01",
		"time":               "10:00",
	}
}

func TestScheduleEndpoint(t *testing.T) {
	r, userID, doctorID := setupRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/appointments", scheduleBody(userID, doctorID))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", env.Status)

	var apt model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &apt))
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, "Asha Rao", apt.PatientName)
	assert.Equal(t, "Dr. Mehta", apt.DoctorName)
	require.NotNil(t, apt.User)
	assert.Equal(t, "asha@example.com", apt.User.Email)
}

func TestScheduleEndpointMissingField(t *testing.T) {
	r, userID, doctorID := setupRouter(t)

	body := scheduleBody(userID, doctorID)
	delete(body, "problemDescription")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/appointments", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "all fields are required", env.Message)
}

func TestScheduleEndpointUnknownPatient(t *testing.T) {
	r, _, doctorID := setupRouter(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/appointments", scheduleBody(uuid.New(), doctorID))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, env.Message, "patient")
}

func TestListEndpointFiltersByUser(t *testing.T) {
	r, userID, doctorID := setupRouter(t)

	_, _ = doJSON(t, r, http.MethodPost, "/api/v1/appointments", scheduleBody(userID, doctorID))

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/appointments?userId="+userID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var appointments []*model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &appointments))
	require.Len(t, appointments, 1)
	assert.Equal(t, userID, appointments[0].UserID)

	// Filtering on a user with no appointments yields an empty array, not null.
	w, env = doJSON(t, r, http.MethodGet, "/api/v1/appointments?userId="+uuid.NewString(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))
}

func TestListEndpointRejectsBadUserID(t *testing.T) {
	r, _, _ := setupRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/appointments?userId=not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid userId", env.Message)
}

func TestGetEndpointNotFound(t *testing.T) {
	r, _, _ := setupRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", env.Status)

	// A malformed id is indistinguishable from a missing appointment.
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/appointments/garbage", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	r, userID, doctorID := setupRouter(t)

	_, env := doJSON(t, r, http.MethodPost, "/api/v1/appointments", scheduleBody(userID, doctorID))
	var apt model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &apt))

	cancelPath := fmt.Sprintf("/api/v1/appointments/%s/cancel", apt.ID)

	w, env := doJSON(t, r, http.MethodPatch, cancelPath, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cancelled model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &cancelled))
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	// Second cancel succeeds with the same result.
	w, _ = doJSON(t, r, http.MethodPatch, cancelPath, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelEndpointNotFound(t *testing.T) {
	r, _, _ := setupRouter(t)

	w, _ := doJSON(t, r, http.MethodPatch, "/api/v1/appointments/"+uuid.NewString()+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
