package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/healthbook/healthbook-api/internal/model"
	"github.com/healthbook/healthbook-api/internal/repository"
	"github.com/healthbook/healthbook-api/internal/service/notification"
	"github.com/healthbook/healthbook-api/pkg/apperror"
	"github.com/healthbook/healthbook-api/pkg/logger"
	"github.com/healthbook/healthbook-api/pkg/metrics"
)

// Directory lookups back the read-time joins; referenced users and doctors
// change rarely, so a short TTL is enough to keep list calls cheap.
const (
	directoryCacheTTL     = time.Minute
	directoryCacheCleanup = 5 * time.Minute
)

// Service owns the appointment lifecycle: schedule, list, get, cancel.
type Service struct {
	repo       repository.AppointmentRepository
	userRepo   repository.UserRepository
	doctorRepo repository.DoctorRepository
	outboxRepo repository.OutboxRepository
	notifSvc   notification.Service
	metrics    *metrics.Metrics
	log        *logger.Logger
	directory  *gocache.Cache
}

func NewService(
	repo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorRepository,
	outboxRepo repository.OutboxRepository,
	notifSvc notification.Service,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		userRepo:   userRepo,
		doctorRepo: doctorRepo,
		outboxRepo: outboxRepo,
		notifSvc:   notifSvc,
		metrics:    m,
		log:        log,
		directory:  gocache.New(directoryCacheTTL, directoryCacheCleanup),
	}
}

// Schedule validates the request, resolves the referenced patient and doctor,
// persists a new appointment with their names snapshotted, and sends a
// confirmation email. The email is best-effort: a dispatch failure is logged
// and recorded, but the appointment stays created and the call succeeds.
func (s *Service) Schedule(ctx context.Context, req *model.ScheduleAppointmentRequest) (*model.Appointment, error) {
	if err := validateScheduleRequest(req); err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, apperror.Validation("invalid userId")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperror.Validation("invalid doctorId")
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, resolveLookupErr(err, "patient")
	}

	doctor, err := s.doctorRepo.Get(ctx, doctorID)
	if err != nil {
		return nil, resolveLookupErr(err, "doctor")
	}

	apt := &model.Appointment{
		ID:                 uuid.New(),
		UserID:             user.ID,
		DoctorID:           doctor.ID,
		PatientName:        user.Name,
		DoctorName:         doctor.Name,
		Age:                req.Age,
		Gender:             req.Gender,
		ProblemDescription: req.ProblemDescription,
		Date:               req.Date,
		Time:               req.Time,
		Status:             model.AppointmentStatusScheduled,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, apperror.Persistence(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsScheduled.Inc()
	}

	s.emitEvent(ctx, model.EventAppointmentCreated, apt)

	if err := s.notifSvc.SendAppointmentConfirmation(ctx, apt, user.Email, user.Name); err != nil {
		s.log.Warn(err, "confirmation email failed, appointment kept")
		if s.metrics != nil {
			s.metrics.NotificationsSent.WithLabelValues("failed").Inc()
		}
	} else if s.metrics != nil {
		s.metrics.NotificationsSent.WithLabelValues("sent").Inc()
	}

	apt.User = &model.AppointmentUser{Name: user.Name, Email: user.Email, Age: user.Age, Gender: user.Gender}
	apt.Doctor = &model.AppointmentDoctor{Name: doctor.Name, Specialization: doctor.Specialization}
	return apt, nil
}

// List returns all appointments, or only those of userID when given, each
// enriched with the referenced user and doctor projections.
func (s *Service) List(ctx context.Context, userID *uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	for _, apt := range appointments {
		s.enrich(ctx, apt)
	}
	return appointments, nil
}

// Get returns a single enriched appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, resolveLookupErr(err, "appointment")
	}

	s.enrich(ctx, apt)
	return apt, nil
}

// Cancel transitions the appointment to Cancelled. The transition is
// unconditional, which makes it idempotent: cancelling an already-cancelled
// appointment succeeds and leaves it unchanged.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.UpdateStatus(ctx, id, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, resolveLookupErr(err, "appointment")
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Inc()
	}

	s.emitEvent(ctx, model.EventAppointmentCancelled, apt)
	s.enrich(ctx, apt)
	return apt, nil
}

// enrich inlines referenced user and doctor fields. Referential integrity is
// only guaranteed at creation time; a since-deleted reference leaves the
// projection nil rather than failing the read.
func (s *Service) enrich(ctx context.Context, apt *model.Appointment) {
	if user := s.lookupUser(ctx, apt.UserID); user != nil {
		apt.User = &model.AppointmentUser{
			Name:   user.Name,
			Email:  user.Email,
			Age:    user.Age,
			Gender: user.Gender,
		}
	}
	if doctor := s.lookupDoctor(ctx, apt.DoctorID); doctor != nil {
		apt.Doctor = &model.AppointmentDoctor{
			Name:           doctor.Name,
			Specialization: doctor.Specialization,
		}
	}
}

func (s *Service) lookupUser(ctx context.Context, id uuid.UUID) *model.User {
	key := "user:" + id.String()
	if cached, ok := s.directory.Get(key); ok {
		return cached.(*model.User)
	}

	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		return nil
	}
	s.directory.SetDefault(key, user)
	return user
}

func (s *Service) lookupDoctor(ctx context.Context, id uuid.UUID) *model.Doctor {
	key := "doctor:" + id.String()
	if cached, ok := s.directory.Get(key); ok {
		return cached.(*model.Doctor)
	}

	doctor, err := s.doctorRepo.Get(ctx, id)
	if err != nil {
		return nil
	}
	s.directory.SetDefault(key, doctor)
	return doctor
}

// emitEvent stages a domain event for the outbox worker. Event staging never
// fails the operation that produced it.
func (s *Service) emitEvent(ctx context.Context, eventType string, apt *model.Appointment) {
	payload, err := json.Marshal(apt)
	if err != nil {
		s.log.Error(err, "failed to marshal outbox payload")
		return
	}

	event := &model.OutboxEvent{EventType: eventType, Payload: payload}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.log.Error(err, "failed to stage outbox event")
	}
}

func validateScheduleRequest(req *model.ScheduleAppointmentRequest) error {
	if req.UserID == "" || req.DoctorID == "" || req.Age == 0 || req.Gender == "" ||
		req.ProblemDescription == "" || req.Date == "" || req.Time == "" {
		return apperror.Validation("all fields are required")
	}
	return nil
}

// resolveLookupErr classifies a read failure. Only a missing row is the
// caller's fault; anything else is an infrastructure fault, not a rejected
// write, so it surfaces as a server error.
func resolveLookupErr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(resource)
	}
	return apperror.Internal(err)
}
