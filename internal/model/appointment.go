package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "Scheduled"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// Appointment is a patient-doctor booking. PatientName and DoctorName are
// snapshots taken when the appointment is created; they deliberately do not
// follow later changes to the referenced records.
type Appointment struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	UserID             uuid.UUID         `db:"user_id" json:"user_id"`
	DoctorID           uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientName        string            `db:"patient_name" json:"patient_name"`
	DoctorName         string            `db:"doctor_name" json:"doctor_name"`
	Age                int               `db:"age" json:"age"`
	Gender             string            `db:"gender" json:"gender"`
	ProblemDescription string            `db:"problem_description" json:"problem_description"`
	Date               string            `db:"date" json:"date"`
	Time               string            `db:"time" json:"time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`

	// Read-time enrichment, never persisted. Nil when the referenced record
	// no longer exists.
	User   *AppointmentUser   `db:"-" json:"user,omitempty"`
	Doctor *AppointmentDoctor `db:"-" json:"doctor,omitempty"`
}

// AppointmentUser is the projection of User fields inlined on reads.
type AppointmentUser struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

// AppointmentDoctor is the projection of Doctor fields inlined on reads.
type AppointmentDoctor struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

type ScheduleAppointmentRequest struct {
	UserID             string `json:"userId" binding:"required"`
	DoctorID           string `json:"doctorId" binding:"required"`
	Age                int    `json:"age" binding:"required,gt=0"`
	Gender             string `json:"gender" binding:"required"`
	ProblemDescription string `json:"problemDescription" binding:"required"`
	Date               string `json:"date" binding:"required"`
	Time               string `json:"time" binding:"required"`
}
