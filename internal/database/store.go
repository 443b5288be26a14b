// Package database provides storage backends for donorhub.
package database

import (
	"errors"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// Storage errors.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate entry")
)

// DefaultPollingInterval is the source polling interval in minutes used
// until an admin changes it.
const DefaultPollingInterval = 60

// MinPollingInterval is the lowest accepted polling interval in minutes.
const MinPollingInterval = 15

// Store defines the interface for database operations.
// Both SQLite and PostgreSQL implementations satisfy this interface.
type Store interface {
	Close() error

	// DatabaseType returns the name of the database backend ("SQLite" or "PostgreSQL").
	DatabaseType() string

	// SupportsHighConcurrency returns true if the database can handle
	// many concurrent write operations (e.g., PostgreSQL).
	// SQLite returns false due to write locking limitations.
	SupportsHighConcurrency() bool

	// Camp operations
	GetCamps() ([]model.Camp, error)
	GetCampByID(campID int64) (*model.Camp, error)
	CreateCamp(camp *model.Camp) (int64, error)
	UpdateCamp(camp *model.Camp) error
	DeleteCamp(campID int64) error
	AddImportedCamp(camp *model.Camp) (int64, bool, error)
	CountCamps() (int, error)

	// Urgent request operations
	GetUrgentRequests() ([]model.UrgentRequest, error)
	GetUrgentRequestByID(requestID int64) (*model.UrgentRequest, error)
	CreateUrgentRequest(req *model.UrgentRequest) (int64, error)
	UpdateUrgentRequest(req *model.UrgentRequest) error
	DeleteUrgentRequest(requestID int64) error
	CountUrgentRequests() (int, error)

	// Donor and appointment operations
	CreateDonor(donor *model.Donor) error
	GetDonorByEmail(email string) (*model.Donor, error)
	CreateAppointment(appt *model.Appointment) error
	GetAppointmentsByCamp(campID int64) ([]model.Appointment, error)
	GetAppointmentsByEmail(email string) ([]model.Appointment, error)

	// Source operations
	GetSources() ([]model.Source, error)
	GetSourceByID(sourceID int64) (*model.Source, error)
	GetOrCreateSource(title, url, kind string) (int64, bool, error)
	UpdateSourceFetched(sourceID int64, t time.Time) error
	UpdateSourceError(sourceID int64, errMsg string) error
	DeleteSource(sourceID int64) error

	// Settings operations
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	GetPollingInterval() (int, error)
}
