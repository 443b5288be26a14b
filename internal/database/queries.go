package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// sqlStore holds the queries shared by the SQLite and PostgreSQL backends.
// Queries are written with ? placeholders and rebound for PostgreSQL.
type sqlStore struct {
	conn     *sql.DB
	postgres bool
}

// rebind rewrites ? placeholders to $n when talking to PostgreSQL.
func (s *sqlStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) exec(query string, args ...any) (sql.Result, error) {
	return s.conn.Exec(s.rebind(query), args...)
}

func (s *sqlStore) query(query string, args ...any) (*sql.Rows, error) {
	return s.conn.Query(s.rebind(query), args...)
}

func (s *sqlStore) queryRow(query string, args ...any) *sql.Row {
	return s.conn.QueryRow(s.rebind(query), args...)
}

// insert runs an INSERT and returns the new row id. It reports false when
// an ON CONFLICT DO NOTHING clause skipped the row.
func (s *sqlStore) insert(query string, args ...any) (int64, bool, error) {
	if s.postgres {
		var id int64
		err := s.queryRow(query+" RETURNING id", args...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	}
	res, err := s.exec(query, args...)
	if err != nil {
		return 0, false, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	return id, true, err
}

// mustAffect turns a zero-row UPDATE or DELETE into ErrNotFound.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func joinBloodTypes(types []model.BloodType) string {
	parts := make([]string, len(types))
	for i, bt := range types {
		parts[i] = string(bt)
	}
	return strings.Join(parts, ",")
}

func splitBloodTypes(s string) []model.BloodType {
	if s == "" {
		return nil
	}
	var out []model.BloodType
	for _, part := range strings.Split(s, ",") {
		if bt, err := model.ParseBloodType(part); err == nil {
			out = append(out, bt)
		}
	}
	return out
}

// --- Camp Methods ---

const campColumns = "id, title, organizer, date, time, location, city, phone, description, image_url, blood_types, source_id, guid"

func scanCamp(scan func(dest ...any) error) (model.Camp, error) {
	var c model.Camp
	var bloodTypes string
	var guid sql.NullString
	err := scan(&c.ID, &c.Title, &c.Organizer, &c.Date, &c.Time, &c.Location, &c.City,
		&c.Phone, &c.Description, &c.ImageURL, &bloodTypes, &c.SourceID, &guid)
	if err != nil {
		return c, err
	}
	c.BloodTypesNeeded = splitBloodTypes(bloodTypes)
	c.GUID = guid.String
	return c, nil
}

// GetCamps returns every camp in catalog (insertion) order.
func (s *sqlStore) GetCamps() ([]model.Camp, error) {
	rows, err := s.query("SELECT " + campColumns + " FROM camps ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	camps := []model.Camp{}
	for rows.Next() {
		c, err := scanCamp(rows.Scan)
		if err != nil {
			return nil, err
		}
		camps = append(camps, c)
	}
	return camps, rows.Err()
}

// GetCampByID returns a single camp.
func (s *sqlStore) GetCampByID(campID int64) (*model.Camp, error) {
	c, err := scanCamp(s.queryRow("SELECT "+campColumns+" FROM camps WHERE id = ?", campID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("camp %d: %w", campID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCamp adds a camp entered by an admin. Returns the ID.
func (s *sqlStore) CreateCamp(c *model.Camp) (int64, error) {
	id, _, err := s.insert(`
		INSERT INTO camps (title, organizer, date, time, location, city, phone, description, image_url, blood_types)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.Organizer, c.Date, c.Time, c.Location, c.City, c.Phone, c.Description, c.ImageURL,
		joinBloodTypes(c.BloodTypesNeeded))
	return id, err
}

// UpdateCamp overwrites the editable fields of a camp.
func (s *sqlStore) UpdateCamp(c *model.Camp) error {
	return mustAffect(s.exec(`
		UPDATE camps SET title = ?, organizer = ?, date = ?, time = ?, location = ?, city = ?,
			phone = ?, description = ?, image_url = ?, blood_types = ?
		WHERE id = ?`,
		c.Title, c.Organizer, c.Date, c.Time, c.Location, c.City, c.Phone, c.Description, c.ImageURL,
		joinBloodTypes(c.BloodTypesNeeded), c.ID))
}

// DeleteCamp removes a camp and its appointments.
func (s *sqlStore) DeleteCamp(campID int64) error {
	if _, err := s.exec("DELETE FROM appointments WHERE camp_id = ?", campID); err != nil {
		return err
	}
	return mustAffect(s.exec("DELETE FROM camps WHERE id = ?", campID))
}

// AddImportedCamp inserts a camp read from a source if its GUID is new for
// that source. Returns ID and whether it was new.
func (s *sqlStore) AddImportedCamp(c *model.Camp) (int64, bool, error) {
	return s.insert(`
		INSERT INTO camps (title, organizer, date, time, location, city, phone, description, image_url, blood_types, source_id, guid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, guid) DO NOTHING`,
		c.Title, c.Organizer, c.Date, c.Time, c.Location, c.City, c.Phone, c.Description, c.ImageURL,
		joinBloodTypes(c.BloodTypesNeeded), c.SourceID, nullString(c.GUID))
}

// CountCamps returns the number of camps.
func (s *sqlStore) CountCamps() (int, error) {
	var n int
	err := s.queryRow("SELECT COUNT(*) FROM camps").Scan(&n)
	return n, err
}

// --- Urgent Request Methods ---

const requestColumns = "id, blood_type, hospital, location, city, contact_name, contact_number, urgency, patient_name, details, posted_at"

func scanRequest(scan func(dest ...any) error) (model.UrgentRequest, error) {
	var r model.UrgentRequest
	var postedAt sql.NullTime
	err := scan(&r.ID, &r.BloodType, &r.Hospital, &r.Location, &r.City, &r.ContactName,
		&r.ContactNumber, &r.Urgency, &r.PatientName, &r.Details, &postedAt)
	if err != nil {
		return r, err
	}
	if postedAt.Valid {
		r.PostedAt = postedAt.Time
	}
	return r, nil
}

// GetUrgentRequests returns every urgent request in posting order.
func (s *sqlStore) GetUrgentRequests() ([]model.UrgentRequest, error) {
	rows, err := s.query("SELECT " + requestColumns + " FROM urgent_requests ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := []model.UrgentRequest{}
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

// GetUrgentRequestByID returns a single urgent request.
func (s *sqlStore) GetUrgentRequestByID(requestID int64) (*model.UrgentRequest, error) {
	r, err := scanRequest(s.queryRow("SELECT "+requestColumns+" FROM urgent_requests WHERE id = ?", requestID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("urgent request %d: %w", requestID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateUrgentRequest posts a new urgent request. Returns the ID.
func (s *sqlStore) CreateUrgentRequest(r *model.UrgentRequest) (int64, error) {
	if r.PostedAt.IsZero() {
		r.PostedAt = time.Now().UTC()
	}
	id, _, err := s.insert(`
		INSERT INTO urgent_requests (blood_type, hospital, location, city, contact_name, contact_number, urgency, patient_name, details, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.BloodType), r.Hospital, r.Location, r.City, r.ContactName, r.ContactNumber,
		string(r.Urgency), r.PatientName, r.Details, r.PostedAt)
	return id, err
}

// UpdateUrgentRequest overwrites an urgent request and stamps a new posting time.
func (s *sqlStore) UpdateUrgentRequest(r *model.UrgentRequest) error {
	r.PostedAt = time.Now().UTC()
	return mustAffect(s.exec(`
		UPDATE urgent_requests SET blood_type = ?, hospital = ?, location = ?, city = ?, contact_name = ?,
			contact_number = ?, urgency = ?, patient_name = ?, details = ?, posted_at = ?
		WHERE id = ?`,
		string(r.BloodType), r.Hospital, r.Location, r.City, r.ContactName, r.ContactNumber,
		string(r.Urgency), r.PatientName, r.Details, r.PostedAt, r.ID))
}

// DeleteUrgentRequest removes an urgent request.
func (s *sqlStore) DeleteUrgentRequest(requestID int64) error {
	return mustAffect(s.exec("DELETE FROM urgent_requests WHERE id = ?", requestID))
}

// CountUrgentRequests returns the number of urgent requests.
func (s *sqlStore) CountUrgentRequests() (int, error) {
	var n int
	err := s.queryRow("SELECT COUNT(*) FROM urgent_requests").Scan(&n)
	return n, err
}

// --- Donor Methods ---

// CreateDonor registers a donor. Emails are unique; a second registration
// for the same address reports ErrDuplicate.
func (s *sqlStore) CreateDonor(d *model.Donor) error {
	_, err := s.exec(`
		INSERT INTO donors (id, first_name, last_name, email, phone, blood_group, city, last_donation_date, medical_conditions, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FirstName, d.LastName, strings.ToLower(d.Email), d.Phone, string(d.BloodGroup), d.City,
		d.LastDonationDate, d.MedicalConditions, d.Address, d.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("donor %s: %w", d.Email, ErrDuplicate)
	}
	return err
}

// GetDonorByEmail looks a donor up by email, ignoring case.
func (s *sqlStore) GetDonorByEmail(email string) (*model.Donor, error) {
	var d model.Donor
	var lastDonation, createdAt sql.NullTime
	err := s.queryRow(`
		SELECT id, first_name, last_name, email, phone, blood_group, city, last_donation_date, medical_conditions, address, created_at
		FROM donors WHERE email = ?`, strings.ToLower(email)).
		Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.BloodGroup, &d.City,
			&lastDonation, &d.MedicalConditions, &d.Address, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("donor %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if lastDonation.Valid {
		t := lastDonation.Time
		d.LastDonationDate = &t
	}
	if createdAt.Valid {
		d.CreatedAt = createdAt.Time
	}
	return &d, nil
}

// --- Appointment Methods ---

// CreateAppointment records a scheduled donation.
func (s *sqlStore) CreateAppointment(a *model.Appointment) error {
	_, err := s.exec(`
		INSERT INTO appointments (id, camp_id, first_name, last_name, email, phone, blood_group, preferred_time, medical_info, relayed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CampID, a.FirstName, a.LastName, strings.ToLower(a.Email), a.Phone, string(a.BloodGroup),
		a.PreferredTime, a.MedicalInfo, a.Relayed, a.CreatedAt)
	return err
}

const appointmentColumns = "id, camp_id, first_name, last_name, email, phone, blood_group, preferred_time, medical_info, relayed, created_at"

func (s *sqlStore) queryAppointments(query string, args ...any) ([]model.Appointment, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	appts := []model.Appointment{}
	for rows.Next() {
		var a model.Appointment
		var preferred, created sql.NullTime
		if err := rows.Scan(&a.ID, &a.CampID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.BloodGroup,
			&preferred, &a.MedicalInfo, &a.Relayed, &created); err != nil {
			return nil, err
		}
		if preferred.Valid {
			a.PreferredTime = preferred.Time
		}
		if created.Valid {
			a.CreatedAt = created.Time
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// GetAppointmentsByCamp returns a camp's appointments by preferred time.
func (s *sqlStore) GetAppointmentsByCamp(campID int64) ([]model.Appointment, error) {
	return s.queryAppointments("SELECT "+appointmentColumns+" FROM appointments WHERE camp_id = ? ORDER BY preferred_time", campID)
}

// GetAppointmentsByEmail returns every appointment booked under email,
// ignoring case, by preferred time.
func (s *sqlStore) GetAppointmentsByEmail(email string) ([]model.Appointment, error) {
	return s.queryAppointments("SELECT "+appointmentColumns+" FROM appointments WHERE email = ? ORDER BY preferred_time",
		strings.ToLower(strings.TrimSpace(email)))
}

// --- Source Methods ---

const sourceColumns = "id, title, url, kind, last_fetched, last_error"

func scanSource(scan func(dest ...any) error) (model.Source, error) {
	var src model.Source
	var lastFetched sql.NullTime
	if err := scan(&src.ID, &src.Title, &src.URL, &src.Kind, &lastFetched, &src.LastError); err != nil {
		return src, err
	}
	if lastFetched.Valid {
		src.LastFetched = lastFetched.Time
	}
	return src, nil
}

// GetSources returns all sources ordered by title.
func (s *sqlStore) GetSources() ([]model.Source, error) {
	rows, err := s.query("SELECT " + sourceColumns + " FROM sources ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sources := []model.Source{}
	for rows.Next() {
		src, err := scanSource(rows.Scan)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetSourceByID returns a single source.
func (s *sqlStore) GetSourceByID(sourceID int64) (*model.Source, error) {
	src, err := scanSource(s.queryRow("SELECT "+sourceColumns+" FROM sources WHERE id = ?", sourceID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("source %d: %w", sourceID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// GetOrCreateSource finds a source by URL, or creates it.
func (s *sqlStore) GetOrCreateSource(title, url, kind string) (int64, bool, error) {
	var id int64
	err := s.queryRow("SELECT id FROM sources WHERE url = ?", url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		id, _, err := s.insert("INSERT INTO sources (title, url, kind) VALUES (?, ?, ?)", title, url, kind)
		return id, true, err
	}
	return id, false, err
}

// UpdateSourceFetched records a successful fetch and clears any previous error.
func (s *sqlStore) UpdateSourceFetched(sourceID int64, t time.Time) error {
	_, err := s.exec("UPDATE sources SET last_fetched = ?, last_error = '' WHERE id = ?", t, sourceID)
	return err
}

// UpdateSourceError records the last fetch error for display.
func (s *sqlStore) UpdateSourceError(sourceID int64, errMsg string) error {
	_, err := s.exec("UPDATE sources SET last_error = ? WHERE id = ?", errMsg, sourceID)
	return err
}

// DeleteSource removes a source. Camps it imported stay in the catalog.
func (s *sqlStore) DeleteSource(sourceID int64) error {
	if _, err := s.exec("UPDATE camps SET source_id = NULL, guid = NULL WHERE source_id = ?", sourceID); err != nil {
		return err
	}
	return mustAffect(s.exec("DELETE FROM sources WHERE id = ?", sourceID))
}

// --- Settings Methods ---

// GetSetting retrieves a setting value.
func (s *sqlStore) GetSetting(key string) (string, error) {
	var val string
	err := s.queryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %s: %w", key, ErrNotFound)
	}
	return val, err
}

// SetSetting saves a setting.
func (s *sqlStore) SetSetting(key, value string) error {
	_, err := s.exec("INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value)
	return err
}

// GetPollingInterval returns the polling interval in minutes, never below
// MinPollingInterval.
func (s *sqlStore) GetPollingInterval() (int, error) {
	val, err := s.GetSetting(model.SettingPollingInterval)
	if err != nil {
		return DefaultPollingInterval, nil // default
	}
	mins, err := strconv.Atoi(val)
	if err != nil {
		return DefaultPollingInterval, nil
	}
	if mins < MinPollingInterval {
		mins = MinPollingInterval
	}
	return mins, nil
}
