package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// ErrMalformedCatalog is returned when a catalog payload cannot be used.
var ErrMalformedCatalog = errors.New("malformed catalog")

// recordID accepts a JSON string or number.
type recordID string

func (id *recordID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = recordID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = recordID(n.String())
	return nil
}

// int64 returns the numeric form of the id, or 0 when it is not numeric.
func (id recordID) int64() int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

type campPayload struct {
	ID               recordID `json:"id"`
	Title            string   `json:"title"`
	Organizer        string   `json:"organizer"`
	Date             string   `json:"date"`
	Time             string   `json:"time"`
	Location         string   `json:"location"`
	City             string   `json:"city"`
	Phone            string   `json:"phone"`
	Description      string   `json:"description"`
	ImageURL         string   `json:"imageUrl"`
	BloodTypesNeeded []string `json:"bloodTypesNeeded"`
}

type requestPayload struct {
	ID            recordID `json:"id"`
	BloodType     string   `json:"bloodType"`
	Hospital      string   `json:"hospital"`
	Location      string   `json:"location"`
	City          string   `json:"city"`
	ContactName   string   `json:"contactName"`
	ContactNumber string   `json:"contactNumber"`
	Urgency       string   `json:"urgency"`
	PatientName   string   `json:"patientName"`
	Details       string   `json:"details"`
	Date          string   `json:"date"`
}

// DecodedCamp pairs a decoded camp with the identifier the source gave it.
type DecodedCamp struct {
	Camp       model.Camp
	ExternalID string
}

// DecodeCamps reads a JSON array of camps. Title, organizer, date, location
// and city are required; everything else is optional.
func DecodeCamps(r io.Reader) ([]DecodedCamp, error) {
	var payload []campPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode camps: %v", ErrMalformedCatalog, err)
	}
	out := make([]DecodedCamp, 0, len(payload))
	for i, p := range payload {
		if err := requireFields(map[string]string{
			"title":     p.Title,
			"organizer": p.Organizer,
			"date":      p.Date,
			"location":  p.Location,
			"city":      p.City,
		}); err != nil {
			return nil, fmt.Errorf("%w: camp at index %d: %v", ErrMalformedCatalog, i, err)
		}
		needed, err := parseBloodTypes(p.BloodTypesNeeded)
		if err != nil {
			return nil, fmt.Errorf("%w: camp at index %d: %v", ErrMalformedCatalog, i, err)
		}
		out = append(out, DecodedCamp{
			ExternalID: string(p.ID),
			Camp: model.Camp{
				ID:               p.ID.int64(),
				Title:            strings.TrimSpace(p.Title),
				Organizer:        strings.TrimSpace(p.Organizer),
				Date:             strings.TrimSpace(p.Date),
				Time:             strings.TrimSpace(p.Time),
				Location:         strings.TrimSpace(p.Location),
				City:             strings.TrimSpace(p.City),
				Phone:            p.Phone,
				Description:      p.Description,
				ImageURL:         p.ImageURL,
				BloodTypesNeeded: needed,
			},
		})
	}
	return out, nil
}

// DecodeRequests reads a JSON array of urgent requests. Blood type and
// urgency must belong to their closed sets.
func DecodeRequests(r io.Reader) ([]model.UrgentRequest, error) {
	var payload []requestPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode requests: %v", ErrMalformedCatalog, err)
	}
	out := make([]model.UrgentRequest, 0, len(payload))
	for i, p := range payload {
		if err := requireFields(map[string]string{
			"bloodType":     p.BloodType,
			"hospital":      p.Hospital,
			"location":      p.Location,
			"contactNumber": p.ContactNumber,
			"urgency":       p.Urgency,
		}); err != nil {
			return nil, fmt.Errorf("%w: request at index %d: %v", ErrMalformedCatalog, i, err)
		}
		bt, err := model.ParseBloodType(p.BloodType)
		if err != nil {
			return nil, fmt.Errorf("%w: request at index %d: %v", ErrMalformedCatalog, i, err)
		}
		urgency, err := model.ParseUrgency(p.Urgency)
		if err != nil {
			return nil, fmt.Errorf("%w: request at index %d: %v", ErrMalformedCatalog, i, err)
		}
		req := model.UrgentRequest{
			ID:            p.ID.int64(),
			BloodType:     bt,
			Hospital:      strings.TrimSpace(p.Hospital),
			Location:      strings.TrimSpace(p.Location),
			City:          strings.TrimSpace(p.City),
			ContactName:   strings.TrimSpace(p.ContactName),
			ContactNumber: strings.TrimSpace(p.ContactNumber),
			Urgency:       urgency,
			PatientName:   p.PatientName,
			Details:       p.Details,
		}
		if ts, err := time.Parse(time.RFC3339, p.Date); err == nil {
			req.PostedAt = ts
		}
		out = append(out, req)
	}
	return out, nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("missing %s", strings.Join(missing, ", "))
}

func parseBloodTypes(values []string) ([]model.BloodType, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]model.BloodType, 0, len(values))
	for _, v := range values {
		bt, err := model.ParseBloodType(v)
		if err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, nil
}
