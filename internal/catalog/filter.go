// Package catalog filters, partitions and ranks the camp and urgent-request
// catalogs shown by the listing screens.
//
// Every function here treats its input slice as read-only and returns a new
// slice, so a catalog snapshot can be shared between concurrent requests.
package catalog

import (
	"strings"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// Criteria is the set of filter values selected on a listing screen.
// Empty fields impose no constraint.
type Criteria struct {
	City      string `json:"city,omitempty"`
	BloodType string `json:"blood_type,omitempty"`
	Search    string `json:"search,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	n := c.normalize()
	return n.City == "" && n.BloodType == "" && n.Search == ""
}

func (c Criteria) normalize() Criteria {
	return Criteria{
		City:      strings.TrimSpace(c.City),
		BloodType: strings.TrimSpace(c.BloodType),
		Search:    strings.TrimSpace(c.Search),
	}
}

// Predicate reports whether a record passes a filter.
type Predicate[T any] func(T) bool

// Filter returns the records for which keep is true, in catalog order.
// The input is never modified.
func Filter[T any](records []T, keep Predicate[T]) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// CampPredicate composes the criteria into a single camp predicate.
// City compares case-insensitively against Camp.City, blood type against
// Camp.BloodTypesNeeded, and the search text is a case-insensitive substring
// of the title or location.
func CampPredicate(c Criteria) Predicate[model.Camp] {
	c = c.normalize()
	query := strings.ToLower(c.Search)
	return func(camp model.Camp) bool {
		if c.City != "" && !strings.EqualFold(c.City, strings.TrimSpace(camp.City)) {
			return false
		}
		if c.BloodType != "" && !matchesCampBloodType(camp, c.BloodType) {
			return false
		}
		return containsAny(query, camp.Title, camp.Location)
	}
}

// RequestPredicate composes the criteria into a single urgent-request
// predicate. Search covers the hospital and location fields.
func RequestPredicate(c Criteria) Predicate[model.UrgentRequest] {
	c = c.normalize()
	query := strings.ToLower(c.Search)
	return func(req model.UrgentRequest) bool {
		if c.City != "" && !strings.EqualFold(c.City, req.CityName()) {
			return false
		}
		if c.BloodType != "" && string(req.BloodType) != c.BloodType {
			return false
		}
		return containsAny(query, req.Hospital, req.Location)
	}
}

func matchesCampBloodType(camp model.Camp, want string) bool {
	bt, err := model.ParseBloodType(want)
	if err != nil {
		return false
	}
	return camp.NeedsBloodType(bt)
}

// containsAny reports whether the lower-cased query occurs in any field.
// An empty query matches everything.
func containsAny(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
