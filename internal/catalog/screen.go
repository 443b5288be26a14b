package catalog

import (
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// CampListing is what the camps screen renders.
type CampListing struct {
	Criteria Criteria     `json:"criteria"`
	Upcoming []model.Camp `json:"upcoming"`
	Past     []model.Camp `json:"past"`
	Count    int          `json:"count"`
	Total    int          `json:"total"`
}

// RequestListing is what the urgent-requests screen renders.
type RequestListing struct {
	Criteria Criteria              `json:"criteria"`
	Requests []model.UrgentRequest `json:"requests"`
	Count    int                   `json:"count"`
	Total    int                   `json:"total"`
}

// ListCamps filters camps by c and partitions the result around now.
func ListCamps(camps []model.Camp, c Criteria, now time.Time) CampListing {
	filtered := Filter(camps, CampPredicate(c))
	p := PartitionCamps(filtered, now)
	return CampListing{
		Criteria: c.normalize(),
		Upcoming: p.Upcoming,
		Past:     p.Past,
		Count:    len(filtered),
		Total:    len(camps),
	}
}

// ListRequests filters requests by c and ranks the result by urgency.
func ListRequests(requests []model.UrgentRequest, c Criteria) RequestListing {
	filtered := Filter(requests, RequestPredicate(c))
	return RequestListing{
		Criteria: c.normalize(),
		Requests: RankByUrgency(filtered),
		Count:    len(filtered),
		Total:    len(requests),
	}
}

// CampScreen holds a camp catalog snapshot and the criteria currently
// selected for it.
type CampScreen struct {
	catalog  []model.Camp
	criteria Criteria
	now      func() time.Time
}

// NewCampScreen creates a screen over catalog. now defaults to time.Now.
func NewCampScreen(catalog []model.Camp, now func() time.Time) *CampScreen {
	if now == nil {
		now = time.Now
	}
	return &CampScreen{catalog: catalog, now: now}
}

// Apply replaces the selected criteria.
func (s *CampScreen) Apply(c Criteria) { s.criteria = c.normalize() }

// Reset clears every criterion.
func (s *CampScreen) Reset() { s.criteria = Criteria{} }

// Criteria returns the selected criteria.
func (s *CampScreen) Criteria() Criteria { return s.criteria }

// Listing computes the current result.
func (s *CampScreen) Listing() CampListing {
	return ListCamps(s.catalog, s.criteria, s.now())
}

// RequestScreen holds an urgent-request catalog snapshot and the criteria
// currently selected for it.
type RequestScreen struct {
	catalog  []model.UrgentRequest
	criteria Criteria
}

// NewRequestScreen creates a screen over catalog.
func NewRequestScreen(catalog []model.UrgentRequest) *RequestScreen {
	return &RequestScreen{catalog: catalog}
}

// Apply replaces the selected criteria.
func (s *RequestScreen) Apply(c Criteria) { s.criteria = c.normalize() }

// Reset clears every criterion.
func (s *RequestScreen) Reset() { s.criteria = Criteria{} }

// Criteria returns the selected criteria.
func (s *RequestScreen) Criteria() Criteria { return s.criteria }

// Listing computes the current result.
func (s *RequestScreen) Listing() RequestListing {
	return ListRequests(s.catalog, s.criteria)
}
