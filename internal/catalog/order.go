package catalog

import (
	"slices"
	"time"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// Partition splits camps around the current day.
type Partition struct {
	Upcoming []model.Camp `json:"upcoming"`
	Past     []model.Camp `json:"past"`
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type datedCamp struct {
	camp  model.Camp
	day   time.Time
	dated bool
}

// PartitionCamps splits camps into upcoming (dated today or later, soonest
// first) and past (before today, most recent first). Camps whose date cannot
// be parsed are past and sort after every dated camp. Equal days keep their
// catalog order.
func PartitionCamps(camps []model.Camp, now time.Time) Partition {
	today := StartOfDay(now)
	loc := now.Location()

	var upcoming, past []datedCamp
	for _, c := range camps {
		day, ok := c.Day(loc)
		dc := datedCamp{camp: c, day: day, dated: ok}
		if ok && !day.Before(today) {
			upcoming = append(upcoming, dc)
		} else {
			past = append(past, dc)
		}
	}

	slices.SortStableFunc(upcoming, func(a, b datedCamp) int {
		return a.day.Compare(b.day)
	})
	slices.SortStableFunc(past, func(a, b datedCamp) int {
		switch {
		case a.dated && !b.dated:
			return -1
		case !a.dated && b.dated:
			return 1
		case !a.dated && !b.dated:
			return 0
		}
		return b.day.Compare(a.day)
	})

	return Partition{
		Upcoming: unwrap(upcoming),
		Past:     unwrap(past),
	}
}

func unwrap(dcs []datedCamp) []model.Camp {
	out := make([]model.Camp, len(dcs))
	for i, dc := range dcs {
		out[i] = dc.camp
	}
	return out
}

// RankByUrgency returns a copy of requests ordered high, medium, low.
// Requests of equal urgency keep their relative order.
func RankByUrgency(requests []model.UrgentRequest) []model.UrgentRequest {
	out := slices.Clone(requests)
	if out == nil {
		out = []model.UrgentRequest{}
	}
	slices.SortStableFunc(out, func(a, b model.UrgentRequest) int {
		return a.Urgency.Rank() - b.Urgency.Rank()
	})
	return out
}

// CampCities returns the distinct camp cities, sorted.
func CampCities(camps []model.Camp) []string {
	cities := make([]string, 0, len(camps))
	for _, c := range camps {
		cities = append(cities, c.City)
	}
	return distinctSorted(cities)
}

// RequestCities returns the distinct urgent-request cities, sorted.
func RequestCities(requests []model.UrgentRequest) []string {
	cities := make([]string, 0, len(requests))
	for _, r := range requests {
		cities = append(cities, r.CityName())
	}
	return distinctSorted(cities)
}

func distinctSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
