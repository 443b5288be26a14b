package database

import (
	"fmt"

	"github.com/bryan-buckman/donorhub/internal/catalog"
)

// SeedResult reports how many records SeedIfEmpty inserted.
type SeedResult struct {
	Camps    int
	Requests int
}

// SeedIfEmpty loads the sample catalog into empty tables. Tables that
// already hold records are left alone.
func SeedIfEmpty(s Store) (SeedResult, error) {
	var res SeedResult

	n, err := s.CountCamps()
	if err != nil {
		return res, fmt.Errorf("count camps: %w", err)
	}
	if n == 0 {
		for _, c := range catalog.SampleCamps() {
			if _, err := s.CreateCamp(&c); err != nil {
				return res, fmt.Errorf("seed camp %q: %w", c.Title, err)
			}
			res.Camps++
		}
	}

	n, err = s.CountUrgentRequests()
	if err != nil {
		return res, fmt.Errorf("count urgent requests: %w", err)
	}
	if n == 0 {
		for _, r := range catalog.SampleRequests() {
			if _, err := s.CreateUrgentRequest(&r); err != nil {
				return res, fmt.Errorf("seed urgent request %q: %w", r.Hospital, err)
			}
			res.Requests++
		}
	}
	return res, nil
}
