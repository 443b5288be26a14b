// Package relay forwards scheduled donation appointments to the external
// form endpoint that notifies camp organizers.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bryan-buckman/donorhub/internal/model"
)

// Relay errors. Both are safe to retry by resubmitting the form.
var (
	ErrRejected    = errors.New("relay rejected submission")
	ErrUnreachable = errors.New("relay unreachable")
)

// DonorInfo is the donor half of a submission.
type DonorInfo struct {
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	BloodGroup    string    `json:"bloodGroup"`
	PreferredTime time.Time `json:"preferredTime"`
	MedicalInfo   string    `json:"medicalInfo,omitempty"`
	AgreeToTerms  bool      `json:"agreeToTerms"`
}

// Submission is the body posted to the form endpoint.
type Submission struct {
	CampDetails model.Camp `json:"campDetails"`
	DonorInfo   DonorInfo  `json:"donorInfo"`
	Message     string     `json:"message"`
}

// NewSubmission builds the submission for an appointment at camp.
func NewSubmission(camp model.Camp, appt model.Appointment) Submission {
	return Submission{
		CampDetails: camp,
		DonorInfo: DonorInfo{
			FirstName:     appt.FirstName,
			LastName:      appt.LastName,
			Email:         appt.Email,
			Phone:         appt.Phone,
			BloodGroup:    string(appt.BloodGroup),
			PreferredTime: appt.PreferredTime,
			MedicalInfo:   appt.MedicalInfo,
			AgreeToTerms:  true,
		},
		Message: fmt.Sprintf("New donation appointment for %s", camp.Title),
	}
}

// Client posts submissions. It makes exactly one attempt per call.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client for the endpoint at url. An empty url yields
// a disabled client.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Submit posts s to the endpoint. Any non-2xx answer is ErrRejected.
func (c *Client) Submit(ctx context.Context, s Submission) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	log.Debug().
		Str("camp", s.CampDetails.Title).
		Int("status", resp.StatusCode).
		Msg("Appointment relayed")
	return nil
}
