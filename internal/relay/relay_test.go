package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/donorhub/internal/model"
)

func submission() Submission {
	camp := model.Camp{ID: 2, Title: "Community Health Center Drive", City: "Mumbai"}
	appt := model.Appointment{FirstName: "Ravi", Email: "ravi@example.org", BloodGroup: model.ONeg}
	return NewSubmission(camp, appt)
}

func TestSubmitPostsJSON(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	require.True(t, c.Enabled())
	require.NoError(t, c.Submit(context.Background(), submission()))

	assert.Equal(t, "New donation appointment for Community Health Center Drive", got["message"])
	donor := got["donorInfo"].(map[string]any)
	assert.Equal(t, "O-", donor["bloodGroup"])
	camp := got["campDetails"].(map[string]any)
	assert.Equal(t, "Mumbai", camp["city"])
}

func TestSubmitRejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Submit(context.Background(), submission())
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url, time.Second).Submit(context.Background(), submission())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestDisabledClient(t *testing.T) {
	assert.False(t, NewClient("", time.Second).Enabled())
	var c *Client
	assert.False(t, c.Enabled())
}
