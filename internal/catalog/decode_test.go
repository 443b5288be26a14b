package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/donorhub/internal/model"
)

func TestDecodeCamps(t *testing.T) {
	payload := `[
		{"id": 7, "title": "Rural Drive", "organizer": "Mission", "date": "May 29, 2025",
		 "time": "10:00 AM", "location": "Village Centre", "city": "Pune", "phone": "020-1"},
		{"id": "camp-x", "title": "Park Drive", "organizer": "NGO", "date": "2025-05-30",
		 "location": "Public Park", "city": "Mumbai", "bloodTypesNeeded": ["o-", "A+"]}
	]`

	got, err := DecodeCamps(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "7", got[0].ExternalID)
	assert.Equal(t, int64(7), got[0].Camp.ID)
	assert.Equal(t, "020-1", got[0].Camp.Phone)

	assert.Equal(t, "camp-x", got[1].ExternalID)
	assert.Zero(t, got[1].Camp.ID)
	assert.Empty(t, got[1].Camp.Phone)
	assert.Equal(t, []model.BloodType{model.ONeg, model.APos}, got[1].Camp.BloodTypesNeeded)
}

func TestDecodeCampsRejectsMissingRequiredFields(t *testing.T) {
	_, err := DecodeCamps(strings.NewReader(`[{"id": 1, "title": "No city", "organizer": "x", "date": "2025-05-01", "location": "y"}]`))
	require.ErrorIs(t, err, ErrMalformedCatalog)
	assert.Contains(t, err.Error(), "missing city")
}

func TestDecodeCampsRejectsGarbage(t *testing.T) {
	for _, payload := range []string{"", "{}", "not json", `[{"id": true}]`} {
		_, err := DecodeCamps(strings.NewReader(payload))
		assert.ErrorIs(t, err, ErrMalformedCatalog, payload)
	}
}

func TestDecodeCampsEmptyArray(t *testing.T) {
	got, err := DecodeCamps(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeRequests(t *testing.T) {
	payload := `[{"id": "3", "bloodType": "b+", "hospital": "Apollo", "location": "Delhi",
		"contactName": "Dr. Sharma", "contactNumber": "98765", "urgency": "Medium",
		"date": "2025-05-01T10:00:00Z"}]`

	got, err := DecodeRequests(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, model.BPos, got[0].BloodType)
	assert.Equal(t, model.UrgencyMedium, got[0].Urgency)
	assert.False(t, got[0].PostedAt.IsZero())
}

func TestDecodeRequestsRejectsUnknownUrgency(t *testing.T) {
	payload := `[{"bloodType": "A+", "hospital": "h", "location": "l", "contactNumber": "1", "urgency": "critical"}]`
	_, err := DecodeRequests(strings.NewReader(payload))
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestDecodeRequestsRejectsUnknownBloodType(t *testing.T) {
	payload := `[{"bloodType": "Z", "hospital": "h", "location": "l", "contactNumber": "1", "urgency": "low"}]`
	_, err := DecodeRequests(strings.NewReader(payload))
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}
