package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBloodType(t *testing.T) {
	tests := []struct {
		in      string
		want    BloodType
		wantErr bool
	}{
		{in: "A+", want: APos},
		{in: " ab- ", want: ABNeg},
		{in: "o+", want: OPos},
		{in: "C+", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBloodType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBloodType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUrgency(t *testing.T) {
	u, err := ParseUrgency("HIGH")
	require.NoError(t, err)
	assert.Equal(t, UrgencyHigh, u)

	_, err = ParseUrgency("critical")
	assert.ErrorIs(t, err, ErrUnknownUrgency)
}

func TestUrgencyRank(t *testing.T) {
	assert.Less(t, UrgencyHigh.Rank(), UrgencyMedium.Rank())
	assert.Less(t, UrgencyMedium.Rank(), UrgencyLow.Rank())
}

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	want := time.Date(2025, time.May, 15, 0, 0, 0, 0, loc)

	for _, in := range []string{"2025-05-15", "May 15, 2025", "15 May 2025", "15/05/2025", "2025-05-15T18:00:00+05:30"} {
		got, ok := ParseDay(in, loc)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed to %s", in, got)
	}

	_, ok := ParseDay("next tuesday", loc)
	assert.False(t, ok)
	_, ok = ParseDay("", loc)
	assert.False(t, ok)
}

func TestCampNeedsBloodType(t *testing.T) {
	open := Camp{}
	assert.True(t, open.NeedsBloodType(ONeg))

	picky := Camp{BloodTypesNeeded: []BloodType{APos, OPos}}
	assert.True(t, picky.NeedsBloodType(OPos))
	assert.False(t, picky.NeedsBloodType(BNeg))
}

func TestUrgentRequestCityName(t *testing.T) {
	assert.Equal(t, "Ludhiana", UrgentRequest{Location: "Ludhiana, Punjab"}.CityName())
	assert.Equal(t, "Delhi", UrgentRequest{Location: "Delhi"}.CityName())
	assert.Equal(t, "Pune", UrgentRequest{Location: "Ludhiana, Punjab", City: " Pune "}.CityName())
}
