package station

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltInStations(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Count())

	miami, err := r.Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, "Miami Beach", miami.Name)
	assert.Equal(t, "8723214", miami.TideStationID)

	huntington, err := r.Lookup("10")
	require.NoError(t, err)
	assert.Equal(t, "Huntington Beach", huntington.Name)
	assert.Equal(t, "9410580", huntington.TideStationID)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	_, err = r.Lookup("999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "999")
}

func TestRegistry_ExtraStations(t *testing.T) {
	extra := []Station{
		{ID: "11", Name: "Jacksonville Beach", TideStationID: "8720218", Latitude: 30.2875, Longitude: -81.3897},
	}
	r, err := NewRegistry(extra)
	require.NoError(t, err)
	assert.Equal(t, 11, r.Count())

	jax, err := r.Lookup("11")
	require.NoError(t, err)
	assert.Equal(t, "Jacksonville Beach", jax.Name)
}

func TestRegistry_ExtraOverridesBuiltIn(t *testing.T) {
	extra := []Station{
		{ID: "1", Name: "South Beach", TideStationID: "8723214", Latitude: 25.78, Longitude: -80.13},
	}
	r, err := NewRegistry(extra)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Count())

	s, err := r.Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, "South Beach", s.Name)
}

func TestRegistry_ExtraValidation(t *testing.T) {
	tests := []struct {
		name  string
		extra Station
	}{
		{"missing id", Station{Name: "Nowhere", TideStationID: "1234567"}},
		{"missing tide station", Station{ID: "20", Name: "Nowhere"}},
		{"bad latitude", Station{ID: "20", TideStationID: "1234567", Latitude: 95}},
		{"bad longitude", Station{ID: "20", TideStationID: "1234567", Longitude: -200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry([]Station{tt.extra})
			assert.Error(t, err)
		})
	}
}

func TestRegistry_AllSortedByID(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 10)
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "2", all[1].ID)
	assert.Equal(t, "9", all[8].ID)
	assert.Equal(t, "10", all[9].ID)
}
