package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitBlock9310/BachelorBuddy/models"
)

func TestPrefMapJSONRoundTrip(t *testing.T) {
	raw := []byte(`{"smoking":false,"food":"veg","music":null}`)

	var m models.PrefMap
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, models.BoolPref(false), m["smoking"])
	assert.Equal(t, models.StringPref("veg"), m["food"])
	assert.Equal(t, models.PrefUnset, m["music"].Kind)

	out, err := json.Marshal(m)
	require.NoError(t, err)

	var again models.PrefMap
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, m, again)
}

func TestPrefValueRejectsNumbers(t *testing.T) {
	var m models.PrefMap
	err := json.Unmarshal([]byte(`{"guests":3}`), &m)
	assert.Error(t, err)
}

func TestPrefValueEqual(t *testing.T) {
	assert.True(t, models.BoolPref(true).Equal(models.BoolPref(true)))
	assert.False(t, models.BoolPref(true).Equal(models.BoolPref(false)))
	assert.True(t, models.StringPref("veg").Equal(models.StringPref("veg")))
	assert.False(t, models.StringPref("veg").Equal(models.BoolPref(true)))

	unset := models.PrefValue{Kind: models.PrefUnset}
	assert.False(t, unset.Equal(unset), "unset never agrees, even with itself")
}

func TestListingSerializesNestedLocation(t *testing.T) {
	l := models.PGListing{Location: models.GeoPoint{Latitude: 12.93, Longitude: 77.62}}
	out, err := json.Marshal(l)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.NotContains(t, m, "latitude")
	assert.NotContains(t, m, "longitude")

	var loc models.GeoPoint
	require.NoError(t, json.Unmarshal(m["location"], &loc))
	assert.Equal(t, 12.93, loc.Latitude)
	assert.Equal(t, 77.62, loc.Longitude)
}

func TestVendorSerializesNestedPriceRange(t *testing.T) {
	v := models.LocalVendor{
		Location:   models.GeoPoint{Latitude: 12.97, Longitude: 77.59},
		PriceRange: &models.PriceRange{Min: 50, Max: 120},
	}
	out, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Contains(t, m, "location")
	assert.NotContains(t, m, "price_min")
	assert.NotContains(t, m, "price_max")

	var pr models.PriceRange
	require.NoError(t, json.Unmarshal(m["price_range"], &pr))
	assert.Equal(t, 50.0, pr.Min)
	assert.Equal(t, 120.0, pr.Max)

	// A vendor with no price band serializes the field as null.
	out, err = json.Marshal(models.LocalVendor{})
	require.NoError(t, err)
	m = nil
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "null", string(m["price_range"]))
}

func TestBudgetRangeValid(t *testing.T) {
	assert.True(t, models.BudgetRange{Min: 0, Max: 0}.Valid())
	assert.True(t, models.BudgetRange{Min: 5000, Max: 8000}.Valid())
	assert.False(t, models.BudgetRange{Min: 8000, Max: 5000}.Valid())
	assert.False(t, models.BudgetRange{Min: -1, Max: 5000}.Valid())
}
