package mapview

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitdesk/models"
)

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleRoadmap, s)

	s, err = ParseStyle("Satellite")
	require.NoError(t, err)
	assert.Equal(t, StyleSatellite, s)

	_, err = ParseStyle("terrain")
	assert.Error(t, err)
}

func TestTileURL(t *testing.T) {
	road, _ := Layer(StyleRoadmap)
	assert.Equal(t, "https://b.tile.openstreetmap.org/5/1/3.png", road.TileURL(5, 1, 3))

	sat, _ := Layer(StyleSatellite)
	assert.Equal(t,
		"https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/5/3/1",
		sat.TileURL(5, 1, 3))
}

func TestMarkersFrom(t *testing.T) {
	records := []models.Record{
		{"latitude": "22.30", "longitude": "70.80", "stop_name": "Rajkot"},
		{"latitude": 23.02, "longitude": 72.57, "stop_name": "Ahmedabad"},
		{"latitude": "", "longitude": "70.80"},
		{"latitude": "abc", "longitude": "70.80"},
		{"longitude": "70.80"},
		{"latitude": "95", "longitude": "70.80"},
		{"latitude": "NaN", "longitude": "70.80"},
	}

	ms := MarkersFrom(records, "latitude", "longitude", "stop_name")
	require.Len(t, ms, 2)
	assert.Equal(t, "Rajkot", ms[0].Label)
	assert.InDelta(t, 72.57, ms[1].Lng, 1e-9)
}

func TestView(t *testing.T) {
	v := NewView(DefaultCenter, DefaultZoom, StyleRoadmap)

	dropped := v.SetMarkers([]Marker{
		{LatLng: LatLng{Lat: 10, Lng: 20}, Label: "a"},
		{LatLng: LatLng{Lat: math.NaN(), Lng: 20}},
		{LatLng: LatLng{Lat: 10, Lng: 181}},
		{LatLng: LatLng{Lat: 11, Lng: 21}, Label: "b"},
	})
	assert.Equal(t, 2, dropped)
	assert.Len(t, v.Markers(), 2)

	v.FocusFirst()
	assert.Equal(t, LatLng{Lat: 10, Lng: 20}, v.Center)
	v.Zoom = 9

	require.NoError(t, v.SetStyle(StyleSatellite))
	r := v.Render()
	assert.Equal(t, StyleSatellite, r.Tiles.Style)
	assert.Equal(t, LatLng{Lat: 10, Lng: 20}, r.Center, "style switch keeps the center")
	assert.Equal(t, 9, r.Zoom)
	assert.Len(t, r.Markers, 2)

	assert.Error(t, v.SetStyle("terrain"))
	assert.Equal(t, StyleSatellite, v.Style)
}

func TestNewView_Defaults(t *testing.T) {
	v := NewView(LatLng{Lat: 200}, 0, "bogus")
	assert.Equal(t, DefaultCenter, v.Center)
	assert.Equal(t, DefaultZoom, v.Zoom)
	assert.Equal(t, StyleRoadmap, v.Style)

	v.FocusFirst()
	assert.Equal(t, DefaultCenter, v.Center, "no markers keeps the center")
}
