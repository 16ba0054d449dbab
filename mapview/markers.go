package mapview

import (
	"math"

	"transitdesk/models"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the pair is a finite coordinate on Earth.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

type Marker struct {
	LatLng
	Label string `json:"label,omitempty"`
}

// MarkersFrom reads coordinates from records. String and numeric fields are
// accepted; records with a missing or unparsable pair are skipped.
func MarkersFrom(records []models.Record, latField, lngField, labelField string) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		lat, ok := r.Float(latField)
		if !ok {
			continue
		}
		lng, ok := r.Float(lngField)
		if !ok {
			continue
		}
		m := Marker{LatLng: LatLng{Lat: lat, Lng: lng}}
		if labelField != "" {
			m.Label = r.String(labelField)
		}
		if m.Valid() {
			out = append(out, m)
		}
	}
	return out
}
