package mapview

import "fmt"

// Default center and zoom: the whole of India.
var DefaultCenter = LatLng{Lat: 20.5937, Lng: 78.9629}

const DefaultZoom = 5

// View is the map's state. Style, center/zoom and markers change independently.
type View struct {
	Center  LatLng
	Zoom    int
	Style   Style
	markers []Marker
}

func NewView(center LatLng, zoom int, style Style) *View {
	if !center.Valid() {
		center = DefaultCenter
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	if _, ok := Layer(style); !ok {
		style = StyleRoadmap
	}
	return &View{Center: center, Zoom: zoom, Style: style}
}

// SetStyle swaps tiles only.
func (v *View) SetStyle(s Style) error {
	if _, ok := Layer(s); !ok {
		return fmt.Errorf("unknown map style %q", s)
	}
	v.Style = s
	return nil
}

// SetMarkers replaces the marker set, dropping invalid coordinates.
// It returns how many markers were dropped.
func (v *View) SetMarkers(ms []Marker) int {
	kept := make([]Marker, 0, len(ms))
	for _, m := range ms {
		if m.Valid() {
			kept = append(kept, m)
		}
	}
	v.markers = kept
	return len(ms) - len(kept)
}

func (v *View) Markers() []Marker {
	return append([]Marker(nil), v.markers...)
}

// FocusFirst centers on the first marker, if any.
func (v *View) FocusFirst() {
	if len(v.markers) > 0 {
		v.Center = v.markers[0].LatLng
	}
}

// Rendered is the serializable form of a View.
type Rendered struct {
	Center  LatLng    `json:"center"`
	Zoom    int       `json:"zoom"`
	Tiles   TileLayer `json:"tiles"`
	Markers []Marker  `json:"markers"`
}

func (v *View) Render() Rendered {
	layer, _ := Layer(v.Style)
	return Rendered{
		Center:  v.Center,
		Zoom:    v.Zoom,
		Tiles:   layer,
		Markers: v.Markers(),
	}
}
