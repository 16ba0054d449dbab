// Package mapview holds the state of the console's map overlay: tile
// style, center, zoom and a validated marker set.
package mapview

import (
	"fmt"
	"strconv"
	"strings"
)

type Style string

const (
	StyleRoadmap   Style = "roadmap"
	StyleSatellite Style = "satellite"
)

// TileLayer is what a map widget needs to draw one style.
type TileLayer struct {
	Style       Style    `json:"style"`
	URLTemplate string   `json:"url"`
	Attribution string   `json:"attribution"`
	Subdomains  []string `json:"subdomains,omitempty"`
}

var layers = map[Style]TileLayer{
	StyleRoadmap: {
		Style:       StyleRoadmap,
		URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		Subdomains:  []string{"a", "b", "c"},
	},
	StyleSatellite: {
		Style:       StyleSatellite,
		URLTemplate: "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri &mdash; Source: Esri, Earthstar Geographics, USDA, USGS, AeroGRID, IGN, and the GIS User Community",
	},
}

// ParseStyle accepts "roadmap" or "satellite"; empty means roadmap.
func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StyleRoadmap, nil
	case StyleRoadmap, StyleSatellite:
		return st, nil
	default:
		return "", fmt.Errorf("unknown map style %q", s)
	}
}

// Layer returns the tile layer for a style.
func Layer(s Style) (TileLayer, bool) {
	l, ok := layers[s]
	return l, ok
}

// TileURL fills the template for one tile, spreading requests over subdomains.
func (l TileLayer) TileURL(z, x, y int) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	u := r.Replace(l.URLTemplate)
	if len(l.Subdomains) > 0 {
		sub := l.Subdomains[abs(x+y)%len(l.Subdomains)]
		u = strings.ReplaceAll(u, "{s}", sub)
	}
	return u
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
