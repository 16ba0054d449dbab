package models

import (
	"sort"
	"strings"
)

// Predicate reports whether a record matches a filter value.
// Callers never pass an empty value; empty means match all.
type Predicate func(r Record, value string) bool

// Column maps an export header onto a record field.
type Column struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

// Resource describes one backend collection the console administers.
type Resource struct {
	Name         string // URL segment on the console surface
	Label        string // singular, used in operator notices
	Path         string // backend path
	KeyField     string
	ItemsPerPage int // zero means the console default
	HideArchived bool
	Filters      map[string]Predicate
	Columns      []Column

	// Coordinate fields, when records can be placed on the map.
	LatField    string
	LngField    string
	MarkerLabel string
}

// FilterKeys lists the supported filter keys in a stable order.
func (r Resource) FilterKeys() []string {
	keys := make([]string, 0, len(r.Filters))
	for k := range r.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Mappable reports whether records carry coordinates.
func (r Resource) Mappable() bool {
	return r.LatField != "" && r.LngField != ""
}

// Headers returns the export header row.
func (r Resource) Headers() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Header
	}
	return out
}

// Equals matches a field exactly.
func Equals(field string) Predicate {
	return func(r Record, value string) bool {
		return r.String(field) == value
	}
}

// ContainsFold matches a case-insensitive substring of a field.
func ContainsFold(field string) Predicate {
	return func(r Record, value string) bool {
		return strings.Contains(strings.ToLower(r.String(field)), strings.ToLower(value))
	}
}

// ActiveFlag filters a 1/0 flag with the values "active", "inactive" and "all".
func ActiveFlag(field string) Predicate {
	return func(r Record, value string) bool {
		on, ok := r.Flag(field)
		switch strings.ToLower(value) {
		case "active":
			return ok && on
		case "inactive":
			return ok && !on
		default:
			return true
		}
	}
}

// SearchAny matches a case-insensitive substring of any of the fields.
func SearchAny(fields ...string) Predicate {
	return func(r Record, value string) bool {
		needle := strings.ToLower(value)
		for _, f := range fields {
			if strings.Contains(strings.ToLower(r.String(f)), needle) {
				return true
			}
		}
		return false
	}
}

func columns(fields ...string) []Column {
	out := make([]Column, len(fields))
	for i, f := range fields {
		out[i] = Column{Header: f, Field: f}
	}
	return out
}

var (
	Routes = Resource{
		Name:     "routes",
		Label:    "Route",
		Path:     "/route",
		KeyField: "route_id",
		Filters: map[string]Predicate{
			"status": ActiveFlag("is_active"),
			"search": SearchAny("route_name", "route_start_from", "route_end_to"),
		},
		Columns: columns("route_id", "route_name", "route_start_from", "route_end_to",
			"distance_KM", "approx_time", "is_active", "adduid"),
	}

	Stops = Resource{
		Name:         "stops",
		Label:        "Stop",
		Path:         "/route_stop",
		KeyField:     "id",
		ItemsPerPage: 5,
		HideArchived: true,
		Filters: map[string]Predicate{
			"search":   ContainsFold("stop_name"),
			"route_id": Equals("route_id"),
		},
		Columns: columns("id", "route_id", "stop_sequence", "stop_name", "distance_from_start",
			"approx_time_from_start", "wait_time", "reach_time", "is_minor",
			"latitude", "longitude", "radius_in_meters"),
		LatField:    "latitude",
		LngField:    "longitude",
		MarkerLabel: "stop_name",
	}

	Vehicles = Resource{
		Name:         "vehicles",
		Label:        "Vehicle",
		Path:         "/vehicles",
		KeyField:     "vehicles_id",
		ItemsPerPage: 5,
		HideArchived: true,
		Filters: map[string]Predicate{
			"status":        Equals("status"),
			"vehicles_type": Equals("vehicles_type"),
			"search":        SearchAny("brand", "model_name", "vehicles_number"),
		},
		Columns: columns("vehicles_id", "vehicles_type", "brand", "model_name", "vehicles_number",
			"vehicles_register_date", "vehicles_condition", "number_of_seats", "number_of_doors",
			"total_rows", "total_columns", "passenger_capacity", "status"),
	}

	Drivers = Resource{
		Name:         "drivers",
		Label:        "Driver",
		Path:         "/driver",
		KeyField:     "driver_id",
		HideArchived: true,
		Filters: map[string]Predicate{
			"active_status": Equals("active_status"),
			"city_id":       Equals("city_id"),
			"search":        SearchAny("driver_name", "driver_phone_number", "driver_licence_number"),
		},
		Columns: columns("driver_id", "vehicle_id", "driver_name", "driver_vehicle_number",
			"driver_licence_number", "email", "driver_phone_number", "gender", "date_of_birth",
			"city_id", "current_latitude", "current_longitude", "total_trips", "wallet_balance",
			"active_status", "adduid"),
		LatField:    "current_latitude",
		LngField:    "current_longitude",
		MarkerLabel: "driver_name",
	}

	Customers = Resource{
		Name:         "customers",
		Label:        "Customer",
		Path:         "/customer",
		KeyField:     "customer_id",
		HideArchived: true,
		Filters: map[string]Predicate{
			"active_status":   Equals("active_status"),
			"verified_status": Equals("verified_status"),
			"city":            Equals("city"),
			"search":          SearchAny("customer_name", "email", "phone_number"),
		},
		Columns: columns("customer_id", "customer_name", "email", "phone_number",
			"verified_status", "gender", "date_of_birth", "city", "active_status", "adduid"),
	}

	Trips = Resource{
		Name:         "trips",
		Label:        "Trip",
		Path:         "/trip",
		KeyField:     "trip_id",
		ItemsPerPage: 5,
		HideArchived: true,
		Filters: map[string]Predicate{
			"route_id":    Equals("route_id"),
			"driver_id":   Equals("driver_id"),
			"customer_id": Equals("customer_id"),
			"search":      ContainsFold("trip_name"),
		},
		Columns: columns("trip_id", "trip_name", "route_id", "customer_id", "driver_id",
			"vehicle_id", "trip_booked_date", "policy_id", "promotion_id", "trip_date_from",
			"trip_date_to", "trip_time_from", "trip_time_to", "trip_day", "trip_fare"),
	}

	Fares = Resource{
		Name:         "fares",
		Label:        "Fare",
		Path:         "/fare",
		KeyField:     "fare_id",
		HideArchived: true,
		Filters: map[string]Predicate{
			"fare_type": Equals("fare_type"),
			"status":    Equals("status"),
		},
		Columns: columns("fare_id", "fare_type", "fare_per_stop", "base_fare", "fare_per_KM", "status"),
	}

	Promotions = Resource{
		Name:         "promotions",
		Label:        "Promotion",
		Path:         "/promotions",
		KeyField:     "promotion_id",
		HideArchived: true,
		Filters: map[string]Predicate{
			"status":     Equals("status"),
			"promo_type": Equals("promo_type"),
			"search":     SearchAny("promotion_title", "promo_code"),
		},
		Columns: columns("promotion_id", "promotion_title", "promo_type", "discount_value",
			"max_discount", "start_date", "end_date", "max_allowed", "per_user_limit",
			"status", "promo_code"),
	}

	CancelPolicies = Resource{
		Name:     "cancellations",
		Label:    "Cancellation policy",
		Path:     "/cancel",
		KeyField: "policy_id",
		Filters: map[string]Predicate{
			"status":  Equals("status"),
			"user_id": Equals("user_id"),
		},
		Columns: columns("policy_id", "user_id", "cancellation_reason", "refund_amount",
			"status", "cancellation_date"),
	}
)

// Catalogue lists every administered resource.
func Catalogue() []Resource {
	return []Resource{Routes, Stops, Vehicles, Drivers, Customers, Trips, Fares, Promotions, CancelPolicies}
}

// Lookup finds a resource by its console name.
func Lookup(name string) (Resource, bool) {
	for _, r := range Catalogue() {
		if r.Name == name {
			return r, true
		}
	}
	return Resource{}, false
}
