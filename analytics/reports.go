// Package analytics assembles the booking and booking-refund reports from
// per-entity detail lookups.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"transitdesk/models"
)

type Tab string

const (
	TabBooking       Tab = "booking"
	TabBookingRefund Tab = "booking_refund"
)

var ErrNoFilters = errors.New("enter at least one id")

// Backend is what the reports read from.
type Backend interface {
	Get(ctx context.Context, path, id string) (models.Record, error)
	List(ctx context.Context, path string, query url.Values) ([]models.Record, error)
}

// Filters are the ids an operator enters on either tab.
type Filters struct {
	CustomerID string `json:"customer_id"`
	TripID     string `json:"trip_id"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	RouteID    string `json:"route_id"`
	CityID     string `json:"city_id"`
	UserID     string `json:"user_id"`
}

func (f Filters) trimmed() Filters {
	return Filters{
		CustomerID: strings.TrimSpace(f.CustomerID),
		TripID:     strings.TrimSpace(f.TripID),
		DriverID:   strings.TrimSpace(f.DriverID),
		VehicleID:  strings.TrimSpace(f.VehicleID),
		RouteID:    strings.TrimSpace(f.RouteID),
		CityID:     strings.TrimSpace(f.CityID),
		UserID:     strings.TrimSpace(f.UserID),
	}
}

var BookingColumns = []models.Column{
	{Header: "Customer ID", Field: "customer_id"},
	{Header: "Customer Name", Field: "customer_name"},
	{Header: "Customer Email", Field: "customer_email"},
	{Header: "Customer Phone", Field: "customer_phone"},
	{Header: "Trip ID", Field: "trip_id"},
	{Header: "Trip Name", Field: "trip_name"},
	{Header: "Trip Date From", Field: "trip_date_from"},
	{Header: "Trip Date To", Field: "trip_date_to"},
	{Header: "Trip Fare", Field: "trip_fare"},
	{Header: "Driver ID", Field: "driver_id"},
	{Header: "Driver Name", Field: "driver_name"},
	{Header: "Driver Vehicle No", Field: "driver_vehicle_number"},
	{Header: "Driver Licence No", Field: "driver_licence_number"},
	{Header: "Driver Phone", Field: "driver_phone"},
	{Header: "Vehicle ID", Field: "vehicle_id"},
	{Header: "Vehicle Type", Field: "vehicle_type"},
	{Header: "Brand", Field: "brand"},
	{Header: "Model", Field: "model_name"},
	{Header: "Seats", Field: "seats"},
	{Header: "Route ID", Field: "route_id"},
	{Header: "Route Name", Field: "route_name"},
	{Header: "Route Start", Field: "route_start"},
	{Header: "Route End", Field: "route_end"},
	{Header: "Distance (KM)", Field: "distance_km"},
	{Header: "City ID", Field: "city_id"},
	{Header: "City", Field: "city_name"},
	{Header: "State", Field: "state"},
}

var RefundColumns = []models.Column{
	{Header: "User ID", Field: "user_id"},
	{Header: "User Name", Field: "user_name"},
	{Header: "Policy ID", Field: "policy_id"},
	{Header: "Cancellation Reason", Field: "cancellation_reason"},
	{Header: "Status", Field: "status"},
	{Header: "Refund Amount", Field: "refund_amount"},
	{Header: "Cancellation Date", Field: "cancellation_date"},
}

// Columns returns the export columns of a tab.
func Columns(tab Tab) ([]models.Column, error) {
	switch tab {
	case TabBooking:
		return BookingColumns, nil
	case TabBookingRefund:
		return RefundColumns, nil
	default:
		return nil, fmt.Errorf("unknown analytics tab %q", tab)
	}
}

// Run builds the single-row report of a tab.
func Run(ctx context.Context, api Backend, tab Tab, f Filters) (models.Record, error) {
	switch tab {
	case TabBooking:
		return Booking(ctx, api, f)
	case TabBookingRefund:
		return Refund(ctx, api, f.UserID)
	default:
		return nil, fmt.Errorf("unknown analytics tab %q", tab)
	}
}

// a section copies fields from one detail record into the report row.
type section struct {
	path    string
	id      func(Filters) string
	idField string      // report field that falls back to the entered id
	idFrom  string      // detail field holding the id
	fields  [][2]string // report field, detail field
}

var bookingSections = []section{
	{
		path: "/customer", id: func(f Filters) string { return f.CustomerID },
		idField: "customer_id", idFrom: "customer_id",
		fields: [][2]string{
			{"customer_name", "customer_name"},
			{"customer_email", "email"},
			{"customer_phone", "phone_number"},
		},
	},
	{
		path: "/trip", id: func(f Filters) string { return f.TripID },
		idField: "trip_id", idFrom: "trip_id",
		fields: [][2]string{
			{"trip_name", "trip_name"},
			{"trip_date_from", "trip_date_from"},
			{"trip_date_to", "trip_date_to"},
			{"trip_fare", "trip_fare"},
		},
	},
	{
		path: "/driver", id: func(f Filters) string { return f.DriverID },
		idField: "driver_id", idFrom: "driver_id",
		fields: [][2]string{
			{"driver_name", "driver_name"},
			{"driver_vehicle_number", "driver_vehicle_number"},
			{"driver_licence_number", "driver_licence_number"},
			{"driver_phone", "driver_phone_number"},
		},
	},
	{
		path: "/vehicles", id: func(f Filters) string { return f.VehicleID },
		idField: "vehicle_id", idFrom: "vehicles_id",
		fields: [][2]string{
			{"vehicle_type", "vehicles_type"},
			{"brand", "brand"},
			{"model_name", "model_name"},
			{"seats", "number_of_seats"},
		},
	},
	{
		path: "/route", id: func(f Filters) string { return f.RouteID },
		idField: "route_id", idFrom: "route_id",
		fields: [][2]string{
			{"route_name", "route_name"},
			{"route_start", "route_start_from"},
			{"route_end", "route_end_to"},
			{"distance_km", "distance_KM"},
		},
	},
	{
		path: "/city", id: func(f Filters) string { return f.CityID },
		idField: "city_id", idFrom: "id",
		fields: [][2]string{
			{"city_name", "city"},
			{"state", "state"},
		},
	},
}

// Booking merges every entered id's detail into one row. Fields the
// backend does not return read "-". Any failed lookup fails the report.
func Booking(ctx context.Context, api Backend, f Filters) (models.Record, error) {
	f = f.trimmed()
	row := models.Record{}
	found := false
	for _, s := range bookingSections {
		id := s.id(f)
		if id == "" {
			continue
		}
		found = true
		detail, err := api.Get(ctx, s.path, id)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", strings.TrimPrefix(s.path, "/"), id, err)
		}
		row[s.idField] = pickOr(detail, s.idFrom, id)
		for _, fld := range s.fields {
			row[fld[0]] = pickOr(detail, fld[1], "-")
		}
	}
	if !found {
		return nil, ErrNoFilters
	}
	return row, nil
}

// Refund reports a user and their first cancellation record.
func Refund(ctx context.Context, api Backend, userID string) (models.Record, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrNoFilters
	}
	user, err := api.Get(ctx, "/user", userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	cancels, err := api.List(ctx, "/cancel/", url.Values{"user_id": {userID}})
	if err != nil {
		return nil, fmt.Errorf("cancellations for user %s: %w", userID, err)
	}
	var cancel models.Record
	if len(cancels) > 0 {
		cancel = cancels[0]
	}

	return models.Record{
		"user_id":             pickOr(user, "user_id", userID),
		"user_name":           pickOr(user, "user_name", "-"),
		"policy_id":           pickOr(cancel, "policy_id", "-"),
		"cancellation_reason": pickOr(cancel, "cancellation_reason", "-"),
		"refund_amount":       pickOr(cancel, "refund_amount", "-"),
		"status":              pickOr(cancel, "status", "-"),
		"cancellation_date":   pickOr(cancel, "cancellation_date", "-"),
	}, nil
}

func pickOr(r models.Record, field, fallback string) string {
	if r == nil {
		return fallback
	}
	if s := r.String(field); s != "" {
		return s
	}
	return fallback
}

// FilePrefix names a tab's export file; export adds the date and extension.
func FilePrefix(tab Tab) string {
	return "analytics_" + string(tab)
}
