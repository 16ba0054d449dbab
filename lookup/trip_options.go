// Package lookup loads the reference collections the trip form offers as
// dropdowns.
package lookup

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"transitdesk/models"
)

// Lister fetches one normalized collection.
type Lister interface {
	List(ctx context.Context, path string, query url.Values) ([]models.Record, error)
}

// TripOptions holds every dropdown collection of the trip form.
type TripOptions struct {
	Routes     []models.Record `json:"routes"`
	Customers  []models.Record `json:"customers"`
	Drivers    []models.Record `json:"drivers"`
	Vehicles   []models.Record `json:"vehicles"`
	Policies   []models.Record `json:"policies"`
	Promotions []models.Record `json:"promotions"`
}

// LoadTripOptions fetches all six collections concurrently. If any fetch
// fails the whole batch fails and nothing is returned.
func LoadTripOptions(ctx context.Context, api Lister) (*TripOptions, error) {
	var opts TripOptions
	targets := []struct {
		res  models.Resource
		dest *[]models.Record
	}{
		{models.Routes, &opts.Routes},
		{models.Customers, &opts.Customers},
		{models.Drivers, &opts.Drivers},
		{models.Vehicles, &opts.Vehicles},
		{models.CancelPolicies, &opts.Policies},
		{models.Promotions, &opts.Promotions},
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, t := range targets {
		eg.Go(func() error {
			records, err := api.List(egCtx, t.res.Path, nil)
			if err != nil {
				return fmt.Errorf("load %s: %w", t.res.Name, err)
			}
			*t.dest = records
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// CustomerLabel renders "name - phone" for a customer id, or the id itself.
func (o *TripOptions) CustomerLabel(id string) string {
	return models.Label(models.Index(o.Customers, models.Customers.KeyField), id, "customer_name", "phone_number")
}

// DriverLabel renders "name - phone" for a driver id, or the id itself.
func (o *TripOptions) DriverLabel(id string) string {
	return models.Label(models.Index(o.Drivers, models.Drivers.KeyField), id, "driver_name", "driver_phone_number")
}

// RouteLabel renders the route name for a route id, or the id itself.
func (o *TripOptions) RouteLabel(id string) string {
	return models.Label(models.Index(o.Routes, models.Routes.KeyField), id, "route_name")
}
