package lookup

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitdesk/models"
)

type fakeLister struct {
	mu    sync.Mutex
	data  map[string][]models.Record
	fail  string
	paths []string
}

func (f *fakeLister) List(_ context.Context, path string, _ url.Values) ([]models.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if path == f.fail {
		return nil, errors.New("status 500")
	}
	return f.data[path], nil
}

func TestLoadTripOptions(t *testing.T) {
	api := &fakeLister{data: map[string][]models.Record{
		"/route":    {{"route_id": "1", "route_name": "Coast"}},
		"/customer": {{"customer_id": "5", "customer_name": "Asha", "phone_number": "98765"}},
		"/driver":   {{"driver_id": "8", "driver_name": "Ravi", "driver_phone_number": "12345"}},
	}}

	opts, err := LoadTripOptions(context.Background(), api)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/route", "/customer", "/driver", "/vehicles", "/cancel", "/promotions"}, api.paths)

	assert.Equal(t, "Asha - 98765", opts.CustomerLabel("5"))
	assert.Equal(t, "Ravi - 12345", opts.DriverLabel("8"))
	assert.Equal(t, "Coast", opts.RouteLabel("1"))
	assert.Equal(t, "42", opts.CustomerLabel("42"), "unknown ids fall back to the id")
}

func TestLoadTripOptions_FailAll(t *testing.T) {
	api := &fakeLister{
		data: map[string][]models.Record{"/route": {{"route_id": "1"}}},
		fail: "/promotions",
	}

	opts, err := LoadTripOptions(context.Background(), api)
	assert.Nil(t, opts)
	assert.ErrorContains(t, err, "promotions")
}
