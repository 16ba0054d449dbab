package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"transitdesk/config"
	"transitdesk/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.BackendConfig{
		BaseURL:         srv.URL + "/api",
		Timeout:         5 * time.Second,
		RequestIDHeader: "X-Request-ID",
	}, staticToken("tok-123"), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"doubly nested", `[[{"id":1}]]`, []string{"1"}},
		{"bare array", `[{"id":1},{"id":2}]`, []string{"1", "2"}},
		{"null", `null`, nil},
		{"object", `{"id":1}`, nil},
		{"invalid json", `[{"id":`, nil},
		{"empty array", `[]`, nil},
		{"result sets with metadata", `[[{"id":1},{"id":2}],{"fieldCount":0}]`, []string{"1", "2"}},
		{"several result sets", `[[{"id":1}],[{"id":2}]]`, []string{"1", "2"}},
		{"scalars dropped", `[{"id":1},7,"x",null]`, []string{"1"}},
		{"duplicates kept", `[{"id":1},{"id":1}]`, []string{"1", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.body))
			require.NotNil(t, got)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.String("id"))
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestNormalize_KeepsLargeIDsExact(t *testing.T) {
	got := Normalize([]byte(`[{"id":9007199254740993}]`))
	require.Len(t, got, 1)
	assert.Equal(t, "9007199254740993", got[0].String("id"))
}

func TestNormalizeOne(t *testing.T) {
	for _, body := range []string{`[[{"id":5}]]`, `[{"id":5}]`, `{"id":5}`} {
		rec := NormalizeOne([]byte(body))
		require.NotNil(t, rec, body)
		assert.Equal(t, "5", rec.String("id"))
	}
	assert.Nil(t, NormalizeOne([]byte(`[]`)))
	assert.Nil(t, NormalizeOne([]byte(`[[]]`)))
	assert.Nil(t, NormalizeOne([]byte(`"nope"`)))
}

// A route list wrapped once still yields exactly one route.
func TestList_WrappedRoutes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/route", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = io.WriteString(w, `[[{"route_id":1,"route_name":"A"}],[]]`)
	})

	routes, err := c.List(context.Background(), "/route", nil)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "A", routes[0].String("route_name"))
}

func TestMutations(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var calls []call
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{r.Method, r.URL.Path, body})
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	ctx := context.Background()

	require.NoError(t, c.Create(ctx, "/fare", models.Record{"fare_type": "flat"}))
	require.NoError(t, c.Update(ctx, "/fare", "4", models.Record{"fare_type": "km"}))
	require.NoError(t, c.Delete(ctx, "/fare", "4"))

	require.Len(t, calls, 3)
	assert.Equal(t, call{http.MethodPost, "/api/fare", map[string]any{"fare_type": "flat"}}, calls[0])
	assert.Equal(t, call{http.MethodPut, "/api/fare/4", map[string]any{"fare_type": "km"}}, calls[1])
	assert.Equal(t, http.MethodDelete, calls[2].method)
	assert.Equal(t, "/api/fare/4", calls[2].path)
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Route name is required"}`)
	})

	err := c.Create(context.Background(), "/route", models.Record{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "Route name is required", se.Message)
}

func TestGet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/customer/12", r.URL.Path)
		_, _ = io.WriteString(w, `[[{"customer_id":12,"customer_name":"Asha"}]]`)
	})

	rec, err := c.Get(context.Background(), "/customer", "12")
	require.NoError(t, err)
	assert.Equal(t, "Asha", rec.String("customer_name"))
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(config.BackendConfig{BaseURL: "not a url"}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestResourceLabel(t *testing.T) {
	assert.Equal(t, "route", resourceLabel("/route/17"))
	assert.Equal(t, "cancel", resourceLabel("/cancel/"))
	assert.Equal(t, "root", resourceLabel("/"))
}
