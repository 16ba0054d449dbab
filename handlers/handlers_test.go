package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"transitdesk/auth"
	"transitdesk/backend"
	"transitdesk/calendar"
	"transitdesk/config"
	"transitdesk/db"
	"transitdesk/listing"
	"transitdesk/mapview"
)

type noHolidays struct{}

func (noHolidays) Holidays(context.Context, int, time.Month) (map[int]string, error) {
	return map[int]string{}, nil
}

// fakeBackend records the bodies it receives.
type fakeBackend struct {
	mu         sync.Mutex
	posted     []map[string]any
	routeLists int
}

func (f *fakeBackend) routeListCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routeLists
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/route", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.routeLists++
		f.mu.Unlock()
		io.WriteString(w, `[[
			{"route_id":1,"route_name":"Airport","is_active":1},
			{"route_id":2,"route_name":"Harbour","is_active":0},
			{"route_id":3,"route_name":"Airport Express","is_active":1}
		]]`)
	})
	mux.HandleFunc("POST /api/route", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.posted = append(f.posted, body)
		f.mu.Unlock()
		io.WriteString(w, `{"message":"ok"}`)
	})
	mux.HandleFunc("DELETE /api/route/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"route in use"}`)
	})
	mux.HandleFunc("GET /api/fare", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	mux.HandleFunc("GET /api/route_details/{id}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"stop_name":"Terminal","latitude":"19.09","longitude":"72.86"},
			{"stop_name":"Broken","latitude":"n/a","longitude":"72.80"},
			{"stop_name":"Gate","latitude":19.10,"longitude":72.87}
		]`)
	})
	return mux
}

type testConsole struct {
	server   http.Handler
	provider *auth.Provider
	backend  *fakeBackend
}

func newTestConsole(t *testing.T) *testConsole {
	t.Helper()
	logger := zap.NewNop()
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)

	store := db.NewMemoryStore()
	provider := auth.NewProvider(store, auth.NewTokenDecoder(""), logger)
	client, err := backend.NewClient(config.BackendConfig{
		BaseURL: srv.URL + "/api",
		Timeout: 5 * time.Second,
	}, provider, logger)
	require.NoError(t, err)

	registry := listing.NewRegistry(client, logger, 10, provider.UserID)
	builder := calendar.NewBuilder(noHolidays{}, calendar.NewOverrides(store), logger)
	h := &Handlers{
		Session:   NewSessionHandler(provider, client, registry, logger),
		Entities:  NewEntityHandler(registry, logger),
		Trips:     NewTripOptionsHandler(client, logger),
		Maps:      NewMapHandler(client, registry, mapview.NewView(mapview.DefaultCenter, mapview.DefaultZoom, mapview.StyleRoadmap), logger),
		Calendar:  NewCalendarHandler(builder, logger),
		Analytics: NewAnalyticsHandler(client, logger),
	}
	mux := http.NewServeMux()
	h.Register(mux, provider)
	return &testConsole{server: mux, provider: provider, backend: fb}
}

func (c *testConsole) signIn(t *testing.T, userID any, role int) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role_id": role,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = c.provider.Login(context.Background(), token, json.RawMessage(`{"name":"op"}`))
	require.NoError(t, err)
}

func signedToken(t *testing.T, userID string, role int) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role_id": role,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func (c *testConsole) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	c.server.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGuard_SignedOutRedirects(t *testing.T) {
	c := newTestConsole(t)
	rec := c.do(http.MethodGet, "/api/routes", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/", decode(t, rec)["redirect"])
}

func TestGuard_OperatorDenied(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 9, 5)

	rec := c.do(http.MethodGet, "/api/routes", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access Denied", decode(t, rec)["error"])

	// The calendar only needs a session.
	rec = c.do(http.MethodGet, "/api/calendar?year=2024&month=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_LoginWithToken(t *testing.T) {
	c := newTestConsole(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "42", "role_id": 1,
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	rec := c.do(http.MethodPost, "/api/session/login", `{"token":"`+token+`","user":{"name":"A"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "42", body["user_id"])
	assert.Equal(t, "Login successful", body["message"])

	rec = c.do(http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodPost, "/api/session/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_SwitchingUsersRefetchesLists(t *testing.T) {
	c := newTestConsole(t)

	rec := c.do(http.MethodPost, "/api/session/login", `{"token":"`+signedToken(t, "7", 1)+`","user":{"name":"A"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/routes", "").Code)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/routes", "").Code)
	assert.Equal(t, 1, c.backend.routeListCount())

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/session/logout", "").Code)

	rec = c.do(http.MethodPost, "/api/session/login", `{"token":"`+signedToken(t, "8", 1)+`","user":{"name":"B"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/routes", "").Code)
	assert.Equal(t, 2, c.backend.routeListCount())
}

func TestSession_LoginRejectsBadToken(t *testing.T) {
	c := newTestConsole(t)
	rec := c.do(http.MethodPost, "/api/session/login", `{"token":"garbage"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, c.provider.Current())

	rec = c.do(http.MethodPost, "/api/session/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntities_ListFiltersAndPaginates(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 1, 1)

	rec := c.do(http.MethodGet, "/api/routes?f.status=active&per_page=1&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view listing.PageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, 2, view.TotalPages)
	assert.Equal(t, 2, view.CurrentPage)
	require.Len(t, view.Records, 1)
	assert.Equal(t, "Airport Express", view.Records[0].String("route_name"))

	rec = c.do(http.MethodGet, "/api/routes?f.bogus=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/api/planets", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntities_CreateStampsUser(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 7, 2)

	rec := c.do(http.MethodPost, "/api/routes", `{"route_name":"Ring"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Route created successfully.", decode(t, rec)["message"])

	require.Len(t, c.backend.posted, 1)
	assert.Equal(t, "7", c.backend.posted[0]["adduid"])
}

func TestEntities_FailedDeleteKeepsRecords(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 1, 1)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/routes", "").Code)

	rec := c.do(http.MethodDelete, "/api/routes/2", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "route in use")

	var view listing.PageView
	require.NoError(t, json.Unmarshal(c.do(http.MethodGet, "/api/routes", "").Body.Bytes(), &view))
	assert.Equal(t, 3, view.TotalItems)
}

func TestEntities_Export(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 1, 1)

	rec := c.do(http.MethodGet, "/api/routes/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "routes_")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `"route_id","route_name"`))

	rec = c.do(http.MethodGet, "/api/fares/export.csv", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No records available to export!", decode(t, rec)["error"])

	rec = c.do(http.MethodGet, "/api/routes/export.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteMap(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 1, 1)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/routes", "").Code)

	rec := c.do(http.MethodGet, "/api/routes/1/map?style=satellite", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RouteMapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Airport", resp.Details["routeName"])
	assert.Equal(t, 1, resp.Dropped)
	require.Len(t, resp.Map.Markers, 2)
	assert.InDelta(t, 19.09, resp.Map.Center.Lat, 1e-9)
	assert.Equal(t, mapview.StyleSatellite, resp.Map.Tiles.Style)

	rec = c.do(http.MethodGet, "/api/routes/1/map?style=terrain", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouteMap_LoadsRouteNameWithoutPriorList(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 1, 1)

	rec := c.do(http.MethodGet, "/api/routes/2/map", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RouteMapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Harbour", resp.Details["routeName"])
	assert.Equal(t, 1, c.backend.routeListCount())
}

func TestCalendar_ToggleAndNote(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 3, 1)

	rec := c.do(http.MethodPost, "/api/calendar/toggle", `{"year":2030,"month":7,"day":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["holiday"])

	rec = c.do(http.MethodPost, "/api/calendar/note", `{"year":2030,"month":7,"day":4,"text":"Parade"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = c.do(http.MethodGet, "/api/calendar?year=2030&month=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view calendar.MonthView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))

	var found *calendar.Cell
	for _, cell := range view.Cells {
		if cell != nil && cell.Day == 4 {
			found = cell
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, calendar.StateHoliday, found.State)
	assert.Equal(t, calendar.OverrideMessage, found.HolidayName)
	assert.Equal(t, "Parade", found.Note)

	rec = c.do(http.MethodPost, "/api/calendar/toggle", `{"year":2030,"month":2,"day":30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodGet, "/api/calendar?month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalytics_RequiresFilters(t *testing.T) {
	c := newTestConsole(t)
	c.signIn(t, 1, 1)

	rec := c.do(http.MethodPost, "/api/analytics/booking", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/api/analytics/unknown", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
