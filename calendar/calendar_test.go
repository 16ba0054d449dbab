package calendar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"transitdesk/db"
)

type staticSource struct {
	days map[int]string
	err  error
}

func (s staticSource) Holidays(context.Context, int, time.Month) (map[int]string, error) {
	return s.days, s.err
}

func TestGrid(t *testing.T) {
	// March 2024 starts on a Friday.
	g := Grid(2024, time.March)
	require.Len(t, g, 4+31)
	for i := 0; i < 4; i++ {
		assert.Nil(t, g[i])
	}
	assert.Equal(t, 1, *g[4])
	assert.Equal(t, 31, *g[len(g)-1])

	// April 2024 starts on a Monday.
	g = Grid(2024, time.April)
	require.Len(t, g, 30)
	assert.Equal(t, 1, *g[0])

	// September 2024 starts on a Sunday.
	assert.Len(t, Grid(2024, time.September), 6+30)
	assert.Len(t, Grid(2024, time.February), 3+29)
	assert.Len(t, Grid(2023, time.February), 2+28)
}

func TestParseHolidayDocument(t *testing.T) {
	doc := `{
		"January 2024": {"January 1, 2024, Monday": {"event": "New Year"}, "January 26, 2024, Friday": {"event": "Republic Day"}},
		"February 2024": {},
		"March 2024": {"March 25, 2024, Monday": "Holi", "March 8 2024": {"name": "Maha Shivaratri"}, "notes": "ignored"}
	}`

	jan, err := ParseHolidayDocument([]byte(doc), 2024, time.January)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "New Year", 26: "Republic Day"}, jan)

	mar, err := ParseHolidayDocument([]byte(doc), 2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{25: "Holi", 8: "Maha Shivaratri"}, mar)

	dec, err := ParseHolidayDocument([]byte(doc), 2024, time.December)
	require.NoError(t, err)
	assert.Empty(t, dec)

	_, err = ParseHolidayDocument([]byte(`[1,2]`), 2024, time.January)
	assert.Error(t, err)
}

func TestParseHolidayDocument_YearWrapper(t *testing.T) {
	doc := `{"2025": {"January 2025": {"14": "Pongal"}}}`
	jan, err := ParseHolidayDocument([]byte(doc), 2025, time.January)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{14: "Pongal"}, jan)
}

func TestRemoteSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendar/2024.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"January 2024": {"January 26, 2024": "Republic Day"}}`)
	}))
	defer srv.Close()

	s := NewRemoteSource(srv.URL+"/calendar/", time.Second)
	days, err := s.Holidays(context.Background(), 2024, time.January)
	require.NoError(t, err)
	assert.Equal(t, "Republic Day", days[26])

	_, err = s.Holidays(context.Background(), 2030, time.January)
	assert.Error(t, err)
}

func newBuilder(src HolidaySource) (*Builder, db.Store) {
	store := db.NewMemoryStore()
	return NewBuilder(src, NewOverrides(store), zap.NewNop()), store
}

func cell(v MonthView, day int) *Cell {
	for _, c := range v.Cells {
		if c != nil && c.Day == day {
			return c
		}
	}
	return nil
}

func TestMonth_StatePrecedence(t *testing.T) {
	b, _ := newBuilder(staticSource{days: map[int]string{15: "Holi", 20: "Festival"}})
	today := time.Date(2024, time.March, 20, 15, 4, 0, 0, time.UTC)

	v := b.Month(context.Background(), 2024, time.March, today)
	assert.Equal(t, "March 2024", v.Title)
	assert.Nil(t, v.Cells[0])

	assert.Equal(t, StateToday, cell(v, 20).State, "today beats holiday")
	assert.Equal(t, "Festival", cell(v, 20).HolidayName)
	assert.Equal(t, StateHoliday, cell(v, 15).State)
	assert.Equal(t, StateHoliday, cell(v, 17).State, "Sunday")
	assert.Empty(t, cell(v, 17).HolidayName)
	assert.Equal(t, StatePast, cell(v, 14).State)
	assert.Equal(t, StatePlain, cell(v, 21).State)
	assert.Equal(t, "Thursday", cell(v, 21).Weekday)
}

func TestMonth_RemoteFailureStillRenders(t *testing.T) {
	b, _ := newBuilder(staticSource{err: errors.New("dial tcp: timeout")})
	v := b.Month(context.Background(), 2024, time.March, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, v.Cells, 35)
	assert.Equal(t, StatePlain, cell(v, 5).State)
}

func TestToggleHoliday_TwiceRestores(t *testing.T) {
	ctx := context.Background()
	b, store := newBuilder(staticSource{days: map[int]string{26: "Republic Day"}})
	today := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	before := b.Month(ctx, 2024, time.January, today)

	on, err := b.ToggleHoliday(ctx, "1", 2024, time.January, 10)
	require.NoError(t, err)
	assert.True(t, on)
	mid := b.Month(ctx, 2024, time.January, today)
	assert.Equal(t, OverrideMessage, cell(mid, 10).HolidayName)
	assert.Equal(t, StateHoliday, cell(mid, 10).State)

	raw, err := store.Get(ctx, KeyDynamicHolidays)
	require.NoError(t, err)
	assert.JSONEq(t, `["2024-01-10"]`, raw)

	on, err = b.ToggleHoliday(ctx, "1", 2024, time.January, 10)
	require.NoError(t, err)
	assert.False(t, on)
	after := b.Month(ctx, 2024, time.January, today)
	assert.Equal(t, before, after)

	// Toggling a remote holiday keeps the remote name.
	_, err = b.ToggleHoliday(ctx, "1", 2024, time.January, 26)
	require.NoError(t, err)
	assert.Equal(t, "Republic Day", cell(b.Month(ctx, 2024, time.January, today), 26).HolidayName)
}

func TestSetNote(t *testing.T) {
	ctx := context.Background()
	b, store := newBuilder(staticSource{})
	today := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, b.SetNote(ctx, "1", 2024, time.March, 5, "depot closed"))
	raw, err := store.Get(ctx, KeyNotes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-3-5":"depot closed"}`, raw)

	c := cell(b.Month(ctx, 2024, time.March, today), 5)
	assert.Equal(t, "depot closed", c.Note)
	assert.Equal(t, StatePlain, c.State, "notes do not make holidays")

	require.NoError(t, b.SetNote(ctx, "1", 2024, time.March, 5, ""))
	assert.Empty(t, cell(b.Month(ctx, 2024, time.March, today), 5).Note)

	assert.Error(t, b.SetNote(ctx, "1", 2024, time.February, 30, "x"))
	_, err = b.ToggleHoliday(ctx, "1", 2024, time.Month(13), 1)
	assert.Error(t, err)
}
