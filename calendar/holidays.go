package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tidwall/gjson"
)

// HolidaySource yields public holidays for one month, keyed by day.
type HolidaySource interface {
	Holidays(ctx context.Context, year int, month time.Month) (map[int]string, error)
}

// RemoteSource reads a yearly JSON document from <baseURL>/<year>.json.
// The month is the n-th top-level key in document order.
type RemoteSource struct {
	baseURL string
	client  *http.Client
}

func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	return &RemoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *RemoteSource) Holidays(ctx context.Context, year int, month time.Month) (map[int]string, error) {
	u := fmt.Sprintf("%s/%d.json", s.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday fetch %s: status %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("holiday read: %w", err)
	}
	return ParseHolidayDocument(body, year, month)
}

// ParseHolidayDocument extracts one month from a yearly holiday document.
//
// Documents look like {"January 2024": {"January 26, 2024, Friday": {...}}},
// optionally wrapped in {"2024": ...}. A day key contributes its first number
// between 1 and 31. The name is the value itself when it is a string, else
// its "event" or "name" field.
func ParseHolidayDocument(body []byte, year int, month time.Month) (map[int]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("holiday document is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("holiday document is not an object")
	}

	var topKeys []gjson.Result
	root.ForEach(func(k, _ gjson.Result) bool {
		topKeys = append(topKeys, k)
		return true
	})
	if len(topKeys) == 1 && topKeys[0].String() == strconv.Itoa(year) {
		root = root.Get(gjson.Escape(topKeys[0].String()))
	}

	var monthValue gjson.Result
	i := 0
	root.ForEach(func(_, v gjson.Result) bool {
		i++
		if i == int(month) {
			monthValue = v
			return false
		}
		return true
	})

	out := map[int]string{}
	if !monthValue.IsObject() {
		return out, nil
	}
	maxDay := DaysIn(year, month)
	monthValue.ForEach(func(k, v gjson.Result) bool {
		day := firstDay(k.String())
		if day < 1 || day > maxDay {
			return true
		}
		if name := holidayName(v); name != "" {
			if prev, ok := out[day]; ok {
				name = prev + ", " + name
			}
			out[day] = name
		}
		return true
	})
	return out, nil
}

func firstDay(key string) int {
	fields := strings.FieldsFunc(key, func(r rune) bool { return !unicode.IsDigit(r) })
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err == nil && n >= 1 && n <= 31 {
			return n
		}
	}
	return 0
}

func holidayName(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return strings.TrimSpace(v.String())
	case v.IsObject():
		for _, field := range []string{"event", "name"} {
			if s := strings.TrimSpace(v.Get(field).String()); s != "" {
				return s
			}
		}
	}
	return ""
}
