// models.go
// Defines the data structures the console exchanges with the transport backend.

package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RecordStatus is the soft-delete flag carried by backend records.
type RecordStatus int

const (
	StatusUnknown RecordStatus = iota
	StatusActive
	StatusArchived
)

func (s RecordStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// Field names shared by most resources.
const (
	FieldRecordStatus = "record_status"
	FieldAddUID       = "adduid"
)

// BookkeepingFields are maintained by the backend and never sent back on update.
var BookkeepingFields = []string{
	"adduid", "adddate", "deleteuid", "deletedate",
	FieldRecordStatus, "created_at", "updated_at",
}

// Record is one backend row: field name to JSON value.
// Numbers are kept as json.Number so ids survive round trips unchanged.
type Record map[string]any

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String renders a field for display. Missing and null fields render as "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	return FormatValue(v)
}

// Key returns the primary key value, false when absent or empty.
func (r Record) Key(field string) (string, bool) {
	s := strings.TrimSpace(r.String(field))
	return s, s != ""
}

// Float parses a numeric field; coordinates often arrive as strings.
func (r Record) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Flag reads a 1/0 style field. Booleans and numeric strings are accepted.
func (r Record) Flag(field string) (bool, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
		return false, false
	}
	f, ok := r.Float(field)
	if !ok {
		return false, false
	}
	return f != 0, true
}

// Status maps record_status onto a RecordStatus.
func (r Record) Status() RecordStatus {
	on, ok := r.Flag(FieldRecordStatus)
	switch {
	case !ok:
		return StatusUnknown
	case on:
		return StatusActive
	default:
		return StatusArchived
	}
}

// FormatValue renders a decoded JSON value the way the console displays it.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
