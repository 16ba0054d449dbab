package backend

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"transitdesk/models"
)

// Normalize flattens the backend's collection replies into records.
//
// The backend answers either with a bare array of rows or with an array of
// result sets (rows first, sometimes followed by driver metadata). When the
// first element is itself an array, every array element is concatenated and
// non-array siblings are dropped. Anything that is not an array yields an
// empty slice, and elements that are not objects are skipped.
func Normalize(body []byte) []models.Record {
	if !gjson.ValidBytes(body) {
		return []models.Record{}
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return []models.Record{}
	}

	elems := root.Array()
	items := elems
	if len(elems) > 0 && elems[0].IsArray() {
		items = nil
		for _, e := range elems {
			if e.IsArray() {
				items = append(items, e.Array()...)
			}
		}
	}

	out := make([]models.Record, 0, len(items))
	for _, it := range items {
		if rec, ok := decodeRecord(it); ok {
			out = append(out, rec)
		}
	}
	return out
}

// NormalizeOne extracts a single record from a detail reply shaped as
// [[x]], [x] or x. It returns nil when there is no record.
func NormalizeOne(body []byte) models.Record {
	if !gjson.ValidBytes(body) {
		return nil
	}
	v := gjson.ParseBytes(body)
	for i := 0; i < 2 && v.IsArray(); i++ {
		v = v.Get("0")
	}
	rec, ok := decodeRecord(v)
	if !ok {
		return nil
	}
	return rec
}

func decodeRecord(v gjson.Result) (models.Record, bool) {
	if !v.IsObject() {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(v.Raw)))
	dec.UseNumber()
	var rec models.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, false
	}
	return rec, true
}
