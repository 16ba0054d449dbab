package models

import "strings"

// Index maps key field values to records for display-time joins.
// Records without a key are skipped; on duplicate keys the first wins.
func Index(records []Record, keyField string) map[string]Record {
	idx := make(map[string]Record, len(records))
	for _, r := range records {
		k, ok := r.Key(keyField)
		if !ok {
			continue
		}
		if _, seen := idx[k]; !seen {
			idx[k] = r
		}
	}
	return idx
}

// Label joins the non-empty fields of the record with id, falling back to id.
func Label(idx map[string]Record, id string, fields ...string) string {
	r, ok := idx[id]
	if !ok {
		return id
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if s := r.String(f); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return id
	}
	return strings.Join(parts, " - ")
}
