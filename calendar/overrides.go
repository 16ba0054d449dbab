package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"transitdesk/db"
)

// Storage keys.
const (
	KeyNotes           = "notes"
	KeyDynamicHolidays = "dynamicHolidays"
)

// Overrides persists operator-toggled holidays, as a list of ISO dates, and
// day notes keyed year-month-day.
type Overrides struct {
	store db.Store
	mu    sync.Mutex
}

func NewOverrides(store db.Store) *Overrides {
	return &Overrides{store: store}
}

// ISODate formats a day as YYYY-MM-DD.
func ISODate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// NoteKey formats a day as year-month-day with a 1-based, unpadded month.
func NoteKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%d-%d-%d", year, int(month), day)
}

// Holidays returns the toggled-on dates.
func (o *Overrides) Holidays(ctx context.Context) ([]string, error) {
	var dates []string
	err := db.GetJSON(ctx, o.store, KeyDynamicHolidays, &dates)
	if errors.Is(err, db.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return dates, nil
}

// Toggle flips the override for date and reports whether it is now on.
func (o *Overrides) Toggle(ctx context.Context, date string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	dates, err := o.Holidays(ctx)
	if err != nil {
		return false, err
	}
	on := !slices.Contains(dates, date)
	if on {
		dates = append(dates, date)
	} else {
		dates = slices.DeleteFunc(dates, func(d string) bool { return d == date })
	}
	if err := db.SetJSON(ctx, o.store, KeyDynamicHolidays, dates); err != nil {
		return false, err
	}
	return on, nil
}

// Notes returns every stored note.
func (o *Overrides) Notes(ctx context.Context) (map[string]string, error) {
	notes := map[string]string{}
	err := db.GetJSON(ctx, o.store, KeyNotes, &notes)
	if errors.Is(err, db.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// SetNote stores text under key; empty text removes the note.
func (o *Overrides) SetNote(ctx context.Context, key, text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	notes, err := o.Notes(ctx)
	if err != nil {
		return err
	}
	if text == "" {
		delete(notes, key)
	} else {
		notes[key] = text
	}
	return db.SetJSON(ctx, o.store, KeyNotes, notes)
}
