package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"transitdesk/calendar"
	"transitdesk/config"
	"transitdesk/db"
	"transitdesk/logging"
)

// seedDay is one row of the seed file: date,holiday,note.
type seedDay struct {
	Date    time.Time
	Holiday bool
	Note    string
}

func main() {
	file := flag.String("file", "", "CSV of date,holiday,note rows (built-in sample when empty)")
	flag.Parse()

	if _, err := config.LoadEnv([]string{".env"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close()

	days := sampleDays()
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal("failed to open seed file", zap.Error(err))
		}
		days, err = readSeed(f)
		_ = f.Close()
		if err != nil {
			logger.Fatal("failed to read seed file", zap.String("file", *file), zap.Error(err))
		}
	}

	logger.Info("starting calendar seeding", zap.Int("days", len(days)), zap.String("storage", cfg.Storage.Driver))
	if err := seedCalendar(ctx, calendar.NewOverrides(store), days, logger); err != nil {
		logger.Fatal("failed to seed calendar", zap.Error(err))
	}
	logger.Info("calendar seeding completed")
}

func sampleDays() []seedDay {
	year := time.Now().Year()
	return []seedDay{
		{Date: time.Date(year, time.January, 26, 0, 0, 0, 0, time.UTC), Holiday: true, Note: "Depot closed"},
		{Date: time.Date(year, time.August, 15, 0, 0, 0, 0, time.UTC), Holiday: true},
		{Date: time.Date(year, time.October, 2, 0, 0, 0, 0, time.UTC), Note: "Reduced fleet"},
	}
}

func readSeed(r io.Reader) ([]seedDay, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var days []seedDay
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return days, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue
		}
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		day := seedDay{Date: d}
		if len(row) > 1 {
			switch strings.ToLower(strings.TrimSpace(row[1])) {
			case "1", "true", "yes", "y":
				day.Holiday = true
			}
		}
		if len(row) > 2 {
			day.Note = strings.TrimSpace(row[2])
		}
		days = append(days, day)
	}
}

// seedCalendar marks holidays that are not yet marked and writes notes.
// Running it twice leaves storage unchanged.
func seedCalendar(ctx context.Context, o *calendar.Overrides, days []seedDay, logger *zap.Logger) error {
	marked, err := o.Holidays(ctx)
	if err != nil {
		return err
	}
	for _, d := range days {
		y, m, day := d.Date.Date()
		iso := calendar.ISODate(y, m, day)
		if d.Holiday && !slices.Contains(marked, iso) {
			if _, err := o.Toggle(ctx, iso); err != nil {
				return fmt.Errorf("failed to mark %s: %w", iso, err)
			}
			marked = append(marked, iso)
			logger.Info("marked holiday", zap.String("date", iso))
		}
		if d.Note != "" {
			if err := o.SetNote(ctx, calendar.NoteKey(y, m, day), d.Note); err != nil {
				return fmt.Errorf("failed to save note for %s: %w", iso, err)
			}
			logger.Info("saved note", zap.String("date", iso))
		}
	}
	return nil
}
