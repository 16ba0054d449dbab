package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"transitdesk/logging"
)

// ErrInvalidDate reports a month or day outside the calendar.
var ErrInvalidDate = errors.New("invalid date")

// OverrideMessage names a day the operator marked as a holiday.
const OverrideMessage = "Bookings cannot be made today due to holiday."

// DayState is how a cell is coloured. Precedence: today, holiday, past, plain.
type DayState string

const (
	StatePlain   DayState = "plain"
	StatePast    DayState = "past"
	StateHoliday DayState = "holiday"
	StateToday   DayState = "today"
)

var WeekdayHeader = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type Cell struct {
	Day         int      `json:"day"`
	Date        string   `json:"date"`
	Weekday     string   `json:"weekday"`
	State       DayState `json:"state"`
	HolidayName string   `json:"holiday_name,omitempty"`
	Override    bool     `json:"override"`
	Note        string   `json:"note,omitempty"`
}

// MonthView is one rendered month. Leading blank cells are nil.
type MonthView struct {
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Title    string   `json:"title"`
	Weekdays []string `json:"weekdays"`
	Cells    []*Cell  `json:"cells"`
}

// Builder merges remote holidays with stored overrides and notes.
type Builder struct {
	source    HolidaySource
	overrides *Overrides
	logger    *zap.Logger
}

func NewBuilder(source HolidaySource, overrides *Overrides, logger *zap.Logger) *Builder {
	return &Builder{source: source, overrides: overrides, logger: logger}
}

// ValidMonth rejects months outside 1..12.
func ValidMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidDate, month)
	}
	return nil
}

// Month renders year/month relative to today. Remote or storage failures
// are logged and the grid renders without that data.
func (b *Builder) Month(ctx context.Context, year int, month time.Month, today time.Time) MonthView {
	remote, err := b.source.Holidays(ctx, year, month)
	if err != nil {
		b.logger.Warn("holiday fetch failed", zap.Int("year", year), zap.Int("month", int(month)), zap.Error(err))
		remote = map[int]string{}
	}
	toggled, err := b.overrides.Holidays(ctx)
	if err != nil {
		b.logger.Error("failed to read holiday overrides", zap.Error(err))
		toggled = nil
	}
	notes, err := b.overrides.Notes(ctx)
	if err != nil {
		b.logger.Error("failed to read notes", zap.Error(err))
		notes = map[string]string{}
	}

	todayDate := dateOnly(today.Year(), today.Month(), today.Day())
	view := MonthView{
		Year:     year,
		Month:    int(month),
		Title:    fmt.Sprintf("%s %d", month, year),
		Weekdays: WeekdayHeader,
	}
	for _, d := range Grid(year, month) {
		if d == nil {
			view.Cells = append(view.Cells, nil)
			continue
		}
		date := dateOnly(year, month, *d)
		iso := ISODate(year, month, *d)
		c := &Cell{
			Day:      *d,
			Date:     iso,
			Weekday:  date.Weekday().String(),
			Override: slices.Contains(toggled, iso),
			Note:     notes[NoteKey(year, month, *d)],
		}
		if name := remote[*d]; name != "" {
			c.HolidayName = name
		} else if c.Override {
			c.HolidayName = OverrideMessage
		}

		switch {
		case date.Equal(todayDate):
			c.State = StateToday
		case c.HolidayName != "" || date.Weekday() == time.Sunday:
			c.State = StateHoliday
		case date.Before(todayDate):
			c.State = StatePast
		default:
			c.State = StatePlain
		}
		view.Cells = append(view.Cells, c)
	}
	return view
}

// ToggleHoliday flips the override for one day.
func (b *Builder) ToggleHoliday(ctx context.Context, userID string, year int, month time.Month, day int) (bool, error) {
	if err := validDay(year, month, day); err != nil {
		return false, err
	}
	date := ISODate(year, month, day)
	on, err := b.overrides.Toggle(ctx, date)
	if err != nil {
		return false, fmt.Errorf("toggle holiday %s: %w", date, err)
	}
	logging.Audit(b.logger, userID, logging.ActionHolidayToggle, fmt.Sprintf("%s on=%t", date, on))
	return on, nil
}

// SetNote stores the note for one day. Notes never change holiday state.
func (b *Builder) SetNote(ctx context.Context, userID string, year int, month time.Month, day int, text string) error {
	if err := validDay(year, month, day); err != nil {
		return err
	}
	key := NoteKey(year, month, day)
	if err := b.overrides.SetNote(ctx, key, text); err != nil {
		return fmt.Errorf("save note %s: %w", key, err)
	}
	logging.Audit(b.logger, userID, logging.ActionNoteUpdate, key)
	return nil
}

func validDay(year int, month time.Month, day int) error {
	if err := ValidMonth(int(month)); err != nil {
		return err
	}
	if day < 1 || day > DaysIn(year, month) {
		return fmt.Errorf("%w: day %d out of range for %s %d", ErrInvalidDate, day, month, year)
	}
	return nil
}

func dateOnly(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
