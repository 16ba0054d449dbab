// Package calendar builds the holiday calendar: a Monday-first month grid
// with remote public holidays, operator-toggled holidays and day notes.
package calendar

import "time"

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Grid lays out a month starting on Monday. Leading blanks are nil.
func Grid(year int, month time.Month) []*int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) + 6) % 7
	n := DaysIn(year, month)

	grid := make([]*int, lead, lead+n)
	for d := 1; d <= n; d++ {
		day := d
		grid = append(grid, &day)
	}
	return grid
}
