package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"transitdesk/calendar"
)

func newCalendarCmd(root *rootOptions) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month with holidays and notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if err := calendar.ValidMonth(month); err != nil {
				return withCode(exitUsage, err)
			}

			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.require(); err != nil {
				return err
			}

			renderMonth(cmd.OutOrStdout(), a.calendar.Month(cmd.Context(), year, time.Month(month), now))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (current when 0)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (current when 0)")

	cmd.AddCommand(newCalendarToggleCmd(root))
	cmd.AddCommand(newCalendarNoteCmd(root))
	return cmd
}

func newCalendarToggleCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <YYYY-MM-DD>",
		Short: "Mark or unmark a day as a holiday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.Parse(time.DateOnly, args[0])
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid date: %w", err))
			}
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := a.require()
			if err != nil {
				return err
			}

			on, err := a.calendar.ToggleHoliday(cmd.Context(), s.UserID, d.Year(), d.Month(), d.Day())
			if err != nil {
				return withCode(exitStorage, err)
			}
			state := "no longer a holiday"
			if on {
				state = "marked as a holiday"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], state)
			return nil
		},
	}
}

func newCalendarNoteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "note <YYYY-MM-DD> [text]",
		Short: "Set a day's note; no text removes it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.Parse(time.DateOnly, args[0])
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid date: %w", err))
			}
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := a.require()
			if err != nil {
				return err
			}

			text := strings.Join(args[1:], " ")
			if err := a.calendar.SetNote(cmd.Context(), s.UserID, d.Year(), d.Month(), d.Day(), text); err != nil {
				return withCode(exitStorage, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "note saved for %s\n", args[0])
			return nil
		},
	}
}

// renderMonth prints the grid: "*" marks a holiday, "!" today.
func renderMonth(w io.Writer, v calendar.MonthView) {
	fmt.Fprintln(w, v.Title)
	for _, d := range v.Weekdays {
		fmt.Fprintf(w, "%-5s", d)
	}
	fmt.Fprintln(w)

	var legend []string
	for i, c := range v.Cells {
		if c == nil {
			fmt.Fprint(w, "     ")
		} else {
			mark := " "
			switch c.State {
			case calendar.StateToday:
				mark = "!"
			case calendar.StateHoliday:
				mark = "*"
			}
			fmt.Fprintf(w, "%3d%s ", c.Day, mark)
			if c.HolidayName != "" {
				legend = append(legend, fmt.Sprintf("%2d  %s", c.Day, c.HolidayName))
			}
			if c.Note != "" {
				legend = append(legend, fmt.Sprintf("%2d  note: %s", c.Day, c.Note))
			}
		}
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
	if len(v.Cells)%7 != 0 {
		fmt.Fprintln(w)
	}
	for _, l := range legend {
		fmt.Fprintln(w, l)
	}
}
