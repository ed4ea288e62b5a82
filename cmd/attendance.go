package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect and manage attendance records",
}

var attendanceShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Show the attendance record for a date (default today)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAttendanceShow,
}

var attendanceClearCmd = &cobra.Command{
	Use:   "clear <date>",
	Short: "Delete the attendance record for a date",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceClear,
}

var attendanceStudentCmd = &cobra.Command{
	Use:   "student <name>",
	Short: "Show per-student attendance statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceStudent,
}

var attendanceTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show daily present counts over recent days",
	RunE:  runAttendanceTrend,
}

var attendanceDistributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Show a histogram of daily attendance percentages",
	RunE:  runAttendanceDistribution,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceShowCmd)
	attendanceCmd.AddCommand(attendanceClearCmd)
	attendanceCmd.AddCommand(attendanceStudentCmd)
	attendanceCmd.AddCommand(attendanceTrendCmd)
	attendanceCmd.AddCommand(attendanceDistributionCmd)

	attendanceClearCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	attendanceStudentCmd.Flags().String("period", "", "Limit to a period: week, month or semester")
	attendanceStudentCmd.Flags().String("from", "", "Start date (YYYY-MM-DD)")
	attendanceStudentCmd.Flags().String("to", "", "End date (YYYY-MM-DD)")
	attendanceTrendCmd.Flags().Int("days", 7, "Number of days back")
	attendanceTrendCmd.Flags().String("period", "", "Named period instead of --days: week, month or semester")
	attendanceDistributionCmd.Flags().Int("days", 30, "Number of days back")
	attendanceDistributionCmd.Flags().String("period", "", "Named period instead of --days: week, month or semester")
}

// openLedger opens the record store and wraps it in a query ledger.
func openLedger(cmd *cobra.Command, cfg *config.Config) (*attendance.Ledger, func(), error) {
	_, records, closeStores, err := openStores(cfg)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := attendance.NewLedger(cmd.Context(), records, nil, cfg.Recognition.DedupWindow)
	if err != nil {
		closeStores()
		return nil, nil, err
	}
	return ledger, closeStores, nil
}

func parseDateArg(args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Now(), nil
	}
	date, err := time.Parse(attendance.DateLayout, args[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
	}
	return date, nil
}

func runAttendanceShow(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	date, err := parseDateArg(args)
	if err != nil {
		return err
	}

	ledger, closeStores, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	rec, found, err := ledger.GetRecord(cmd.Context(), date)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("No attendance record for %s.\n", attendance.DateKey(date))
		return nil
	}

	fmt.Printf("Attendance for %s: %d/%d present (%.1f%%)\n",
		rec.Date, rec.PresentCount, rec.TotalStudents, rec.Percentage)
	if len(rec.PresentStudents) > 0 {
		fmt.Printf("Present: %s\n", strings.Join(rec.PresentStudents, ", "))
	}
	if len(rec.AbsentStudents) > 0 {
		fmt.Printf("Absent:  %s\n", strings.Join(rec.AbsentStudents, ", "))
	}
	return nil
}

func runAttendanceClear(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	date, err := parseDateArg(args)
	if err != nil {
		return err
	}

	if !mustGetBool(cmd, "yes") &&
		!confirmAction(fmt.Sprintf("Delete attendance record for %s? [y/N]: ", attendance.DateKey(date))) {
		fmt.Println("Aborted.")
		return nil
	}

	ledger, closeStores, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	if err := ledger.Clear(cmd.Context(), date); err != nil {
		return err
	}
	fmt.Printf("Attendance record for %s cleared.\n", attendance.DateKey(date))
	return nil
}

// flagDate parses an optional YYYY-MM-DD flag into a time pointer.
func flagDate(cmd *cobra.Command, name string) (*time.Time, error) {
	v := mustGetString(cmd, name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(attendance.DateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, v)
	}
	return &t, nil
}

// flagDays resolves --period into a day span, falling back to --days.
func flagDays(cmd *cobra.Command, cfg *config.Config) (int, error) {
	if period := mustGetString(cmd, "period"); period != "" {
		days, ok := cfg.Periods.Periods[period]
		if !ok {
			return 0, fmt.Errorf("unknown period %q", period)
		}
		return days, nil
	}
	return mustGetInt(cmd, "days"), nil
}

func runAttendanceStudent(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	var from, to *time.Time
	if period := mustGetString(cmd, "period"); period != "" {
		days, ok := cfg.Periods.Periods[period]
		if !ok {
			return fmt.Errorf("unknown period %q", period)
		}
		t := time.Now().AddDate(0, 0, -days)
		from = &t
	} else {
		var err error
		if from, err = flagDate(cmd, "from"); err != nil {
			return err
		}
		if to, err = flagDate(cmd, "to"); err != nil {
			return err
		}
	}

	ledger, closeStores, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	stats, found, err := ledger.QueryPerson(cmd.Context(), args[0], from, to)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("No attendance records for %q.\n", args[0])
		return nil
	}

	fmt.Printf("%s: present %d of %d days (%.1f%%)\n",
		args[0], stats.DaysPresent, stats.TotalDays, stats.Percentage)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, day := range stats.History {
		mark := "absent"
		if day.Present {
			mark = "present"
		}
		fmt.Fprintf(w, "%s\t%s\n", day.Date, mark)
	}
	return w.Flush()
}

func runAttendanceTrend(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ledger, closeStores, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	days, err := flagDays(cmd, cfg)
	if err != nil {
		return err
	}

	points, err := ledger.Trend(cmd.Context(), days)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("No attendance records in range.")
		return nil
	}

	for _, p := range points {
		fmt.Printf("%s  %3d  %s\n", p.Date, p.PresentCount, strings.Repeat("#", p.PresentCount))
	}
	return nil
}

func runAttendanceDistribution(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	ledger, closeStores, err := openLedger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	days, err := flagDays(cmd, cfg)
	if err != nil {
		return err
	}

	percentages, err := ledger.Distribution(cmd.Context(), days)
	if err != nil {
		return err
	}
	if len(percentages) == 0 {
		fmt.Println("No attendance records in range.")
		return nil
	}

	// Ten bins of 10% each; 100% lands in the last bin.
	var bins [10]int
	for _, pct := range percentages {
		idx := int(pct / 10)
		if idx > 9 {
			idx = 9
		}
		bins[idx]++
	}

	for i, count := range bins {
		hi := (i + 1) * 10
		fmt.Printf("%3d-%3d%%  %3d  %s\n", i*10, hi, count, strings.Repeat("#", count))
	}
	return nil
}
