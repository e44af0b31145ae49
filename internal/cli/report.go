package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	reportList  bool
	reportRunID int64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Browse archived batch runs",
	Long: `Browse the run history. --list shows archived runs newest first;
--run prints the per-test outcomes of one archived run.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportList, "list", false, "list archived runs")
	reportCmd.Flags().Int64Var(&reportRunID, "run", 0, "show the tests of this archived run")
}

func runReport(cmd *cobra.Command, args []string) error {
	if !reportList && reportRunID == 0 {
		return fmt.Errorf("one of --list or --run is required")
	}

	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	ctx := cmd.Context()
	if reportRunID != 0 {
		tests, err := app.archive.RunTests(ctx, reportRunID)
		if err != nil {
			return err
		}
		if len(tests) == 0 {
			return fmt.Errorf("no archived run with id %d", reportRunID)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tSTATUS\tEXPECTED\tACTUAL\tHASH")
		for _, t := range tests {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.Name, t.Type, t.Status, t.Expected, t.Actual, t.Hash)
		}
		return w.Flush()
	}

	runs, err := app.archive.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGENERATED\tNETWORK\tTOTAL\tPASSED\tFAILED\tPASS RATE")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d%%\n",
			r.ID, r.GeneratedAt.Format(time.RFC3339), r.Network,
			r.Total, r.Passed, r.Failed, r.PassRate)
	}
	return w.Flush()
}
