package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/xrplbench/internal/registry"
	"github.com/LeJamon/xrplbench/internal/report"
	"github.com/LeJamon/xrplbench/internal/txbuild"
)

var runTestName string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the test collection against the selected network",
	Long: `Execute every test in the workspace sequentially against the selected
network and print a markdown report. With --test, only the named test runs.
The command fails when any executed test fails.`,
	RunE: runTests,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runTestName, "test", "", "run only the test with this name")
}

func runTests(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.close()

	ctx := cmd.Context()
	if runTestName != "" {
		return runSingleByName(ctx, app, runTestName)
	}

	summary, err := app.runner.RunAll(ctx)
	if err != nil {
		return err
	}
	fmt.Println(report.Markdown(buildReport(app)))
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d tests failed", summary.Failed, summary.Total)
	}
	return nil
}

func runSingleByName(ctx context.Context, app *app, name string) error {
	var target registry.Test
	found := false
	for _, t := range app.reg.Tests() {
		if t.Name == name {
			target, found = t, true
			break
		}
	}
	if !found {
		return fmt.Errorf("no test named %q", name)
	}

	if err := app.runner.RunSingle(ctx, target.ID); err != nil {
		return err
	}
	fmt.Println(report.Markdown(buildReport(app)))

	done, _ := app.reg.Test(target.ID)
	if done.Status == registry.StatusFailed {
		return fmt.Errorf("test %q failed: %s", name, done.ActualResult)
	}
	return nil
}

func buildReport(app *app) report.Report {
	return report.New(app.reg.Tests(), app.reg.Network(), func(t registry.Test) map[string]any {
		return txbuild.Build(t, app.cat.ResolveFieldType)
	})
}
