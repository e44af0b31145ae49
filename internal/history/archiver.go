package history

import (
	"context"

	"github.com/LeJamon/xrplbench/internal/report"
)

// SaveRun archives a structured report. It satisfies the runner's Archiver
// contract.
func (a *Archive) SaveRun(ctx context.Context, rep report.Report) error {
	run := RunRecord{
		GeneratedAt: rep.Metadata.GeneratedAt,
		Network:     rep.Metadata.Network,
		Total:       rep.Metadata.TotalTests,
		Passed:      rep.Metadata.Passed,
		Failed:      rep.Metadata.Failed,
		PassRate:    rep.Metadata.PassRate,
	}
	tests := make([]TestRecord, len(rep.Tests))
	for i, t := range rep.Tests {
		tests[i] = TestRecord{
			Name:        t.Name,
			Type:        t.Type,
			Status:      string(t.Status),
			Expected:    t.ExpectedResult,
			Actual:      t.ActualResult,
			Hash:        t.Hash,
			SubmittedAt: t.SubmittedAt,
			Transaction: t.Transaction,
		}
	}
	_, err := a.SaveRunRecord(ctx, run, tests)
	return err
}
