// Package report aggregates test outcomes into pass/fail statistics and
// renders them as a structured export or a human-readable markdown document.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/LeJamon/xrplbench/internal/registry"
)

// explorerHost is the transaction explorer the report links into.
const explorerHost = "xrpl.org"

// Summary is the aggregate outcome of a batch run.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	PassRate int `json:"passRate"` // rounded percentage, 0 when Total is 0
}

// Summarize computes pass/fail statistics over the whole collection. Tests
// never run still count toward Total.
func Summarize(tests []registry.Test) Summary {
	s := Summary{Total: len(tests)}
	for _, t := range tests {
		switch t.Status {
		case registry.StatusPassed:
			s.Passed++
		case registry.StatusFailed:
			s.Failed++
		}
	}
	if s.Total > 0 {
		s.PassRate = int(math.Round(100 * float64(s.Passed) / float64(s.Total)))
	}
	return s
}

// Metadata heads the structured export.
type Metadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Network     string    `json:"network"`
	TotalTests  int       `json:"totalTests"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	PassRate    int       `json:"passRate"`
}

// TestEntry is one evaluated test in the structured export.
type TestEntry struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Status         registry.Status `json:"status"`
	ExpectedResult string          `json:"expectedResult"`
	ActualResult   string          `json:"actualResult"`
	Hash           string          `json:"hash,omitempty"`
	SubmittedAt    *time.Time      `json:"submittedAt,omitempty"`
	ExplorerURL    string          `json:"explorerUrl,omitempty"`
	Transaction    map[string]any  `json:"transaction"`
}

// Report is the structured export: metadata plus one entry per evaluated
// test. Tests that never ran are counted in the metadata but carry no entry.
type Report struct {
	Metadata Metadata    `json:"metadata"`
	Tests    []TestEntry `json:"tests"`
}

// BuildFunc renders a test's transaction object for inclusion in the report.
type BuildFunc func(registry.Test) map[string]any

// New assembles the structured report for a test collection.
func New(tests []registry.Test, network string, build BuildFunc) Report {
	s := Summarize(tests)
	rep := Report{
		Metadata: Metadata{
			GeneratedAt: time.Now().UTC(),
			Network:     network,
			TotalTests:  s.Total,
			Passed:      s.Passed,
			Failed:      s.Failed,
			PassRate:    s.PassRate,
		},
	}
	for _, t := range tests {
		if !t.Status.Evaluated() {
			continue
		}
		entry := TestEntry{
			Name:           t.Name,
			Type:           t.TransactionType,
			Status:         t.Status,
			ExpectedResult: t.ExpectedResult,
			ActualResult:   t.ActualResult,
			Hash:           t.Hash,
			SubmittedAt:    t.SubmittedAt,
		}
		if t.Hash != "" {
			entry.ExplorerURL = ExplorerURL(network, t.Hash)
		}
		if build != nil {
			entry.Transaction = build(t)
		}
		rep.Tests = append(rep.Tests, entry)
	}
	return rep
}

// ExplorerURL derives the transaction explorer link for a network. The
// production network lives under the fixed "livenet" subdomain; every other
// network name is its own subdomain.
func ExplorerURL(network, hash string) string {
	subdomain := network
	if network == "mainnet" {
		subdomain = "livenet"
	}
	return fmt.Sprintf("https://%s.%s/transactions/%s", subdomain, explorerHost, hash)
}

// Markdown renders the narrative form of a report: a summary table followed
// by one section per evaluated test.
func Markdown(rep Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Transaction Test Report\n\n")
	fmt.Fprintf(&b, "Generated: %s  \n", rep.Metadata.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Network: %s\n\n", rep.Metadata.Network)

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total Tests | %d |\n", rep.Metadata.TotalTests)
	fmt.Fprintf(&b, "| Passed | %d |\n", rep.Metadata.Passed)
	fmt.Fprintf(&b, "| Failed | %d |\n", rep.Metadata.Failed)
	fmt.Fprintf(&b, "| Pass Rate | %d%% |\n\n", rep.Metadata.PassRate)

	for _, t := range rep.Tests {
		fmt.Fprintf(&b, "## %s\n\n", t.Name)
		fmt.Fprintf(&b, "- Type: %s\n", t.Type)
		fmt.Fprintf(&b, "- Status: %s\n", t.Status)
		fmt.Fprintf(&b, "- Expected: %s\n", t.ExpectedResult)
		fmt.Fprintf(&b, "- Actual: %s\n", t.ActualResult)
		if t.Hash != "" {
			fmt.Fprintf(&b, "- Hash: [%s](%s)\n", t.Hash, t.ExplorerURL)
		}
		if t.SubmittedAt != nil {
			fmt.Fprintf(&b, "- Submitted: %s\n", t.SubmittedAt.Format(time.RFC3339))
		}
		if t.Transaction != nil {
			pretty, err := json.MarshalIndent(t.Transaction, "", "  ")
			if err == nil {
				fmt.Fprintf(&b, "\n```json\n%s\n```\n", pretty)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
