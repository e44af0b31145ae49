package registry

import "time"

// Status is the lifecycle state of a test.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
)

// Evaluated reports whether the test has reached a terminal graded state.
func (s Status) Evaluated() bool {
	return s == StatusPassed || s == StatusFailed
}

// DefaultExpectedResult is the expected engine result of a new test.
const DefaultExpectedResult = "tesSUCCESS"

// Test is a named transaction spec: a transaction type, an ordered field
// list, an expected engine result, and the outcome of its last run.
type Test struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	TransactionType string     `json:"transactionType,omitempty"`
	Fields          []Field    `json:"fields"`
	Status          Status     `json:"status"`
	ExpectedResult  string     `json:"expectedResult"`
	ActualResult    string     `json:"actualResult,omitempty"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	Hash            string     `json:"hash,omitempty"`
}

// clone returns a deep copy so callers cannot mutate registry-owned state.
func (t *Test) clone() Test {
	out := *t
	out.Fields = make([]Field, len(t.Fields))
	copy(out.Fields, t.Fields)
	if t.SubmittedAt != nil {
		at := *t.SubmittedAt
		out.SubmittedAt = &at
	}
	return out
}

// fieldIndex returns the position of a field by name, or -1.
func (t *Test) fieldIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Account is a configured account: an address and, for accounts that can
// sign and submit, the seed.
type Account struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
	Seed    string `json:"seed,omitempty"`
}

// CanSign reports whether the account carries signing material.
func (a Account) CanSign() bool { return a.Seed != "" }
