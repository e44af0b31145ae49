// Package registry owns the ordered collection of transaction tests, the
// current-test pointer, and the configured accounts. It is the single writer
// of test state; the runner and the UI boundary mutate tests only through it.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrTestNotFound is returned when an id does not resolve to a test.
	ErrTestNotFound = errors.New("test not found")

	// ErrDuplicateField is returned when adding a field whose name already
	// exists on the test. The original value is preserved.
	ErrDuplicateField = errors.New("field already exists on test")

	// ErrFieldNotFound is returned when updating or removing an absent field.
	ErrFieldNotFound = errors.New("field not found on test")
)

// Persister snapshots registry state to durable storage. Implementations
// must tolerate being called on every mutation; failures are logged by the
// registry and never block in-memory operation.
type Persister interface {
	SaveTests(Snapshot) error
	SaveAccounts([]Account) error
	SaveNetwork(name string) error
}

// Snapshot is the persisted form of the test collection.
type Snapshot struct {
	Tests       []Test `json:"tests"`
	CurrentID   string `json:"currentId"`
	NameCounter int    `json:"nameCounter"`
}

// Registry holds the test collection, accounts, and selected network.
// All methods are safe for concurrent use; the mutex makes the server's
// request handlers and the runner see consistent state.
type Registry struct {
	mu          sync.Mutex
	tests       []*Test
	currentID   string
	nameCounter int
	accounts    []Account
	network     string

	persist Persister
	log     *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithPersister wires durable snapshotting into every mutation.
func WithPersister(p Persister) Option {
	return func(r *Registry) { r.persist = p }
}

// WithLogger sets the logger used for non-fatal persistence failures.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateTest allocates a new test, appends it, and makes it current. An
// empty name gets the next auto-generated "Test N" label; the counter is
// monotonic and never reused, even after deletions.
func (r *Registry) CreateTest(name string) Test {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		r.nameCounter++
		name = fmt.Sprintf("Test %d", r.nameCounter)
	}
	t := &Test{
		ID:             uuid.NewString(),
		Name:           name,
		Fields:         []Field{},
		Status:         StatusPending,
		ExpectedResult: DefaultExpectedResult,
	}
	r.tests = append(r.tests, t)
	r.currentID = t.ID
	r.persistTests()
	return t.clone()
}

// RemoveTest deletes a test by id. Removing the current test moves the
// pointer to the first remaining test, or clears it when none remain.
// Unknown ids are a no-op.
func (r *Registry) RemoveTest(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, t := range r.tests {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	r.tests = append(r.tests[:idx], r.tests[idx+1:]...)
	if r.currentID == id {
		if len(r.tests) > 0 {
			r.currentID = r.tests[0].ID
		} else {
			r.currentID = ""
		}
	}
	r.persistTests()
}

// Test returns a copy of the test with the given id.
func (r *Registry) Test(id string) (Test, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return Test{}, false
	}
	return t.clone(), true
}

// Tests returns copies of all tests in registry order.
func (r *Registry) Tests() []Test {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Test, len(r.tests))
	for i, t := range r.tests {
		out[i] = t.clone()
	}
	return out
}

// Current returns the test selected for editing, if any.
func (r *Registry) Current() (Test, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(r.currentID)
	if t == nil {
		return Test{}, false
	}
	return t.clone(), true
}

// CurrentID returns the current-test pointer, empty when unset.
func (r *Registry) CurrentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID
}

// SwitchCurrent moves the current-test pointer.
func (r *Registry) SwitchCurrent(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(id) == nil {
		return fmt.Errorf("switch current to %q: %w", id, ErrTestNotFound)
	}
	r.currentID = id
	r.persistTests()
	return nil
}

// SetTransactionType sets the test's transaction type.
func (r *Registry) SetTransactionType(id, typeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("set transaction type on %q: %w", id, ErrTestNotFound)
	}
	t.TransactionType = typeName
	r.persistTests()
	return nil
}

// SetExpectedResult sets the result code the test is graded against.
func (r *Registry) SetExpectedResult(id, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("set expected result on %q: %w", id, ErrTestNotFound)
	}
	t.ExpectedResult = code
	r.persistTests()
	return nil
}

// RenameTest changes a test's human label.
func (r *Registry) RenameTest(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("rename %q: %w", id, ErrTestNotFound)
	}
	t.Name = name
	r.persistTests()
	return nil
}

// AddField appends a field to the test. Duplicate names are rejected with
// ErrDuplicateField and the original value is preserved.
func (r *Registry) AddField(id, fieldName string, value FieldValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("add field on %q: %w", id, ErrTestNotFound)
	}
	if t.fieldIndex(fieldName) >= 0 {
		return fmt.Errorf("field %q: %w", fieldName, ErrDuplicateField)
	}
	t.Fields = append(t.Fields, Field{Name: fieldName, Value: value})
	r.persistTests()
	return nil
}

// UpdateFieldValue replaces the value of an existing field.
func (r *Registry) UpdateFieldValue(id, fieldName string, value FieldValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("update field on %q: %w", id, ErrTestNotFound)
	}
	idx := t.fieldIndex(fieldName)
	if idx < 0 {
		return fmt.Errorf("field %q: %w", fieldName, ErrFieldNotFound)
	}
	t.Fields[idx].Value = value
	r.persistTests()
	return nil
}

// RemoveField deletes a field from the test's list.
func (r *Registry) RemoveField(id, fieldName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("remove field on %q: %w", id, ErrTestNotFound)
	}
	idx := t.fieldIndex(fieldName)
	if idx < 0 {
		return fmt.Errorf("field %q: %w", fieldName, ErrFieldNotFound)
	}
	t.Fields = append(t.Fields[:idx], t.Fields[idx+1:]...)
	r.persistTests()
	return nil
}

// SetStatus updates a test's status and, when non-empty, its actual result.
// Transitioning to running stamps SubmittedAt and drops the previous run's
// outcome, so a re-run never shows a hash or result from an older submission.
func (r *Registry) SetStatus(id string, status Status, actualResult string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("set status on %q: %w", id, ErrTestNotFound)
	}
	t.Status = status
	if actualResult != "" {
		t.ActualResult = actualResult
	}
	if status == StatusRunning {
		now := time.Now().UTC()
		t.SubmittedAt = &now
		t.ActualResult = ""
		t.Hash = ""
	}
	r.persistTests()
	return nil
}

// SetHash records the transaction hash of a successful submission.
func (r *Registry) SetHash(id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.find(id)
	if t == nil {
		return fmt.Errorf("set hash on %q: %w", id, ErrTestNotFound)
	}
	t.Hash = hash
	r.persistTests()
	return nil
}

// ResetAll returns every test to its initial runnable state: status pending,
// actual result, hash, and submission time cleared.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tests {
		t.Status = StatusPending
		t.ActualResult = ""
		t.Hash = ""
		t.SubmittedAt = nil
	}
	r.persistTests()
}

// Clear resets the whole workspace: all tests are dropped, the name counter
// restarts, and one fresh default test is created and made current.
func (r *Registry) Clear() Test {
	r.mu.Lock()
	r.tests = nil
	r.currentID = ""
	r.nameCounter = 0
	r.mu.Unlock()

	return r.CreateTest("")
}

// Snapshot captures the test collection for persistence.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Restore replaces registry state from a persisted snapshot. A dangling
// current pointer is repaired to the first test.
func (r *Registry) Restore(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tests = make([]*Test, len(s.Tests))
	for i := range s.Tests {
		t := s.Tests[i].clone()
		r.tests[i] = &t
	}
	r.nameCounter = s.NameCounter
	r.currentID = ""
	if r.find(s.CurrentID) != nil {
		r.currentID = s.CurrentID
	} else if len(r.tests) > 0 {
		r.currentID = r.tests[0].ID
	}
}

// Accounts returns the configured accounts.
func (r *Registry) Accounts() []Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// AddAccount appends an account to the configured list.
func (r *Registry) AddAccount(a Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = append(r.accounts, a)
	if r.persist != nil {
		if err := r.persist.SaveAccounts(r.accounts); err != nil {
			r.log.Warn("persisting accounts failed", zap.Error(err))
		}
	}
}

// RestoreAccounts replaces the account list from a persisted snapshot.
func (r *Registry) RestoreAccounts(accounts []Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = make([]Account, len(accounts))
	copy(r.accounts, accounts)
}

// SigningAccount returns the first account that can sign, if any.
func (r *Registry) SigningAccount() (Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.CanSign() {
			return a, true
		}
	}
	return Account{}, false
}

// Network returns the selected network name.
func (r *Registry) Network() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.network
}

// SetNetwork selects the network submissions go to.
func (r *Registry) SetNetwork(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.network = name
	if r.persist != nil {
		if err := r.persist.SaveNetwork(name); err != nil {
			r.log.Warn("persisting network failed", zap.Error(err))
		}
	}
}

func (r *Registry) find(id string) *Test {
	if id == "" {
		return nil
	}
	for _, t := range r.tests {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (r *Registry) snapshotLocked() Snapshot {
	s := Snapshot{
		Tests:       make([]Test, len(r.tests)),
		CurrentID:   r.currentID,
		NameCounter: r.nameCounter,
	}
	for i, t := range r.tests {
		s.Tests[i] = t.clone()
	}
	return s
}

// persistTests is called with the lock held by every test mutation.
func (r *Registry) persistTests() {
	if r.persist == nil {
		return
	}
	if err := r.persist.SaveTests(r.snapshotLocked()); err != nil {
		r.log.Warn("persisting tests failed", zap.Error(err))
	}
}
