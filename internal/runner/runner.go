// Package runner drives tests through build → submit → await-result →
// classify → record. Tests execute strictly sequentially: a later test never
// starts before the previous one's network round trip has finished, keeping
// on-ledger side effects (sequence consumption by the signing account)
// deterministic.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/LeJamon/xrplbench/internal/registry"
	"github.com/LeJamon/xrplbench/internal/report"
	"github.com/LeJamon/xrplbench/internal/resultcode"
	"github.com/LeJamon/xrplbench/internal/txbuild"
	"github.com/LeJamon/xrplbench/internal/xrplclient"
)

// Messages recorded as ActualResult on precondition failures.
const (
	resultNoTransactionType = "No transaction type"
	resultNoSigningAccount  = "No signing account"
)

// defaultLastLedgerOffset bounds how many ledgers a submission may stay
// pending before the network rejects it, so stuck transactions fail fast
// instead of hanging the run.
const defaultLastLedgerOffset = 20

// Client is the network boundary the runner submits through. The production
// implementation is xrplclient.NodeClient.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect() error
	LedgerIndex(ctx context.Context) (uint32, error)
	Submit(ctx context.Context, tx map[string]any, signer xrplclient.Signer) (*xrplclient.SubmitResult, error)
}

// Notifier observes test status transitions, e.g. to stream them to the UI.
type Notifier interface {
	TestStatusChanged(t registry.Test)
}

// Archiver records finished batch runs. Failures are logged, never fatal.
type Archiver interface {
	SaveRun(ctx context.Context, rep report.Report) error
}

// Runner executes tests against a live node.
type Runner struct {
	// mu serializes runs: concurrent API calls must not interleave
	// submissions from the same signing account.
	mu sync.Mutex

	reg     *registry.Registry
	client  Client
	resolve txbuild.TypeResolver
	notify  Notifier
	archive Archiver
	log     *zap.Logger

	lastLedgerOffset uint32
}

// Option configures a Runner.
type Option func(*Runner)

// WithNotifier streams status transitions to an observer.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notify = n }
}

// WithArchiver records completed batch runs.
func WithArchiver(a Archiver) Option {
	return func(r *Runner) { r.archive = a }
}

// WithLogger sets the runner's logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithLastLedgerOffset overrides the terminal-ledger-sequence offset.
func WithLastLedgerOffset(n uint32) Option {
	return func(r *Runner) {
		if n > 0 {
			r.lastLedgerOffset = n
		}
	}
}

// New creates a runner over a registry, a network client, and a field type
// resolver.
func New(reg *registry.Registry, client Client, resolve txbuild.TypeResolver, opts ...Option) *Runner {
	r := &Runner{
		reg:              reg,
		client:           client,
		resolve:          resolve,
		log:              zap.NewNop(),
		lastLedgerOffset: defaultLastLedgerOffset,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunSingle executes one test end to end. An unknown id returns an error
// without touching registry state; every other failure is recorded on the
// test itself and does not surface as an error.
func (r *Runner) RunSingle(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runOne(ctx, id)
}

// RunAll resets every test and executes them sequentially in registry order.
// One test's failure never aborts the batch. Returns the aggregate summary.
func (r *Runner) RunAll(ctx context.Context) (report.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reg.ResetAll()
	tests := r.reg.Tests()
	r.log.Info("starting batch run", zap.Int("tests", len(tests)))

	for _, t := range tests {
		if err := r.runOne(ctx, t.ID); err != nil {
			// Only possible when a test is deleted mid-batch; isolate it.
			r.log.Warn("skipping test", zap.String("id", t.ID), zap.Error(err))
		}
	}

	final := r.reg.Tests()
	summary := report.Summarize(final)
	r.log.Info("batch run finished",
		zap.Int("total", summary.Total),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed),
		zap.Int("passRate", summary.PassRate))

	if r.archive != nil {
		rep := report.New(final, r.reg.Network(), func(t registry.Test) map[string]any {
			return txbuild.Build(t, r.resolve)
		})
		if err := r.archive.SaveRun(ctx, rep); err != nil {
			r.log.Warn("archiving run failed", zap.Error(err))
		}
	}
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, id string) error {
	t, ok := r.reg.Test(id)
	if !ok {
		return fmt.Errorf("run test %q: %w", id, registry.ErrTestNotFound)
	}

	if t.TransactionType == "" {
		r.finish(id, registry.StatusFailed, resultNoTransactionType)
		return nil
	}

	tx := txbuild.Build(t, r.resolve)

	signer, ok := r.reg.SigningAccount()
	if !ok {
		r.finish(id, registry.StatusFailed, resultNoSigningAccount)
		return nil
	}

	r.transition(id, registry.StatusRunning, "")
	r.log.Info("submitting test",
		zap.String("name", t.Name),
		zap.String("type", t.TransactionType),
		zap.String("expected", t.ExpectedResult))

	res, err := r.submit(ctx, tx, signer)
	if err != nil {
		if code, ok := resultcode.CodeFrom(err); ok {
			// The client rejected the transaction with an engine result;
			// grade it like any other outcome so failures can be expected.
			r.grade(id, t.ExpectedResult, code, "")
			return nil
		}
		r.finish(id, registry.StatusFailed, err.Error())
		return nil
	}

	r.grade(id, t.ExpectedResult, res.Code, res.Hash)
	return nil
}

// submit performs the network round trip: connect, fill submission defaults,
// strip empty values, submit-and-wait, disconnect.
func (r *Runner) submit(ctx context.Context, tx map[string]any, account registry.Account) (*xrplclient.SubmitResult, error) {
	if err := r.client.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.client.Disconnect(); err != nil {
			r.log.Warn("disconnect failed", zap.Error(err))
		}
	}()

	if _, ok := tx["Account"]; !ok {
		tx["Account"] = account.Address
	}
	if _, ok := tx["LastLedgerSequence"]; !ok {
		idx, err := r.client.LedgerIndex(ctx)
		if err != nil {
			return nil, err
		}
		tx["LastLedgerSequence"] = idx + r.lastLedgerOffset
	}
	stripEmpty(tx)

	return r.client.Submit(ctx, tx, xrplclient.Signer{Address: account.Address, Seed: account.Seed})
}

// grade compares the actual result code against the expected one.
func (r *Runner) grade(id, expected, actual, hash string) {
	if hash != "" {
		if err := r.reg.SetHash(id, hash); err != nil {
			r.log.Warn("recording hash failed", zap.Error(err))
		}
	}
	status := registry.StatusFailed
	if actual == expected {
		status = registry.StatusPassed
	}
	r.finish(id, status, actual)
}

func (r *Runner) transition(id string, status registry.Status, actual string) {
	if err := r.reg.SetStatus(id, status, actual); err != nil {
		r.log.Warn("status transition failed", zap.String("id", id), zap.Error(err))
		return
	}
	if r.notify != nil {
		if t, ok := r.reg.Test(id); ok {
			r.notify.TestStatusChanged(t)
		}
	}
}

func (r *Runner) finish(id string, status registry.Status, actual string) {
	r.transition(id, status, actual)
	r.log.Info("test finished",
		zap.String("id", id),
		zap.String("status", string(status)),
		zap.String("actual", actual))
}

// stripEmpty removes keys whose value would be meaningless on the wire:
// nils, blank strings, and empty objects.
func stripEmpty(tx map[string]any) {
	for k, v := range tx {
		switch val := v.(type) {
		case nil:
			delete(tx, k)
		case string:
			if strings.TrimSpace(val) == "" {
				delete(tx, k)
			}
		case map[string]any:
			if len(val) == 0 {
				delete(tx, k)
			}
		}
	}
}
