package server

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/LeJamon/xrplbench/internal/catalog"
	"github.com/LeJamon/xrplbench/internal/registry"
	"github.com/LeJamon/xrplbench/internal/report"
	"github.com/LeJamon/xrplbench/internal/runner"
	"github.com/LeJamon/xrplbench/internal/txbuild"
	"github.com/LeJamon/xrplbench/internal/xrplclient"
)

// methodFunc handles one JSON-RPC method.
type methodFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Handler dispatches the UI's JSON-RPC methods onto the catalog, the test
// registry, and the runner.
type Handler struct {
	cat      *catalog.Catalog
	reg      *registry.Registry
	run      *runner.Runner
	networks map[string]string // name -> endpoint
	retarget func(endpoint string)
	generate func() (xrplclient.Signer, error)
	log      *zap.Logger

	methods map[string]methodFunc
}

// NewHandler wires the method table. networks maps selectable network names
// to endpoints; retarget is called with the new endpoint when the network
// changes (nil to disable switching).
func NewHandler(cat *catalog.Catalog, reg *registry.Registry, run *runner.Runner,
	networks map[string]string, retarget func(string), log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		cat:      cat,
		reg:      reg,
		run:      run,
		networks: networks,
		retarget: retarget,
		generate: xrplclient.GenerateSigner,
		log:      log,
	}
	h.methods = map[string]methodFunc{
		"catalog_types":        h.catalogTypes,
		"catalog_format":       h.catalogFormat,
		"catalog_result_codes": h.catalogResultCodes,
		"test_list":            h.testList,
		"test_create":          h.testCreate,
		"test_remove":          h.testRemove,
		"test_switch":          h.testSwitch,
		"test_rename":          h.testRename,
		"test_set_type":        h.testSetType,
		"test_set_expected":    h.testSetExpected,
		"test_preview":         h.testPreview,
		"test_reset_all":       h.testResetAll,
		"test_clear":           h.testClear,
		"field_add":            h.fieldAdd,
		"field_update":         h.fieldUpdate,
		"field_remove":         h.fieldRemove,
		"run_single":           h.runSingle,
		"run_all":              h.runAll,
		"report_summary":       h.reportSummary,
		"report_structured":    h.reportStructured,
		"report_markdown":      h.reportMarkdown,
		"accounts_list":        h.accountsList,
		"account_add":          h.accountAdd,
		"account_generate":     h.accountGenerate,
		"network_get":          h.networkGet,
		"network_set":          h.networkSet,
	}
	return h
}

// Handle dispatches one method call.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	fn, ok := h.methods[method]
	if !ok {
		return nil, fmt.Errorf("method %s not found", method)
	}
	return fn(ctx, params)
}

func decode[T any](params json.RawMessage) (T, error) {
	var p T
	if len(params) == 0 {
		return p, fmt.Errorf("missing params")
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return p, fmt.Errorf("invalid params: %w", err)
	}
	return p, nil
}

type testIDParams struct {
	TestID string `json:"testId"`
}

func (h *Handler) catalogTypes(ctx context.Context, params json.RawMessage) (any, error) {
	return h.cat.TransactionTypes(), nil
}

func (h *Handler) catalogFormat(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[struct {
		Type string `json:"type"`
	}](params)
	if err != nil {
		return nil, err
	}
	format, ok := h.cat.Format(p.Type)
	if !ok {
		return nil, fmt.Errorf("unknown transaction type %q", p.Type)
	}
	type entry struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	}
	out := make([]entry, len(format))
	for i, f := range format {
		out[i] = entry{Name: f.Name, Required: f.Required()}
	}
	return out, nil
}

func (h *Handler) catalogResultCodes(ctx context.Context, params json.RawMessage) (any, error) {
	return h.cat.ResultCodes(), nil
}

type testListResult struct {
	Tests     []registry.Test `json:"tests"`
	CurrentID string          `json:"currentId"`
}

func (h *Handler) testList(ctx context.Context, params json.RawMessage) (any, error) {
	return testListResult{Tests: h.reg.Tests(), CurrentID: h.reg.CurrentID()}, nil
}

func (h *Handler) testCreate(ctx context.Context, params json.RawMessage) (any, error) {
	var name string
	if len(params) > 0 {
		p, err := decode[struct {
			Name string `json:"name"`
		}](params)
		if err != nil {
			return nil, err
		}
		name = p.Name
	}
	return h.reg.CreateTest(name), nil
}

func (h *Handler) testRemove(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[testIDParams](params)
	if err != nil {
		return nil, err
	}
	h.reg.RemoveTest(p.TestID)
	return testListResult{Tests: h.reg.Tests(), CurrentID: h.reg.CurrentID()}, nil
}

func (h *Handler) testSwitch(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[testIDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.reg.SwitchCurrent(p.TestID); err != nil {
		return nil, err
	}
	current, _ := h.reg.Current()
	return current, nil
}

func (h *Handler) testRename(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[struct {
		TestID string `json:"testId"`
		Name   string `json:"name"`
	}](params)
	if err != nil {
		return nil, err
	}
	if err := h.reg.RenameTest(p.TestID, p.Name); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) testSetType(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[struct {
		TestID string `json:"testId"`
		Type   string `json:"type"`
	}](params)
	if err != nil {
		return nil, err
	}
	if _, ok := h.cat.TypeCode(p.Type); !ok {
		return nil, fmt.Errorf("unknown transaction type %q", p.Type)
	}
	if err := h.reg.SetTransactionType(p.TestID, p.Type); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) testSetExpected(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[struct {
		TestID string `json:"testId"`
		Code   string `json:"code"`
	}](params)
	if err != nil {
		return nil, err
	}
	if err := h.reg.SetExpectedResult(p.TestID, p.Code); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) testPreview(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[testIDParams](params)
	if err != nil {
		return nil, err
	}
	t, ok := h.reg.Test(p.TestID)
	if !ok {
		return nil, registry.ErrTestNotFound
	}
	return txbuild.Build(t, h.cat.ResolveFieldType), nil
}

func (h *Handler) testResetAll(ctx context.Context, params json.RawMessage) (any, error) {
	h.reg.ResetAll()
	return testListResult{Tests: h.reg.Tests(), CurrentID: h.reg.CurrentID()}, nil
}

func (h *Handler) testClear(ctx context.Context, params json.RawMessage) (any, error) {
	return h.reg.Clear(), nil
}

type fieldParams struct {
	TestID string         `json:"testId"`
	Field  registry.Field `json:"field"`
}

func (h *Handler) fieldAdd(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[fieldParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.reg.AddField(p.TestID, p.Field.Name, p.Field.Value); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) fieldUpdate(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[fieldParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.reg.UpdateFieldValue(p.TestID, p.Field.Name, p.Field.Value); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) fieldRemove(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[struct {
		TestID string `json:"testId"`
		Name   string `json:"name"`
	}](params)
	if err != nil {
		return nil, err
	}
	if err := h.reg.RemoveField(p.TestID, p.Name); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) runSingle(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[testIDParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.run.RunSingle(ctx, p.TestID); err != nil {
		return nil, err
	}
	return h.test(p.TestID)
}

func (h *Handler) runAll(ctx context.Context, params json.RawMessage) (any, error) {
	summary, err := h.run.RunAll(ctx)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (h *Handler) reportSummary(ctx context.Context, params json.RawMessage) (any, error) {
	return report.Summarize(h.reg.Tests()), nil
}

func (h *Handler) reportStructured(ctx context.Context, params json.RawMessage) (any, error) {
	return h.buildReport(), nil
}

func (h *Handler) reportMarkdown(ctx context.Context, params json.RawMessage) (any, error) {
	return map[string]string{"markdown": report.Markdown(h.buildReport())}, nil
}

func (h *Handler) buildReport() report.Report {
	return report.New(h.reg.Tests(), h.reg.Network(), func(t registry.Test) map[string]any {
		return txbuild.Build(t, h.cat.ResolveFieldType)
	})
}

func (h *Handler) accountsList(ctx context.Context, params json.RawMessage) (any, error) {
	return h.reg.Accounts(), nil
}

func (h *Handler) accountAdd(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[registry.Account](params)
	if err != nil {
		return nil, err
	}
	if p.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	h.reg.AddAccount(p)
	return p, nil
}

func (h *Handler) accountGenerate(ctx context.Context, params json.RawMessage) (any, error) {
	var name string
	if len(params) > 0 {
		p, err := decode[struct {
			Name string `json:"name"`
		}](params)
		if err != nil {
			return nil, err
		}
		name = p.Name
	}
	signer, err := h.generate()
	if err != nil {
		return nil, fmt.Errorf("generating account: %w", err)
	}
	account := registry.Account{Name: name, Address: signer.Address, Seed: signer.Seed}
	h.reg.AddAccount(account)
	return account, nil
}

func (h *Handler) networkGet(ctx context.Context, params json.RawMessage) (any, error) {
	name := h.reg.Network()
	return map[string]string{
		"network":  name,
		"endpoint": h.networks[name],
	}, nil
}

func (h *Handler) networkSet(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[struct {
		Network string `json:"network"`
	}](params)
	if err != nil {
		return nil, err
	}
	endpoint, ok := h.networks[p.Network]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", p.Network)
	}
	h.reg.SetNetwork(p.Network)
	if h.retarget != nil {
		h.retarget(endpoint)
	}
	h.log.Info("network switched",
		zap.String("network", p.Network),
		zap.String("endpoint", endpoint))
	return map[string]string{"network": p.Network, "endpoint": endpoint}, nil
}

func (h *Handler) test(id string) (registry.Test, error) {
	t, ok := h.reg.Test(id)
	if !ok {
		return registry.Test{}, registry.ErrTestNotFound
	}
	return t, nil
}
