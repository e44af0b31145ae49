package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/xrplbench/internal/catalog"
	"github.com/LeJamon/xrplbench/internal/registry"
	"github.com/LeJamon/xrplbench/internal/runner"
	"github.com/LeJamon/xrplbench/internal/xrplclient"
)

// fakeClient satisfies the runner's network boundary without a node.
type fakeClient struct {
	connects int
}

func (f *fakeClient) Connect(ctx context.Context) error { f.connects++; return nil }
func (f *fakeClient) Disconnect() error                 { return nil }
func (f *fakeClient) LedgerIndex(ctx context.Context) (uint32, error) {
	return 1000, nil
}
func (f *fakeClient) Submit(ctx context.Context, tx map[string]any, signer xrplclient.Signer) (*xrplclient.SubmitResult, error) {
	return &xrplclient.SubmitResult{Code: "tesSUCCESS", Hash: "CAFE", Validated: true, Tx: tx}, nil
}

type fixture struct {
	reg    *registry.Registry
	srv    *httptest.Server
	h      *Handler
	client *fakeClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)

	reg := registry.New()
	client := &fakeClient{}
	run := runner.New(reg, client, cat.ResolveFieldType)

	networks := map[string]string{
		"testnet": "wss://s.altnet.rippletest.net:51233",
		"devnet":  "wss://s.devnet.rippletest.net:51233",
	}
	h := NewHandler(cat, reg, run, networks, nil, nil)
	s := NewServer(":0", h, NewHub(nil), nil)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &fixture{reg: reg, srv: srv, h: h, client: client}
}

// call posts one JSON-RPC request and decodes the result into out.
func (f *fixture) call(t *testing.T, method string, params any, out any) *jsonrpcError {
	t.Helper()
	body := map[string]any{"jsonrpc": "2.0", "method": method, "id": 1}
	if params != nil {
		body["params"] = params
	}
	blob, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(f.srv.URL, "application/json", bytes.NewReader(blob))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonrpcError   `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if envelope.Error != nil {
		return envelope.Error
	}
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Result, out))
	}
	return nil
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestCatalogMethods(t *testing.T) {
	f := newFixture(t)

	var types []string
	require.Nil(t, f.call(t, "catalog_types", nil, &types))
	assert.Contains(t, types, "Payment")
	assert.NotContains(t, types, "Invalid")

	var format []struct {
		Name     string `json:"name"`
		Required bool   `json:"required"`
	}
	require.Nil(t, f.call(t, "catalog_format", map[string]any{"type": "Payment"}, &format))
	names := map[string]bool{}
	for _, e := range format {
		names[e.Name] = e.Required
	}
	assert.True(t, names["Destination"])

	var codes []string
	require.Nil(t, f.call(t, "catalog_result_codes", nil, &codes))
	assert.Contains(t, codes, "tesSUCCESS")

	rpcErr := f.call(t, "catalog_format", map[string]any{"type": "Bogus"}, nil)
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32603, rpcErr.Code)
}

func TestTestLifecycleOverRPC(t *testing.T) {
	f := newFixture(t)

	var created registry.Test
	require.Nil(t, f.call(t, "test_create", map[string]any{"name": "payment"}, &created))
	assert.Equal(t, "payment", created.Name)

	require.Nil(t, f.call(t, "test_set_type",
		map[string]any{"testId": created.ID, "type": "Payment"}, &created))
	assert.Equal(t, "Payment", created.TransactionType)

	rpcErr := f.call(t, "test_set_type",
		map[string]any{"testId": created.ID, "type": "NotAType"}, nil)
	require.NotNil(t, rpcErr)

	require.Nil(t, f.call(t, "field_add", map[string]any{
		"testId": created.ID,
		"field":  map[string]any{"name": "Amount", "value": "1000000"},
	}, &created))
	require.Len(t, created.Fields, 1)

	// Duplicate field names are rejected.
	rpcErr = f.call(t, "field_add", map[string]any{
		"testId": created.ID,
		"field":  map[string]any{"name": "Amount", "value": "5"},
	}, nil)
	require.NotNil(t, rpcErr)

	require.Nil(t, f.call(t, "field_add", map[string]any{
		"testId": created.ID,
		"field": map[string]any{"name": "SendMax", "value": map[string]any{
			"currency": "USD", "issuer": "rIssuer", "value": "7",
		}},
	}, &created))

	var preview map[string]any
	require.Nil(t, f.call(t, "test_preview", map[string]any{"testId": created.ID}, &preview))
	assert.Equal(t, "Payment", preview["TransactionType"])
	assert.Equal(t, "1000000", preview["Amount"])
	assert.Equal(t, map[string]any{
		"currency": "USD", "issuer": "rIssuer", "value": "7",
	}, preview["SendMax"])

	var list testListResult
	require.Nil(t, f.call(t, "test_list", nil, &list))
	// The fixture registry starts empty, so only the created test exists.
	require.Len(t, list.Tests, 1)
	assert.Equal(t, created.ID, list.CurrentID)
}

func TestRunSingleOverRPC(t *testing.T) {
	f := newFixture(t)

	var created registry.Test
	require.Nil(t, f.call(t, "test_create", nil, &created))
	require.Nil(t, f.call(t, "test_set_type",
		map[string]any{"testId": created.ID, "type": "AccountSet"}, nil))
	require.Nil(t, f.call(t, "account_add",
		map[string]any{"address": "rSigner", "seed": "sSeed"}, nil))

	var done registry.Test
	require.Nil(t, f.call(t, "run_single", map[string]any{"testId": created.ID}, &done))
	assert.Equal(t, registry.StatusPassed, done.Status)
	assert.Equal(t, "tesSUCCESS", done.ActualResult)
	assert.Equal(t, "CAFE", done.Hash)
	assert.Equal(t, 1, f.client.connects)
}

func TestAccountsOverRPC(t *testing.T) {
	f := newFixture(t)
	f.h.generate = func() (xrplclient.Signer, error) {
		return xrplclient.Signer{Address: "rGenerated", Seed: "sGenerated"}, nil
	}

	var generated registry.Account
	require.Nil(t, f.call(t, "account_generate", map[string]any{"name": "fresh"}, &generated))
	assert.Equal(t, "rGenerated", generated.Address)

	var accounts []registry.Account
	require.Nil(t, f.call(t, "accounts_list", nil, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "fresh", accounts[0].Name)

	rpcErr := f.call(t, "account_add", map[string]any{"name": "noaddr"}, nil)
	require.NotNil(t, rpcErr)
	assert.Contains(t, rpcErr.Message, "address")
}

func TestNetworkSwitchOverRPC(t *testing.T) {
	f := newFixture(t)

	var retargeted string
	f.h.retarget = func(endpoint string) { retargeted = endpoint }

	var got map[string]string
	require.Nil(t, f.call(t, "network_set", map[string]any{"network": "devnet"}, &got))
	assert.Equal(t, "devnet", got["network"])
	assert.Equal(t, "wss://s.devnet.rippletest.net:51233", retargeted)

	require.Nil(t, f.call(t, "network_get", nil, &got))
	assert.Equal(t, "devnet", got["network"])

	rpcErr := f.call(t, "network_set", map[string]any{"network": "moonnet"}, nil)
	require.NotNil(t, rpcErr)
}

func TestUnknownMethodAndBadPayload(t *testing.T) {
	f := newFixture(t)

	rpcErr := f.call(t, "no_such_method", nil, nil)
	require.NotNil(t, rpcErr)
	assert.Contains(t, rpcErr.Message, "not found")

	resp, err := http.Post(f.srv.URL, "application/json", bytes.NewReader([]byte("{garbage")))
	require.NoError(t, err)
	defer resp.Body.Close()
	var envelope struct {
		Error *jsonrpcError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, -32700, envelope.Error.Code)

	getResp, err := http.Get(f.srv.URL)
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, getResp.StatusCode)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	// No clients connected: broadcasting must not block or panic.
	hub.TestStatusChanged(registry.Test{ID: "t1", Status: registry.StatusRunning})
	hub.Close()
}
