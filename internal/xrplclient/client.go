// Package xrplclient wraps the external xrpl-go client library behind the
// small surface the runner needs: connect, read the validated ledger index,
// autofill-sign-submit-and-wait, disconnect. Errors crossing this boundary
// are wrapped as resultcode.CodedError so callers never pattern-match raw
// client exception text.
package xrplclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/Peersyst/xrpl-go/xrpl/transaction"
	"github.com/Peersyst/xrpl-go/xrpl/wallet"
	"github.com/Peersyst/xrpl-go/xrpl/websocket"
	"go.uber.org/zap"

	"github.com/LeJamon/xrplbench/internal/resultcode"
)

// Signer is the key material used to sign a submission.
type Signer struct {
	Address string
	Seed    string
}

// SubmitResult is the outcome of a validated submission.
type SubmitResult struct {
	// Code is the engine result code, e.g. "tesSUCCESS" or "tecNO_DST".
	Code string
	// Hash identifies the transaction on ledger.
	Hash string
	// Validated reports whether the transaction made it into a validated
	// ledger.
	Validated bool
	// Tx is the transaction JSON as submitted, after autofill.
	Tx map[string]any
}

// Config holds the node endpoint.
type Config struct {
	// Endpoint is the websocket URL of the XRPL node, e.g.
	// wss://s.altnet.rippletest.net:51233.
	Endpoint string
}

// NodeClient talks to a live XRPL node over websocket.
type NodeClient struct {
	// mu guards cfg: the endpoint can be retargeted between runs when the
	// user switches networks.
	mu  sync.Mutex
	cfg Config
	ws  *websocket.Client
	log *zap.Logger
}

// New creates a client for the configured endpoint. No connection is opened
// until Connect.
func New(cfg Config, log *zap.Logger) *NodeClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &NodeClient{cfg: cfg, log: log}
}

// SetEndpoint retargets the client. Takes effect on the next Connect.
func (c *NodeClient) SetEndpoint(url string) {
	c.mu.Lock()
	c.cfg.Endpoint = url
	c.mu.Unlock()
}

func (c *NodeClient) endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Endpoint
}

// Connect opens the websocket session.
func (c *NodeClient) Connect(ctx context.Context) error {
	endpoint := c.endpoint()
	ws := websocket.NewClient(websocket.NewClientConfig().WithHost(endpoint))
	if err := ws.Connect(); err != nil {
		return resultcode.WrapError(fmt.Errorf("connecting to %s: %w", endpoint, err))
	}
	c.ws = ws
	c.log.Debug("connected", zap.String("endpoint", endpoint))
	return nil
}

// Disconnect closes the session. Safe to call when not connected.
func (c *NodeClient) Disconnect() error {
	if c.ws == nil {
		return nil
	}
	ws := c.ws
	c.ws = nil
	if !ws.IsConnected() {
		return nil
	}
	return ws.Disconnect()
}

// LedgerIndex returns the index of the current validated ledger.
func (c *NodeClient) LedgerIndex(ctx context.Context) (uint32, error) {
	if c.ws == nil {
		return 0, resultcode.WrapError(errNotConnected)
	}
	idx, err := c.ws.GetLedgerIndex()
	if err != nil {
		return 0, resultcode.WrapError(fmt.Errorf("fetching validated ledger index: %w", err))
	}
	return uint32(idx), nil
}

// Submit autofills, signs with the signer's seed, submits the transaction,
// and waits until it is validated or expires past its terminal ledger
// sequence. Engine rejections surface as CodedError with the result code.
func (c *NodeClient) Submit(ctx context.Context, tx map[string]any, signer Signer) (*SubmitResult, error) {
	if c.ws == nil {
		return nil, resultcode.WrapError(errNotConnected)
	}

	w, err := wallet.FromSeed(signer.Seed, "")
	if err != nil {
		return nil, resultcode.WrapError(fmt.Errorf("deriving wallet from seed: %w", err))
	}

	flat := transaction.FlatTransaction(tx)
	if err := c.ws.Autofill(&flat); err != nil {
		return nil, resultcode.WrapError(fmt.Errorf("autofilling transaction: %w", err))
	}

	blob, _, err := w.Sign(flat)
	if err != nil {
		return nil, resultcode.WrapError(fmt.Errorf("signing transaction: %w", err))
	}

	resp, err := c.ws.SubmitTxBlobAndWait(blob, false)
	if err != nil {
		return nil, resultcode.WrapError(fmt.Errorf("submitting transaction: %w", err))
	}

	res := &SubmitResult{
		Hash:      string(resp.Hash),
		Validated: resp.Validated,
		Tx:        map[string]any(flat),
	}
	if meta, ok := resp.Meta.(map[string]any); ok {
		if code, ok := meta["TransactionResult"].(string); ok {
			res.Code = code
		}
	}
	c.log.Debug("submission validated",
		zap.String("hash", res.Hash),
		zap.String("result", res.Code))
	return res, nil
}
