package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LeJamon/xrplbench/internal/registry"
)

// Workspace snapshot keys. Tests and accounts are JSON blobs, the network is
// a bare string.
const (
	keyTests    = "workspace:tests"
	keyAccounts = "workspace:accounts"
	keyNetwork  = "workspace:network"
)

// Workspace snapshots registry state into a KV store. It implements
// registry.Persister.
type Workspace struct {
	kv KV
}

// NewWorkspace wraps a KV store.
func NewWorkspace(kv KV) *Workspace {
	return &Workspace{kv: kv}
}

// SaveTests persists the test collection snapshot.
func (w *Workspace) SaveTests(s registry.Snapshot) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding tests snapshot: %w", err)
	}
	return w.kv.Set(keyTests, string(blob))
}

// LoadTests restores the persisted snapshot. The second return is false when
// nothing has been persisted yet.
func (w *Workspace) LoadTests() (registry.Snapshot, bool, error) {
	blob, err := w.kv.Get(keyTests)
	if errors.Is(err, ErrKeyNotFound) {
		return registry.Snapshot{}, false, nil
	}
	if err != nil {
		return registry.Snapshot{}, false, err
	}
	var s registry.Snapshot
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return registry.Snapshot{}, false, fmt.Errorf("decoding tests snapshot: %w", err)
	}
	return s, true, nil
}

// SaveAccounts persists the account list.
func (w *Workspace) SaveAccounts(accounts []registry.Account) error {
	blob, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encoding accounts: %w", err)
	}
	return w.kv.Set(keyAccounts, string(blob))
}

// LoadAccounts restores the persisted account list.
func (w *Workspace) LoadAccounts() ([]registry.Account, bool, error) {
	blob, err := w.kv.Get(keyAccounts)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var accounts []registry.Account
	if err := json.Unmarshal([]byte(blob), &accounts); err != nil {
		return nil, false, fmt.Errorf("decoding accounts: %w", err)
	}
	return accounts, true, nil
}

// SaveNetwork persists the selected network name.
func (w *Workspace) SaveNetwork(name string) error {
	return w.kv.Set(keyNetwork, name)
}

// LoadNetwork restores the selected network name.
func (w *Workspace) LoadNetwork() (string, bool, error) {
	name, err := w.kv.Get(keyNetwork)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}
