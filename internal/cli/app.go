package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/LeJamon/xrplbench/internal/catalog"
	"github.com/LeJamon/xrplbench/internal/config"
	"github.com/LeJamon/xrplbench/internal/history"
	"github.com/LeJamon/xrplbench/internal/registry"
	"github.com/LeJamon/xrplbench/internal/runner"
	"github.com/LeJamon/xrplbench/internal/store"
	"github.com/LeJamon/xrplbench/internal/xrplclient"
)

// app bundles the wired components every command works with: configuration,
// catalog, the persisted registry, the node client, the runner, and the run
// archive.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	cat     *catalog.Catalog
	kv      store.KV
	reg     *registry.Registry
	client  *xrplclient.NodeClient
	runner  *runner.Runner
	archive *history.Archive
}

// newApp loads configuration, restores the persisted workspace, and wires
// the runner. Extra options are appended after the defaults, so callers can
// attach a notifier.
func newApp(opts ...runner.Option) (*app, error) {
	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	kv, err := store.OpenPebble(filepath.Join(cfg.DataDir, "workspace"))
	if err != nil {
		return nil, fmt.Errorf("opening workspace store: %w", err)
	}
	workspace := store.NewWorkspace(kv)

	reg := registry.New(
		registry.WithPersister(workspace),
		registry.WithLogger(log),
	)
	if err := restoreWorkspace(reg, workspace, cfg); err != nil {
		kv.Close()
		return nil, err
	}

	endpoint := cfg.Endpoint()
	if net, ok := cfg.Networks[reg.Network()]; ok {
		endpoint = net.Endpoint
	}
	client := xrplclient.New(xrplclient.Config{Endpoint: endpoint}, log)

	archive, err := history.Open(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		kv.Close()
		return nil, fmt.Errorf("opening run history: %w", err)
	}

	runnerOpts := append([]runner.Option{
		runner.WithLogger(log),
		runner.WithArchiver(archive),
		runner.WithLastLedgerOffset(cfg.LastLedgerOffset),
	}, opts...)

	return &app{
		cfg:     cfg,
		log:     log,
		cat:     cat,
		kv:      kv,
		reg:     reg,
		client:  client,
		runner:  runner.New(reg, client, cat.ResolveFieldType, runnerOpts...),
		archive: archive,
	}, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.DefinitionsFile != "" {
		return catalog.LoadFile(cfg.DefinitionsFile)
	}
	return catalog.Load()
}

// restoreWorkspace pulls persisted tests, accounts, and the network selection
// back into the registry. A first load (nothing persisted, or an empty
// collection) seeds one default test so a current test always exists. A
// missing network selection falls back to the configured default.
func restoreWorkspace(reg *registry.Registry, w *store.Workspace, cfg *config.Config) error {
	snap, ok, err := w.LoadTests()
	if err != nil {
		return fmt.Errorf("restoring tests: %w", err)
	}
	if ok {
		reg.Restore(snap)
	}
	if len(reg.Tests()) == 0 {
		reg.CreateTest("")
	}

	accounts, ok, err := w.LoadAccounts()
	if err != nil {
		return fmt.Errorf("restoring accounts: %w", err)
	}
	if ok {
		reg.RestoreAccounts(accounts)
	}

	network, ok, err := w.LoadNetwork()
	if err != nil {
		return fmt.Errorf("restoring network selection: %w", err)
	}
	if !ok || network == "" {
		network = cfg.Network
	}
	if _, known := cfg.Networks[network]; !known {
		network = cfg.Network
	}
	reg.SetNetwork(network)
	return nil
}

// networkEndpoints flattens the configured networks for the server handler.
func (a *app) networkEndpoints() map[string]string {
	out := make(map[string]string, len(a.cfg.Networks))
	for name, net := range a.cfg.Networks {
		out[name] = net.Endpoint
	}
	return out
}

func (a *app) close() {
	if err := a.archive.Close(); err != nil {
		a.log.Warn("closing run history", zap.Error(err))
	}
	if err := a.kv.Close(); err != nil {
		a.log.Warn("closing workspace store", zap.Error(err))
	}
	a.log.Sync()
}
