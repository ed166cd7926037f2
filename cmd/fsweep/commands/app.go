package commands

import (
	"os"

	"github.com/fsweep/fsweep/pkg/config"
	"github.com/fsweep/fsweep/pkg/filesystem"
	"github.com/fsweep/fsweep/pkg/history"
	"github.com/fsweep/fsweep/pkg/paths"
	"github.com/fsweep/fsweep/pkg/types"
)

// app bundles the wired components every command needs.
type app struct {
	cfg    *config.Config
	fs     types.FS
	trash  types.Trasher
	store  *history.Store
	lock   *history.Lock
	ledger *history.Ledger
}

// newApp loads configuration and opens the history store. Callers must
// call close when done.
func newApp(configPath string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(paths.DataDir(), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(paths.StateDir(), 0755); err != nil {
		return nil, err
	}

	store, err := history.OpenStore(paths.HistoryDB())
	if err != nil {
		return nil, err
	}

	fs := filesystem.NewOS()
	trash := filesystem.NewTrash(fs, paths.TrashDir())
	lock := history.NewLock(paths.LockFile(), cfg.LockStaleAfter())
	ledger := history.NewLedger(store, fs, trash, lock, cfg.LockTimeout(), history.Retention{
		MaxEntries: cfg.History.MaxEntries,
		MaxAge:     cfg.AutoCleanup(),
	})

	return &app{cfg: cfg, fs: fs, trash: trash, store: store, lock: lock, ledger: ledger}, nil
}

func (a *app) close() {
	_ = a.store.Close()
}

// expandRoots expands ~ prefixes in the root arguments so workflows
// can be invoked the way shells present paths.
func expandRoots(roots []string) ([]string, error) {
	out := make([]string, len(roots))
	for i, root := range roots {
		expanded, err := paths.ExpandHome(root)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}
