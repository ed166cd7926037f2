package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fsweep/fsweep/pkg/types"
	"github.com/fsweep/fsweep/pkg/watcher"
	"github.com/fsweep/fsweep/pkg/workflow"
)

func newWatchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "watch <workflow-file> <root>...",
		Short:   MsgWatchShort,
		Example: `  fsweep watch downloads.yaml ~/Downloads`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			wf, err := workflow.Load(args[0])
			if err != nil {
				return err
			}
			roots, err := expandRoots(args[1:])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Long-lived process: sweep stale locks left behind by
			// crashed runs.
			a.lock.StartMonitor(ctx, a.cfg.LockMonitorInterval())

			runner := workflow.NewRunner(a.fs, a.trash, a.ledger, a.cfg,
				workflow.WithSource(types.SourceWatch))
			trigger := func(ctx context.Context, wf types.Workflow, roots []string) error {
				result, err := runner.Execute(ctx, wf, roots)
				if err != nil {
					return err
				}
				log.Info().
					Str("workflow", wf.ID).
					Int("processed", result.ProcessedFiles).
					Int("errors", len(result.Errors)).
					Msg("Watch-triggered run finished")
				return nil
			}

			w, err := watcher.New(*wf, roots, trigger,
				watcher.WithDebounce(a.cfg.Debounce()),
				watcher.WithSkipIfRunning(a.cfg.Watch.SkipIfRunning))
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			return w.Start(ctx)
		},
	}
}
