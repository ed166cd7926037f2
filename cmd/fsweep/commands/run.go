package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fsweep/fsweep/pkg/types"
	"github.com/fsweep/fsweep/pkg/workflow"
)

func newRunCmd(configPath *string) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "run <workflow-file> <root>...",
		Short: MsgRunShort,
		Example: `  fsweep run downloads.yaml ~/Downloads
  fsweep run -v sort-photos.toml ~/Pictures ~/Desktop`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, *configPath, args[0], args[1:], types.ModeExecute, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, MsgFlagJSON)
	return cmd
}

func newPreviewCmd(configPath *string) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:     "preview <workflow-file> <root>...",
		Short:   MsgPreviewShort,
		Example: `  fsweep preview downloads.yaml ~/Downloads`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, *configPath, args[0], args[1:], types.ModePreview, jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, MsgFlagJSON)
	return cmd
}

func runWorkflow(cmd *cobra.Command, configPath, workflowPath string, roots []string, mode types.RunMode, jsonOut bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	wf, err := workflow.Load(workflowPath)
	if err != nil {
		return err
	}
	if roots, err = expandRoots(roots); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress func(types.Progress)
	if !jsonOut {
		progress = progressReporter()
	}
	runner := workflow.NewRunner(a.fs, a.trash, a.ledger, a.cfg,
		workflow.WithProgress(progress))

	log.Info().
		Str("workflow", wf.ID).
		Str("mode", string(mode)).
		Strs("roots", roots).
		Msg("Running workflow")

	var result *types.WorkflowResult
	if mode == types.ModePreview {
		result, err = runner.Preview(ctx, *wf, roots)
	} else {
		result, err = runner.Execute(ctx, *wf, roots)
	}
	if result != nil {
		if jsonOut {
			if jerr := renderResultJSON(cmd.OutOrStdout(), result); jerr != nil {
				return jerr
			}
		} else {
			renderResult(cmd.OutOrStdout(), result)
			if mode == types.ModePreview {
				fmt.Fprintln(cmd.OutOrStdout(), MsgPreviewNotice)
			}
		}
	}
	return err
}

// progressReporter returns a batch progress callback rendered as a
// terminal progress bar, or nil when stdout is not a TTY.
func progressReporter() func(types.Progress) {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}

	var (
		mu   sync.Mutex
		bar  *pterm.ProgressbarPrinter
		done int
	)
	return func(p types.Progress) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar, _ = pterm.DefaultProgressbar.
				WithTotal(p.Total).
				WithTitle("Processing").
				Start()
		}
		bar.Add(p.Processed - done)
		done = p.Processed
		if p.Processed >= p.Total {
			_, _ = bar.Stop()
			bar = nil
			done = 0
		}
	}
}
