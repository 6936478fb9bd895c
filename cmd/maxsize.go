package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squash/internal/acquire"
	"squash/internal/search"
	"squash/internal/tui"
	"squash/internal/workflow"
)

var (
	maxSize       string
	maxBestEffort bool
	maxProgress   bool
	maxOutput     string
)

var maxSizeCmd = &cobra.Command{
	Use:   "maxsize --max-size SIZE [flags] [path]",
	Short: "Search for the best encoding that fits a byte budget",
	Long: "Lower the quality, then the dimensions, until the encoded image fits --max-size.\n" +
		"Sizes accept units, e.g. 100KB, 1MiB. With --best-effort the smallest image found\n" +
		"is kept even when it is still over budget.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, err := parseBudget(maxSize)
		if err != nil {
			return err
		}
		out := runMaxSize(cmd, acquirerFor(args), search.Budget{MaxBytes: budget, AcceptBestEffort: maxBestEffort}, maxProgress)
		return reportMaxSize(cmd, out, budget, maxOutput)
	},
}

func parseBudget(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("--max-size is required")
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("--max-size: %w", err)
	}
	if n == 0 || n > uint64(^uint(0)>>1) {
		return 0, fmt.Errorf("--max-size must be positive, got %q", s)
	}
	return int(n), nil
}

// runMaxSize runs one adaptive search. With progress the terminal view
// starts on the first attempt, after any interactive picker has closed.
func runMaxSize(cmd *cobra.Command, acq acquire.Acquirer, budget search.Budget, progress bool) workflow.Outcome {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !progress {
		return newController(acq).RunAdaptive(ctx, budget, false)
	}

	events := make(chan workflow.Event, 64)
	forwarded := forwardToUI(events, budget.MaxBytes, cancel)
	out := newController(acq, workflow.WithEvents(events)).RunAdaptive(ctx, budget, true)
	close(events)
	<-forwarded
	return out
}

func forwardToUI(events <-chan workflow.Event, budget int, cancel func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var (
			ui      chan workflow.Event
			uiDone  chan struct{}
			pending []workflow.Event
		)
		for e := range events {
			if ui == nil && e.Attempt == nil {
				pending = append(pending, e)
				continue
			}
			if ui == nil {
				ui = make(chan workflow.Event, 64)
				uiDone = make(chan struct{})
				program := tea.NewProgram(tui.NewModel(ui, budget, cancel))
				go func() {
					_, _ = program.Run()
					close(uiDone)
				}()
				for _, p := range pending {
					ui <- p
				}
			}
			ui <- e
		}
		if ui != nil {
			close(ui)
			<-uiDone
		}
	}()
	return done
}

func reportMaxSize(cmd *cobra.Command, out workflow.Outcome, budget int, output string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, tui.RenderOutcome(out))

	switch out.Kind {
	case workflow.KindNoInput:
		return nil
	case workflow.KindUnexpectedFailure:
		return out.Err
	}

	fmt.Fprintln(w, tui.RenderSummary(tui.OutcomeRows(out, budget)))
	if out.Kind == workflow.KindBudgetExhausted {
		return fmt.Errorf("%w (rerun with --best-effort to keep the %s result)", out.Err, humanize.Bytes(uint64(out.Search.Size())))
	}

	path, err := writeResult(output, out.Upload.FileName, out.Image)
	if err != nil {
		return err
	}
	printWritten(cmd, path, out.Image)
	return nil
}

func init() {
	maxSizeCmd.Flags().StringVar(&maxSize, "max-size", "", "byte budget, e.g. 100KB or 1MiB")
	maxSizeCmd.Flags().BoolVar(&maxBestEffort, "best-effort", false, "keep the closest result when the budget cannot be met")
	maxSizeCmd.Flags().BoolVar(&maxProgress, "progress", false, "show attempts while searching")
	maxSizeCmd.Flags().StringVarP(&maxOutput, "output", "o", "", "output file (default <name>-squashed.<ext>)")

	rootCmd.AddCommand(maxSizeCmd)
}
