package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/poller"
	"github.com/jmylchreest/toastd/internal/tui"
)

var watchOpts struct {
	tui      bool
	once     bool
	interval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the trigger file and show toasts in this terminal",
	Long: `Run the trigger file poller in-process and show each notification in
the terminal instead of on the desktop. Consumed files are deleted, exactly
as toastd does, so do not run this alongside toastd on the same file.

With --tui the toasts collect in an interactive window where they can be
dismissed, minimized and copied.

Examples:
  # Print toasts as they arrive
  toast watch

  # Interactive toast window
  toast watch --tui

  # Consume a pending notification, if any, and exit
  toast watch --once`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchOpts.tui, "tui", false,
		"Show toasts in the interactive toast window")
	watchCmd.Flags().BoolVar(&watchOpts.once, "once", false,
		"Poll once, wait for the toast to be shown, and exit")
	watchCmd.Flags().DurationVar(&watchOpts.interval, "interval", 0,
		"Poll interval (default: trigger.interval from the config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := cfg.Trigger.Interval.Duration()
	if watchOpts.interval > 0 {
		interval = watchOpts.interval
	}
	pcfg := poller.Config{Path: cfg.Trigger.Path, Interval: interval}
	plog := logger.With("component", "poller")

	if watchOpts.once {
		if watchOpts.tui {
			return fmt.Errorf("--once cannot be combined with --tui")
		}
		p := poller.New(pcfg, display.NewTerminalDisplay(cmd.OutOrStdout()), plog)
		outcome := p.Tick(ctx)
		p.Wait()
		logger.Debug("poll finished", "outcome", outcome)
		return nil
	}

	if !watchOpts.tui {
		watchTrigger(ctx, poller.New(pcfg, display.NewTerminalDisplay(cmd.OutOrStdout()), plog))
		return nil
	}

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollDone := make(chan struct{})
	err := tui.Run(ctx, func(d *tui.Display) {
		p := poller.New(pcfg, d, plog)
		go func() {
			defer close(pollDone)
			watchTrigger(pollCtx, p)
		}()
	})
	cancel()
	<-pollDone
	return err
}

// watchTrigger polls until ctx is done, then waits for toasts still being
// shown.
func watchTrigger(ctx context.Context, p *poller.Poller) {
	p.Run(ctx)
	p.Wait()
}
