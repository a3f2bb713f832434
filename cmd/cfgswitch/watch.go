package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/cfgswitch/internal/engine"
	"github.com/spf13/cobra"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Monitor the profiles and print status changes until interrupted",
	Example: `  cfgswitch watch
  cfgswitch watch --interval 10s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "Polling interval (default: the configured interval in minutes)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, appOptions{hotReload: true, monitoring: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			printWarning("\nStopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	eng, err := a.startEngine(ctx, true, engine.Options{Interval: watchInterval})
	if err != nil {
		return err
	}
	if !eng.Watcher().IsRunning() {
		if err := eng.StartMonitoring(ctx); err != nil {
			return err
		}
	}

	a.manager.StartHotReload(ctx)
	go eng.FollowConfig(ctx, a.manager.Subscribe())

	printInfo("Watching %s every %s (Ctrl+C to stop)", eng.Store().Directory(), eng.Watcher().Interval())

	snapshots := eng.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if jsonOutput {
				if err := printJSON(snap); err != nil {
					return err
				}
				continue
			}
			dimColor.Fprintf(stdout, "\n%s\n", snap.At.Format(time.RFC3339))
			printSnapshot(snap)
		}
	}
}
