package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/engine"
	"github.com/aleister1102/cfgswitch/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyFrom  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and export the switch journal",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent switches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			records, err := eng.RecentSwitches(ctx, historyLimit)
			if err != nil {
				return err
			}
			return printRecords(records)
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the switch journal to a parquet file",
	Long: `Export writes every switch record to a parquet file. Without a path the
file is written to the configured export directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			written, err := eng.ExportHistory(ctx, path)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"path": written})
			}
			printSuccess("Exported switch history to %s", written)
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the records of an exported parquet file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.effectiveConfig(false)
		records, err := history.NewExporter(cfg.StorageConfig.CompressionCodec, a.logger()).Load(historyFrom)
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyExportCmd, historyShowCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of records to show (0 for all)")
	historyShowCmd.Flags().StringVar(&historyFrom, "from", "", "Parquet file written by history export")
	_ = historyShowCmd.MarkFlagRequired("from")
}

func printRecords(records []history.SwitchRecord) error {
	if jsonOutput {
		if records == nil {
			records = []history.SwitchRecord{}
		}
		return printJSON(records)
	}
	if len(records) == 0 {
		printInfo("No switches recorded")
		return nil
	}

	table := newTable("ID", "PROFILE", "STATE", "STARTED", "DURATION", "STEPS", "ERROR")
	for _, r := range records {
		state := r.State
		if state == "committed" {
			state = successColor.Sprint(state)
		} else {
			state = errorColor.Sprint(state)
		}
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.ProfileID,
			state,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			strconv.FormatInt(r.DurationMS, 10) + "ms",
			strings.Join(r.Transitions, " > "),
			r.Error,
		})
	}
	table.Render()
	return nil
}
