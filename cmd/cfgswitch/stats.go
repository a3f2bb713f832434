package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aleister1102/cfgswitch/internal/engine"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show monitoring statistics and resource usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			info, err := eng.ProfilesInfo()
			if err != nil {
				return err
			}
			stats := eng.Stats()
			if jsonOutput {
				return printJSON(map[string]any{"profiles": info, "monitoring": stats})
			}

			table := newTable("KEY", "VALUE")
			table.AppendBulk([][]string{
				{"directory", info.Directory},
				{"profiles", humanize.Comma(int64(info.ProfilesCount))},
				{"monitor", info.MonitorStatus},
				{"monitored files", humanize.Comma(int64(stats.MonitoredFiles))},
				{"cached entries", humanize.Comma(int64(stats.CachedEntries))},
				{"current errors", humanize.Comma(int64(stats.CurrentErrors))},
				{"suspended files", humanize.Comma(int64(stats.SuspendedFiles))},
				{"interval", stats.Interval.String()},
				{"ticks", humanize.Comma(int64(stats.Ticks))},
				{"last tick", lastTick(stats.LastTick)},
				{"cache size limit", humanize.Comma(int64(stats.CacheSizeLimit))},
				{"max scan errors", humanize.Comma(int64(stats.MaxScanErrors))},
				{"process memory", humanize.Comma(stats.Resources.AllocMB) + " MB"},
				{"system memory", fmt.Sprintf("%s / %s MB (%.1f%%)", humanize.Comma(stats.Resources.SystemMemUsedMB), humanize.Comma(stats.Resources.SystemMemTotalMB), stats.Resources.SystemMemUsedPercent)},
				{"cpu", fmt.Sprintf("%.1f%%", stats.Resources.CPUUsagePercent)},
			})
			table.Render()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func lastTick(at time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return humanize.Time(at)
}
