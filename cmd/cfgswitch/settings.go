package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change cfgswitch settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings in effect and where they are saved",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.effectiveConfig(true)
		if jsonOutput {
			return printJSON(cfg)
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		source := a.manager.GetConfigPath()
		if source == "" {
			source = "built-in defaults"
		}
		printInfo("# loaded from: %s", source)
		printInfo("# saved to:    %s", a.manager.SavePath())
		fmt.Fprint(stdout, string(out))
		return nil
	},
}

var settingsSetIntervalCmd = &cobra.Command{
	Use:   "set-interval <minutes>",
	Short: "Set the monitoring interval in minutes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", args[0], err)
		}
		return changeSettings(cmd, config.SetIntervalMinutes(minutes), fmt.Sprintf("Interval set to %d minute(s)", minutes))
	},
}

var settingsSetAutoStartCmd = &cobra.Command{
	Use:   "set-autostart <true|false>",
	Short: "Enable or disable monitoring on startup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		return changeSettings(cmd, config.SetAutoStart(enabled), fmt.Sprintf("Auto-start set to %t", enabled))
	},
}

var settingsSetIgnoredCmd = &cobra.Command{
	Use:   "set-ignored <field>...",
	Short: "Set the top-level fields ignored when comparing profiles",
	Example: `  cfgswitch settings set-ignored model feedbackSurveyState
  cfgswitch settings set-ignored model,theme`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fields []string
		for _, arg := range args {
			fields = append(fields, strings.Split(arg, ",")...)
		}
		return changeSettings(cmd, config.SetIgnoredFields(fields), "Ignored fields updated")
	},
}

var settingsResetIgnoredCmd = &cobra.Command{
	Use:   "reset-ignored",
	Short: "Restore the default ignored fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeSettings(cmd, config.ResetIgnoredFields(), "Ignored fields reset to "+strings.Join(config.DefaultIgnoredFields(), ", "))
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default monitoring, comparison and display settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeSettings(cmd, config.ResetSettings(), "Settings reset to defaults")
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetIntervalCmd, settingsSetAutoStartCmd,
		settingsSetIgnoredCmd, settingsResetIgnoredCmd, settingsResetCmd)
}

func changeSettings(cmd *cobra.Command, change config.SettingsChange, message string) error {
	a, err := newApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := a.manager.ChangeSettings(change)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cfg)
	}
	printSuccess("%s (saved to %s)", message, a.manager.SavePath())
	return nil
}
