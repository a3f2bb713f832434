package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/engine"
	"github.com/aleister1102/cfgswitch/internal/profile"
	"github.com/spf13/cobra"
)

var (
	contentFile string
	forceSave   bool
	unifiedDiff bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the live configuration and every profile",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			infos, err := eng.ListProfiles()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(infos)
			}

			table := newTable("", "ID", "SIZE", "MODIFIED", "PATH")
			for _, info := range infos {
				icon, err := eng.GetStatus(info.ID)
				if err != nil {
					icon = eng.Icons().Error
				}
				id := info.ID
				if info.IsDefault {
					id = info.DisplayName
				}
				table.Append([]string{icon, id, humanSize(info.FileSize), info.LastModified.Format("2006-01-02 15:04:05"), info.FilePath})
			}
			table.Render()
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare every profile with the live configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			snap, err := eng.Snapshot()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(snap)
			}
			printSnapshot(snap)
			return nil
		})
	},
}

func printSnapshot(snap engine.StatusSnapshot) {
	table := newTable("", "PROFILE", "STATUS", "ACTIVE")
	for _, v := range snap.Profiles {
		active := ""
		if v.IsActive {
			active = "*"
		}
		table.Append([]string{v.Icon, v.Name, colorStatus(v.Status), active})
	}
	table.Render()
	printInfo("%s", snap.Tooltip)
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a profile, or the live configuration for \"current\"",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			content, err := eng.ReadContent(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"id": args[0], "content": content})
			}
			fmt.Fprintln(stdout, strings.TrimRight(content, "\n"))
			return nil
		})
	},
}

var saveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Replace a profile's content (or the live configuration for \"current\")",
	Example: `  cfgswitch save work --file work.json
  cat new.json | cfgswitch save current`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContentInput(contentFile)
		if err != nil {
			return err
		}
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			if err := checkContent(eng, content); err != nil {
				return err
			}
			if err := eng.SaveContent(args[0], content); err != nil {
				return err
			}
			printSuccess("Saved %s", args[0])
			return nil
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile from a file, stdin, or the live configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			var content string
			var err error
			if contentFile != "" {
				content, err = readContentInput(contentFile)
			} else {
				content, err = eng.ReadContent(profile.CurrentID)
			}
			if err != nil {
				return err
			}
			if err := checkContent(eng, content); err != nil {
				return err
			}

			path, err := eng.Create(args[0], content)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]string{"id": args[0], "path": path})
			}
			printSuccess("Created %s at %s", args[0], path)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			if err := eng.Delete(args[0]); err != nil {
				return err
			}
			printSuccess("Deleted %s", args[0])
			return nil
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [id]",
	Short: "Validate JSON content from a profile, --file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			var content string
			var err error
			if len(args) == 1 {
				content, err = eng.ReadContent(args[0])
			} else {
				content, err = readContentInput(contentFile)
			}
			if err != nil {
				return err
			}

			result := eng.ValidateJSON(content)
			if jsonOutput {
				return printJSON(result)
			}
			if result.IsValid {
				printSuccess("Valid")
				return nil
			}
			for _, e := range result.Errors {
				printWarning("line %d, column %d (%s): %s", e.Line, e.Column, e.ErrorType, e.Message)
			}
			return fmt.Errorf("%d validation error(s)", len(result.Errors))
		})
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Make a profile the live configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			attempt, err := eng.Switch(ctx, args[0])
			if jsonOutput && attempt != nil {
				out := map[string]any{
					"profile_id":  attempt.ProfileID,
					"state":       attempt.State().String(),
					"duration_ms": attempt.Duration().Milliseconds(),
					"error":       attempt.ErrorMessage(),
				}
				if perr := printJSON(out); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			printSuccess("%s Switched to %s (%s)", eng.Icons().FullMatch, args[0], attempt.Duration())
			return nil
		})
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <id>",
	Short: "Show how a profile differs from the live configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(ctx context.Context, eng *engine.Engine) error {
			if unifiedDiff {
				text, err := eng.UnifiedDiff(args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(map[string]string{"id": args[0], "diff": text})
				}
				fmt.Fprint(stdout, text)
				return nil
			}

			summary, err := eng.Diff(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(summary)
			}
			if summary.Identical {
				printSuccess("%s is identical to the live configuration", args[0])
				return nil
			}
			printInfo("+%d -%d lines", summary.LinesAdded, summary.LinesDeleted)
			if len(summary.ChangedKeys) > 0 {
				printInfo("changed keys: %s", strings.Join(summary.ChangedKeys, ", "))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(listCmd, statusCmd, showCmd, saveCmd, createCmd, deleteCmd, validateCmd, switchCmd, diffCmd)

	for _, cmd := range []*cobra.Command{saveCmd, createCmd, validateCmd} {
		cmd.Flags().StringVarP(&contentFile, "file", "f", "", "Read content from this file (\"-\" or empty for stdin)")
	}
	saveCmd.Flags().BoolVar(&forceSave, "force", false, "Save even if the content fails validation")
	createCmd.Flags().BoolVar(&forceSave, "force", false, "Create even if the content fails validation")
	diffCmd.Flags().BoolVarP(&unifiedDiff, "unified", "u", false, "Print a unified diff instead of a summary")
}

func readContentInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func checkContent(eng *engine.Engine, content string) error {
	if forceSave {
		return nil
	}
	result := eng.ValidateJSON(content)
	if result.IsValid {
		return nil
	}
	return fmt.Errorf("content is not valid (use --force to save anyway):\n%s", result.Summary())
}
