// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/releasetrain/trainctl/internal/config"
	"github.com/releasetrain/trainctl/internal/plugins"
)

// newConfigCommand creates the `trainctl config` command tree.
func newConfigCommand(app *App, flags *rootFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect trainctl configuration",
		Long: `Inspect trainctl configuration.

Configuration is read from the first file found of:
  - the --config flag
  - Linux: ~/.config/trainctl/config.cue
    macOS: ~/Library/Application Support/trainctl/config.cue
    Windows: %APPDATA%\trainctl\config.cue
  - ./trainctl.cue

TRAINCTL_ environment variables override file values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, ExitUsage, err)
			}
			showConfig(app.stdout, cfg, locatedPath(flags))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(cmd, flags, ExitUsage, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show where configuration is looked up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, flags, ExitUsage, err)
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", locatedPath(flags))
			return nil
		},
	})

	return cfgCmd
}

// locatedPath describes the file Load reads, or that defaults apply.
func locatedPath(flags *rootFlags) string {
	wd, _ := os.Getwd()
	path, err := config.Locate(config.LoadOptions{ConfigFilePath: flags.configPath, WorkDir: wd})
	switch {
	case err != nil:
		return SubtitleStyle.Render("(" + err.Error() + ")")
	case path == "":
		return SubtitleStyle.Render("(using defaults)")
	default:
		return path
	}
}

func showConfig(w io.Writer, cfg *config.Config, path string) {
	key := HighlightStyle.Render
	value := SuccessStyle.Render

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", key("Config file"), path)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", key("workspace"), value(cfg.Workspace))
	fmt.Fprintf(w, "%s: %s\n", key("orchestrator"), value(cfg.Orchestrator.String()))
	fmt.Fprintf(w, "%s: %s\n", key("parallelism"), value(fmt.Sprint(cfg.Parallelism)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", key("log"))
	fmt.Fprintf(w, "  level: %s\n", value(cfg.Log.Level))
	fmt.Fprintf(w, "  format: %s\n", value(string(cfg.Log.Format)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", key("plugins"))
	if len(cfg.Plugins) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	}
	for _, p := range slices.Sorted(maps.Keys(cfg.Plugins)) {
		ops := slices.Sorted(maps.Keys(plugins.ScriptsFor(cfg.Shell, p)))
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = string(op)
		}
		fmt.Fprintf(w, "  %s: %s %s\n", p, value(string(cfg.Plugins[p])),
			SubtitleStyle.Render("["+strings.Join(names, ", ")+"]"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", key("toolchain"))
	def := cfg.Toolchain.Default
	if def == "" {
		def = "(from checkout)"
	}
	fmt.Fprintf(w, "  default: %s\n", value(def))
	for _, p := range slices.Sorted(maps.Keys(cfg.Toolchain.Projects)) {
		fmt.Fprintf(w, "  %s: %s\n", p, value(cfg.Toolchain.Projects[p]))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", key("maven"))
	fmt.Fprintf(w, "  local_repository: %s\n", value(cfg.Maven.LocalRepository))
}
