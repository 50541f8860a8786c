// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/releasetrain/trainctl/internal/issue"
	"github.com/releasetrain/trainctl/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "trainctl"
	// ConfigFileName is the file name inside the configuration directory.
	ConfigFileName = "config.cue"
	// LocalConfigFileName is the file name looked up in the working directory.
	LocalConfigFileName = "trainctl.cue"
	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "TRAINCTL"

	// keyDelimiter separates nested viper keys. Map keys such as Java versions
	// ("17.0.10-tem") contain dots, so the default "." cannot be used.
	keyDelimiter = "::"
)

//go:embed config_schema.cue
var configSchema []byte

// ErrConfigNotFound is returned when an explicit config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// ConfigDir returns the platform configuration directory of trainctl.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// Locate returns the config file Load would read, or "" when defaults apply.
func Locate(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if p := filepath.Join(dir, ConfigFileName); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.WorkDir, LocalConfigFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	path, err := Locate(opts)
	if err != nil {
		return nil, "", loadError(opts.ConfigFilePath, err,
			"Verify the file path is correct",
			"Run 'trainctl config path' to see where configuration is looked up")
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", loadError(path, err,
				"Check that the file contains valid CUE syntax",
				"Compare it with 'trainctl config dump'")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	// A workspace written in the file is relative to that file.
	if path != "" && v.InConfig("workspace") && os.Getenv(EnvPrefix+"_WORKSPACE") == "" && !filepath.IsAbs(cfg.Workspace) {
		cfg.Workspace = filepath.Join(filepath.Dir(path), cfg.Workspace)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Fix the fields listed above or unset the matching TRAINCTL_ variables").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, path, nil
}

func loadError(resource string, err error, suggestions ...string) error {
	b := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(resource).
		WithIssue(issue.ConfigLoadFailedId)
	for _, s := range suggestions {
		b.WithSuggestion(s)
	}
	return b.Wrap(err).BuildError()
}

// setDefaults registers the scalar defaults. Registering them also makes the
// keys visible to AutomaticEnv during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("workspace", d.Workspace)
	v.SetDefault("orchestrator", string(d.Orchestrator))
	v.SetDefault("parallelism", d.Parallelism)
	v.SetDefault(key("log", "level"), d.Log.Level)
	v.SetDefault(key("log", "format"), string(d.Log.Format))
	v.SetDefault(key("toolchain", "default"), d.Toolchain.Default)
	v.SetDefault(key("maven", "local_repository"), d.Maven.LocalRepository)
}

func key(parts ...string) string { return strings.Join(parts, keyDelimiter) }

// loadCUEIntoViper validates path against #Config and merges it into v.
// Optional fields stay open, so the document is decoded into a map instead
// of through cueutil.ParseAndDecode.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	unified, err := cueutil.Unify(configSchema, data, "#Config",
		cueutil.WithFilename(path), cueutil.WithConcrete(false))
	if err != nil {
		return err
	}

	var m map[string]any
	if err := unified.Decode(&m); err != nil {
		return cueutil.FormatError(err, path)
	}
	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a CUE document accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	sb.WriteString("// trainctl configuration\n\n")
	fmt.Fprintf(&sb, "workspace:    %q\n", cfg.Workspace)
	fmt.Fprintf(&sb, "orchestrator: %q\n", cfg.Orchestrator)
	fmt.Fprintf(&sb, "parallelism:  %d\n", cfg.Parallelism)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel:  %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Log.Format)
	sb.WriteString("}\n")

	if cfg.Toolchain.Default != "" || len(cfg.Toolchain.Projects) > 0 || len(cfg.Toolchain.JavaHomes) > 0 {
		sb.WriteString("\ntoolchain: {\n")
		if cfg.Toolchain.Default != "" {
			fmt.Fprintf(&sb, "\tdefault: %q\n", cfg.Toolchain.Default)
		}
		writeMap(&sb, "\t", "projects", cfg.Toolchain.Projects)
		writeMap(&sb, "\t", "java_homes", cfg.Toolchain.JavaHomes)
		sb.WriteString("}\n")
	}

	if len(cfg.Plugins) > 0 {
		writeMap(&sb, "", "plugins", cfg.Plugins)
	}

	if len(cfg.Shell.Scripts) > 0 || len(cfg.Shell.Projects) > 0 {
		sb.WriteString("\nshell: {\n")
		writeMap(&sb, "\t", "scripts", cfg.Shell.Scripts)
		if len(cfg.Shell.Projects) > 0 {
			sb.WriteString("\tprojects: {\n")
			for _, p := range sortedKeys(cfg.Shell.Projects) {
				fmt.Fprintf(&sb, "\t\t%q: {\n", p)
				writeMap(&sb, "\t\t\t", "scripts", cfg.Shell.Projects[p].Scripts)
				sb.WriteString("\t\t}\n")
			}
			sb.WriteString("\t}\n")
		}
		sb.WriteString("}\n")
	}

	sb.WriteString("\nmaven: {\n")
	fmt.Fprintf(&sb, "\tlocal_repository: %q\n", cfg.Maven.LocalRepository)
	sb.WriteString("}\n")
	return sb.String()
}

func writeMap[K ~string, V ~string](sb *strings.Builder, indent, name string, m map[K]V) {
	if len(m) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s%s: {\n", indent, name)
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(sb, "%s\t%q: %q\n", indent, k, m[k])
	}
	fmt.Fprintf(sb, "%s}\n", indent)
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
