package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/redcode-editor/redcode/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify redcode configuration",
	Long: `View or modify redcode configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  redcode config set editor.tab_width 2
  redcode config set theme.mode light
  redcode config set watch.enabled false

Valid keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/redcode/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\nShowing defaults instead.\n\n", err)
		cfg = config.Default()
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// parseConfigValue converts raw to the type of key's default value.
func parseConfigValue(key, raw string) (any, error) {
	def, ok := config.DefaultValue(key)
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'redcode config set --help' to see valid keys", key)
	}

	switch def.(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return n, nil
	default:
		return raw, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	value, err := parseConfigValue(key, raw)
	if err != nil {
		return err
	}

	// Run the full validator against the would-be config before touching disk.
	previous := viper.Get(key)
	viper.Set(key, value)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, value)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(configFile); err == nil && !force {
		return fmt.Errorf("config file already exists at %s\nUse 'redcode config set' to modify values or --force to overwrite", configFile)
	}

	if err := os.MkdirAll(config.ConfigDir(), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize redcode's behavior.")
	return nil
}

func defaultConfigContent() string {
	d := config.Default()
	return fmt.Sprintf(`# redcode configuration

editor:
  # Name given to new documents, followed by a counter ("Untitled 2")
  untitled_prefix: %s
  # Language assumed for untitled documents; its extension is suggested on Save As
  default_mime_type: %s
  # Spaces inserted by the Tab key
  tab_width: %d
  show_line_numbers: %t

theme:
  # light, dark or system
  mode: %s

session:
  # Reopen the files that were open when redcode last exited
  restore_on_start: %t
  # Where workspace state and logs live (default: $XDG_STATE_HOME/redcode)
  state_dir: "%s"

watch:
  # Notice when open files change on disk
  enabled: %t
  debounce_ms: %d

logging:
  enabled: %t
  # debug, info, warn or error
  level: %s
  max_size_mb: %d
  max_backups: %d
`,
		d.Editor.UntitledPrefix, d.Editor.DefaultMIMEType, d.Editor.TabWidth, d.Editor.ShowLineNumbers,
		d.Theme.Mode,
		d.Session.RestoreOnStart, d.Session.StateDir,
		d.Watch.Enabled, d.Watch.DebounceMs,
		d.Logging.Enabled, d.Logging.Level, d.Logging.MaxSizeMB, d.Logging.MaxBackups,
	)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(out, "Active config: %s\n", used)
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", config.ConfigFile())
	}
	fmt.Fprintf(out, "State directory: %s\n", config.Get().Session.ResolvedStateDir())
	fmt.Fprintln(out, "\nEnvironment variables: REDCODE_* (e.g., REDCODE_EDITOR_TAB_WIDTH)")
	return nil
}
