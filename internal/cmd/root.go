package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/redcode-editor/redcode/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "redcode [files...]",
	Short: "Multi-tab terminal text editor",
	Long: `redcode is a terminal text editor that keeps several documents open in
tabs. It tracks unsaved changes per tab, asks before discarding them, and
detects the language of each file from its name and content.

Files named on the command line are opened in new tabs. Files that do not
exist yet are created on first save.`,
	Args:         cobra.ArbitraryArgs,
	RunE:         runEditor,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/redcode/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.Flags().Bool("no-restore", false, "do not reopen the files from the last run")
	rootCmd.Flags().String("theme", "", "theme mode for this run: light, dark or system")
	_ = viper.BindPFlag("theme.mode", rootCmd.Flags().Lookup("theme"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("REDCODE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., REDCODE_EDITOR_TAB_WIDTH for editor.tab_width
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
