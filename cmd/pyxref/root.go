package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// runConfig holds the flags shared by `index` and `watch`: where the
// project lives, what to call it, and where its discoverable third-party
// packages are.
type runConfig struct {
	ProjectName    string
	ProjectVersion string
	SitePackages   []string
	Out            string
	Verbose        bool
}

var rootCmd = &cobra.Command{
	Use:     "pyxref",
	Short:   "A cross-reference indexer for Python source trees",
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	viper.SetConfigName(".pyxref")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")

	viper.SetEnvPrefix("PYXREF")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bindRunFlags registers the flags shared by `index` and `watch` onto
// cmd and binds them into viper. The runConfig fields are filled only from
// the command-line flags: the values viper holds are not read back into
// them, so PYXREF_* env vars and .pyxref.yaml do not change these settings.
func bindRunFlags(cmd *cobra.Command, cfg *runConfig) {
	cmd.Flags().StringVar(&cfg.ProjectName, "project-name", "", "Name recorded in the index's package symbols (default: project root's base name)")
	cmd.Flags().StringVar(&cfg.ProjectVersion, "project-version", "", "Version recorded in the index's package symbols (default: git rev-parse HEAD, falling back to 0.0.0)")
	cmd.Flags().StringSliceVar(&cfg.SitePackages, "site-packages", nil, "Root directory to scan for installed third-party packages (repeatable)")
	cmd.Flags().StringVar(&cfg.Out, "out", "index.pyxref", "Output file for the serialized index")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Show detailed progress output")

	viper.BindPFlags(cmd.Flags())
}
