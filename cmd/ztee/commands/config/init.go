package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ztee/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a ztee configuration file holding every default value.

By default, the configuration file is created at $XDG_CONFIG_HOME/ztee/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  ztee config init

  # Initialize with custom path
  ztee config init --config /etc/ztee/config.yaml

  # Force overwrite existing config
  ztee config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to tune window and relay sizes")
	_, _ = fmt.Fprintln(out, "  2. Check it with: ztee config validate")
	_, _ = fmt.Fprintf(out, "  3. Or override single values: ZTEE_TEE_WINDOW_SIZE=32Mi ztee ...\n")

	return nil
}
