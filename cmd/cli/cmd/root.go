package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pogoctl",
	Short: "Pogoctl is a command line tool for interacting with the pogopipe platform",
	Long: `pogoctl is the command-line interface for the pogopipe artifact processing platform.

Pogopipe is a multi-tenant pipeline that turns captured artifacts (audio
recordings, images, screenshots) into analyzed text through AI inference,
with per-artifact history kept in an append-only update log.

Common workflows:

  Queue a single artifact for processing:
    pogoctl process <artifact-id> --priority high

  Batch-process every artifact in a session:
    pogoctl session <session-id>

  Check the latest processing attempt:
    pogoctl status <artifact-id>

  Retry a failed artifact:
    pogoctl retry <artifact-id>

  Read the latest processed content:
    pogoctl content <artifact-id>

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    POGO_URL      API endpoint (default: http://localhost:7070)
    POGO_TOKEN    Tenant API Token for authentication`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".pogoctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".pogoctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "POGO_VARNAME"
	viper.SetEnvPrefix("POGO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pogoctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:7070", "Pogopipe Controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "API Token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
