package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var contentCmd = &cobra.Command{
	Use:   "content [artifact_id]",
	Short: "Print the latest processed content of an artifact",
	Long: `Print the content produced by the most recent successful processing
attempt. Prints nothing when the artifact has not been processed yet.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		artifactID := args[0]

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the POGO_TOKEN environment variable")
			return
		}

		client := NewPipeClient(url, token)
		result, err := client.GetLatestContent(artifactID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		if result.Content == "" {
			cmd.Println("No processed content yet")
			return
		}
		cmd.Println(result.Content)
	},
}

func init() {
	rootCmd.AddCommand(contentCmd)
}
