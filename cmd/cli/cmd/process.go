package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pogopipe/pkg/api"
)

var processCmd = &cobra.Command{
	Use:   "process [artifact_id]",
	Short: "Queue a single artifact for processing",
	Long: `Queue one artifact for AI processing. Manual submissions default to
high priority so they jump ahead of batch work.

Example:
  pogoctl process 2f1f9f4e-3a7e-4c19-9f57-0b1dca0a4b21
  pogoctl process 2f1f9f4e-3a7e-4c19-9f57-0b1dca0a4b21 --priority low`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		artifactID := args[0]
		priority, _ := cmd.Flags().GetString("priority")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the POGO_TOKEN environment variable")
			return
		}

		client := NewPipeClient(url, token)
		result, err := client.ProcessArtifact(artifactID, api.ProcessArtifactRequest{Priority: priority})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Artifact queued!\nArtifact: %s\nJob:      %s\nPriority: %s\n",
			result.ArtifactID, result.JobID, result.Priority)
	},
}

func init() {
	processCmd.Flags().StringP("priority", "p", "", "Queue priority: high, medium or low (default high)")
	rootCmd.AddCommand(processCmd)
}
