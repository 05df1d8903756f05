package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var retryCmd = &cobra.Command{
	Use:   "retry [artifact_id]",
	Short: "Retry a failed artifact",
	Long: `Resubmit an artifact whose last processing attempt failed. The retry
runs at the same priority as the failed attempt. Artifacts without a
failed attempt on record are rejected.`,
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
		result, err := client.RetryArtifact(artifactID)
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Retry queued!\nArtifact: %s\nJob:      %s\nPriority: %s\n",
			result.ArtifactID, result.JobID, result.Priority)
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
