package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pogopipe/pkg/api"
)

var sessionCmd = &cobra.Command{
	Use:   "session [session_id]",
	Short: "Batch-process every artifact in a session",
	Long: `Queue every processable artifact of a session at medium priority.
By default the fan-out happens inline and each queued job is listed.
With --async a single session job is queued and a worker performs the
fan-out.

Example:
  pogoctl session 7c9a5cf3-20a1-4d4b-8f4e-91f3a8e52b10
  pogoctl session 7c9a5cf3-20a1-4d4b-8f4e-91f3a8e52b10 --async`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := args[0]
		async, _ := cmd.Flags().GetBool("async")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the POGO_TOKEN environment variable")
			return
		}

		client := NewPipeClient(url, token)
		result, err := client.ProcessSession(sessionID, api.ProcessSessionRequest{Async: async})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		if result.JobID != "" {
			cmd.Printf("✓ Session batch queued!\nSession: %s\nJob:     %s\n", result.SessionID, result.JobID)
			return
		}

		cmd.Printf("✓ Session processed!\nSession: %s\nQueued:  %d of %d artifacts\n",
			result.SessionID, result.Queued, result.Total)
		for _, job := range result.Jobs {
			cmd.Printf("  %s  %-10s  job %s\n", job.ArtifactID, job.CaptureType, job.JobID)
		}
	},
}

func init() {
	sessionCmd.Flags().Bool("async", false, "Queue the fan-out itself instead of running it inline")
	rootCmd.AddCommand(sessionCmd)
}
