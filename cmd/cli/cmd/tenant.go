package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pogopipe/pkg/api"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants (admin)",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new tenant and print its API key",
	Long: `Create a tenant. Requires the admin secret as the token. The raw API
key is printed exactly once; only its hash is stored server-side.

Example:
  pogoctl tenant create --name "acme" --tier pro -t $POGO_ADMIN_SECRET`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		tier, _ := flags.GetString("tier")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if token == "" {
			cmd.Println("Admin secret not found. Please set it using the --token flag or the POGO_TOKEN environment variable")
			return
		}

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		client := NewPipeClient(url, token)
		result, err := client.CreateTenant(api.CreateTenantRequest{Name: name, Tier: tier})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Error: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Tenant created!\nID:      %s\nName:    %s\nTier:    %s\nAPI Key: %s\n",
			result.ID, result.Name, result.Tier, result.ApiKey)
		cmd.Println("Store this key now. It cannot be recovered later.")
	},
}

func init() {
	tenantCreateCmd.Flags().String("name", "", "Tenant name (required)")
	tenantCreateCmd.Flags().String("tier", "", "Tenant tier: free or pro (default free)")
	tenantCmd.AddCommand(tenantCreateCmd)
	rootCmd.AddCommand(tenantCmd)
}
