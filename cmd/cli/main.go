package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authToken string
	apiURL    string = "http://localhost:8080"
	output    string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "openbook",
	Short: "OpenBook CLI - Browse your favorites and recommendations",
	Long: `OpenBook CLI provides command-line access to your OpenBook account.
List your favorite books, inspect your preference profile, and fetch
personalized recommendations.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if authToken == "" {
			authToken = os.Getenv("OPENBOOK_TOKEN")
		}
		if authToken == "" && cmd.Name() != "help" && cmd.Parent() != nil {
			fmt.Fprintf(os.Stderr, "Error: OPENBOOK_TOKEN environment variable not set\n")
			fmt.Fprintf(os.Stderr, "Please set your auth token: export OPENBOOK_TOKEN=<your-token>\n")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "Authentication token (defaults to OPENBOOK_TOKEN env var)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", apiURL, "API server URL")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	// Add command groups
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
