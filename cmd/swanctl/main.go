// Package main implements the swanctl CLI for manual operations against the
// swanprojectsd HTTP server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the swanprojectsd HTTP server
	serverURL string
	// basePath is the URL prefix the daemon serves its API under
	basePath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "swanctl",
	Short: "CLI for swanprojectsd HTTP server operations",
	Long: `swanctl is a command-line interface for interacting with the swanprojectsd
HTTP server. It provides commands for creating and editing projects, querying
project information and listing the available software stacks.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8888", "swanprojectsd server URL")
	rootCmd.PersistentFlags().StringVar(&basePath, "base-path", "/swan", "URL prefix the daemon serves under")
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(stacksCmd)
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check swanprojectsd server health",
	Long: `Check the health status of the swanprojectsd HTTP server.

Examples:
  # Check health
  swanctl health

  # Check health on a different server
  swanctl health --server http://localhost:8899`,
	RunE: runHealth,
}

// HealthResponse matches internal/http/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Server status: %s\n", health.Status)
	return nil
}

// apiURL builds the URL of an API endpoint.
func apiURL(endpoint string) string {
	return serverURL + basePath + "/api/v1" + endpoint
}
