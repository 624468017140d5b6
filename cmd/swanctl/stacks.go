package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// stacksCmd lists the available software stacks
var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "List the available software stacks",
	Long: `List the software stacks, releases and platforms the server offers.

Examples:
  # List stacks
  swanctl stacks`,
	RunE: runStacks,
}

// StacksInfoResponse matches internal/http/handlers.go StacksInfoResponse
type StacksInfoResponse struct {
	Stacks []Stack `json:"stacks"`
}

// Stack matches internal/stacks Stack
type Stack struct {
	Name     string    `json:"name"`
	Releases []Release `json:"releases"`
}

// Release matches internal/stacks Release
type Release struct {
	Name      string   `json:"name"`
	Platforms []string `json:"platforms"`
}

// runStacks handles the stacks command
func runStacks(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(apiURL("/stacks/info"))
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

	var info StacksInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Print(formatStacks(info.Stacks))
	return nil
}

// formatStacks renders the catalogue as an indented listing.
func formatStacks(stacks []Stack) string {
	var b strings.Builder
	for _, stack := range stacks {
		fmt.Fprintf(&b, "%s\n", stack.Name)
		for _, release := range stack.Releases {
			fmt.Fprintf(&b, "  %s\n", release.Name)
			for _, platform := range release.Platforms {
				fmt.Fprintf(&b, "    %s\n", platform)
			}
		}
	}
	return b.String()
}
