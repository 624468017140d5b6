package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagStack      string
	flagPlatform   string
	flagRelease    string
	flagUserScript string
	flagOldName    string
)

// createCmd creates a new project
var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new project",
	Long: `Create a new project with the given software stack.

Examples:
  # Create a project on the LCG stack
  swanctl create myproject --stack LCG --release LCG_101 --platform x86_64-centos7-gcc8-opt

  # Create a project with a user init script
  swanctl create myproject --stack LCG --release LCG_101 --platform x86_64-centos7-gcc8-opt --user-script setup.sh`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

// editCmd edits an existing project
var editCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Edit an existing project",
	Long: `Edit a project's software stack, user script or name.

Examples:
  # Change the release
  swanctl edit myproject --stack LCG --release LCG_102 --platform x86_64-el9-gcc12-opt

  # Rename a project
  swanctl edit newname --old-name myproject --stack LCG --release LCG_102 --platform x86_64-el9-gcc12-opt`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

// infoCmd shows project information for a path
var infoCmd = &cobra.Command{
	Use:   "info <path>",
	Short: "Show project information for a path",
	Long: `Resolve which project contains the given path and print its metadata.

Examples:
  # Query by absolute path
  swanctl info $HOME/SWAN_projects/myproject

  # Query by home-relative path
  swanctl info SWAN_projects/myproject/notebook.ipynb`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	for _, cmd := range []*cobra.Command{createCmd, editCmd} {
		cmd.Flags().StringVar(&flagStack, "stack", "", "software stack (e.g. LCG, CMSSW)")
		cmd.Flags().StringVar(&flagRelease, "release", "", "stack release")
		cmd.Flags().StringVar(&flagPlatform, "platform", "", "build platform")
		cmd.Flags().StringVar(&flagUserScript, "user-script", "", "file with shell text executed at kernel startup ('-' for stdin)")
	}
	editCmd.Flags().StringVar(&flagOldName, "old-name", "", "current project name when renaming")
}

// CreateProjectRequest matches internal/http/handlers.go CreateProjectRequest
type CreateProjectRequest struct {
	Name       string `json:"name"`
	Stack      string `json:"stack"`
	Platform   string `json:"platform"`
	Release    string `json:"release"`
	UserScript string `json:"user_script"`
}

// EditProjectRequest matches internal/http/handlers.go EditProjectRequest
type EditProjectRequest struct {
	OldName    string `json:"old_name"`
	Name       string `json:"name"`
	Stack      string `json:"stack"`
	Platform   string `json:"platform"`
	Release    string `json:"release"`
	UserScript string `json:"user_script"`
}

// ProjectResponse matches internal/http/handlers.go ProjectResponse
type ProjectResponse struct {
	ProjectDir  string `json:"project_dir"`
	Msg         string `json:"msg"`
	KernelRunID string `json:"kernel_run_id,omitempty"`
}

// runCreate handles the create command
func runCreate(cmd *cobra.Command, args []string) error {
	userScript, err := readUserScript(flagUserScript, os.Stdin)
	if err != nil {
		return err
	}

	var resp ProjectResponse
	err = postJSON(apiURL("/project/create"), CreateProjectRequest{
		Name:       args[0],
		Stack:      flagStack,
		Release:    flagRelease,
		Platform:   flagPlatform,
		UserScript: userScript,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", resp.Msg, resp.ProjectDir)
	return nil
}

// runEdit handles the edit command
func runEdit(cmd *cobra.Command, args []string) error {
	userScript, err := readUserScript(flagUserScript, os.Stdin)
	if err != nil {
		return err
	}

	oldName := flagOldName
	if oldName == "" {
		oldName = args[0]
	}

	var resp ProjectResponse
	err = postJSON(apiURL("/project/edit"), EditProjectRequest{
		OldName:    oldName,
		Name:       args[0],
		Stack:      flagStack,
		Release:    flagRelease,
		Platform:   flagPlatform,
		UserScript: userScript,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", resp.Msg, resp.ProjectDir)
	return nil
}

// runInfo handles the info command
func runInfo(cmd *cobra.Command, args []string) error {
	var resp map[string]any
	if err := postJSON(apiURL("/project/info"), map[string]string{"path": args[0]}, &resp); err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp["project_data"], "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render response: %w", err)
	}

	fmt.Println(string(out))
	return nil
}

// readUserScript loads the user script from a file, stdin ('-'), or returns
// "" when no source was given.
func readUserScript(source string, stdin io.Reader) (string, error) {
	switch source {
	case "":
		return "", nil
	case "-":
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	default:
		content, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", source, err)
		}
		return string(content), nil
	}
}

// postJSON sends a JSON POST request and decodes the JSON response into out.
func postJSON(url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
