// Package kernels regenerates per-project Jupyter kernel specs by invoking
// the external kernel tool.
package kernels

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner invokes the kernel tool for a project with a filtered environment.
//
// The tool runs as:
//
//	env -i HOME=<home> [pass-through vars] <shell> -c "<tool> --project_name <name>"
//
// The environment is emptied so the tool sees the project environment it
// builds itself, not the daemon's. PassEnv names are forwarded when set;
// EOS/OAuth deployments need the token variables to read and write the
// user's storage.
type Runner struct {
	tool    string
	shell   string
	home    string
	passEnv []string
	timeout time.Duration
	logger  *zap.Logger
}

// Result describes one completed kernel tool run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// Output is the combined stdout/stderr of the tool.
	Output string
}

// NewRunner creates a runner.
func NewRunner(tool, shell, home string, passEnv []string, timeout time.Duration, logger *zap.Logger) (*Runner, error) {
	if tool == "" {
		return nil, fmt.Errorf("kernel tool cannot be empty")
	}
	if shell == "" {
		return nil, fmt.Errorf("shell cannot be empty")
	}
	if home == "" {
		return nil, fmt.Errorf("home directory cannot be empty")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Runner{
		tool:    tool,
		shell:   shell,
		home:    home,
		passEnv: passEnv,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Regenerate runs the kernel tool for the named project. The project name
// must already be validated as a safe path component.
func (r *Runner) Regenerate(ctx context.Context, projectName string) (*Result, error) {
	runID := uuid.New().String()

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{"-i", "HOME=" + r.home}
	for _, key := range r.passEnv {
		if value, ok := os.LookupEnv(key); ok {
			args = append(args, key+"="+value)
		}
	}
	args = append(args, r.shell, "-c", fmt.Sprintf("%s --project_name %q", r.tool, projectName))

	r.logger.Info("regenerating kernel specs",
		zap.String("run_id", runID),
		zap.String("project", projectName),
		zap.String("tool", r.tool))

	cmd := exec.CommandContext(timeoutCtx, "env", args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		if timeoutCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("kernel tool timeout after %v (run %s)", r.timeout, runID)
		}
		return nil, fmt.Errorf("kernel tool failed (run %s): %w (output: %s)", runID, err, string(output))
	}

	r.logger.Info("kernel specs regenerated",
		zap.String("run_id", runID),
		zap.String("project", projectName),
		zap.String("output", string(output)))

	return &Result{
		RunID:  runID,
		Output: string(output),
	}, nil
}
