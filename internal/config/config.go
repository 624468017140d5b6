// Package config provides configuration loading for swanprojectsd.
//
// Configuration is loaded from a YAML file overlaid with environment
// variables. See LoadWithFile for precedence and security rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the complete swanprojectsd configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Projects ProjectsConfig `koanf:"projects"`
	Stacks   StacksConfig   `koanf:"stacks"`
	Kernels  KernelsConfig  `koanf:"kernels"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	BasePath        string   `koanf:"base_path"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	StaticDir       string   `koanf:"static_dir"`
}

// ProjectsConfig holds project storage configuration.
type ProjectsConfig struct {
	// Root is the directory under which all projects live.
	Root string `koanf:"root"`
}

// StacksConfig holds the stacks catalogue configuration.
type StacksConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// KernelsConfig holds kernel-spec regeneration configuration.
type KernelsConfig struct {
	// Tool is the external command that regenerates kernel specs.
	Tool string `koanf:"tool"`

	// Shell is the shell used to run the tool.
	Shell string `koanf:"shell"`

	Timeout Duration `koanf:"timeout"`

	// PassEnv lists environment variable names forwarded into the
	// otherwise empty tool environment. Needed for EOS/OAuth setups.
	PassEnv []string `koanf:"pass_env"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("base path must start with '/': %q", c.Server.BasePath)
	}
	if c.Projects.Root == "" {
		return errors.New("projects root cannot be empty")
	}
	if c.Stacks.Path == "" {
		return errors.New("stacks file path cannot be empty")
	}
	if c.Kernels.Tool == "" {
		return errors.New("kernel tool cannot be empty")
	}
	if c.Kernels.Timeout.Duration() <= 0 {
		return errors.New("kernel tool timeout must be positive")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8888
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = "/swan"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.StaticDir == "" {
		// Environment override kept for compatibility with existing deployments.
		cfg.Server.StaticDir = os.Getenv("SWAN_SERVER_STATIC_DIR")
	}

	if cfg.Projects.Root == "" {
		cfg.Projects.Root = filepath.Join(home, "SWAN_projects")
	}

	if cfg.Stacks.Path == "" {
		cfg.Stacks.Path = filepath.Join(home, ".config", "swanprojects", "stacks.json")
	}

	if cfg.Kernels.Tool == "" {
		cfg.Kernels.Tool = "swan_kmspecs"
	}
	if cfg.Kernels.Shell == "" {
		cfg.Kernels.Shell = "/bin/bash"
	}
	if cfg.Kernels.Timeout == 0 {
		cfg.Kernels.Timeout = Duration(2 * time.Minute)
	}
	if cfg.Kernels.PassEnv == nil {
		cfg.Kernels.PassEnv = []string{
			"OAUTH2_FILE",
			"OAUTH2_TOKEN",
			"OAUTH_INSPECTION_ENDPOINT",
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
