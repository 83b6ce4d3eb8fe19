// Package bootstrap wires configuration, logging and the acquisition
// components into the run, worker and schedule entry points.
package bootstrap

import (
	"errors"
	"fmt"

	infraconfig "github.com/jonesrussell/north-cloud/harvester/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/config"
)

var (
	errLoggerRequired = errors.New("logger is required")
	errConfigRequired = errors.New("config is required")
)

// CommandDeps holds the dependencies shared by every command.
type CommandDeps struct {
	Logger infralogger.Logger
	Config *config.Config
}

// NewCommandDeps loads the config at configPath (or CONFIG_PATH) and creates the logger.
// debug forces the debug log level.
func NewCommandDeps(configPath string, debug bool) (*CommandDeps, error) {
	if configPath == "" {
		configPath = infraconfig.GetConfigPath(config.DefaultPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "debug"
	}

	log, err := infralogger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	log = log.With(infralogger.String("service", "harvester"))

	deps := &CommandDeps{Logger: log, Config: cfg}
	if err = deps.Validate(); err != nil {
		return nil, fmt.Errorf("validate deps: %w", err)
	}

	return deps, nil
}

// Validate checks that every dependency is set.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return errLoggerRequired
	}
	if d.Config == nil {
		return errConfigRequired
	}
	return nil
}
