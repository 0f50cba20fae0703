package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"filelist-go/internal/catalog"
	"filelist-go/internal/config"
	"filelist-go/internal/encryption"
	"filelist-go/internal/vault"
)

// App is the application layer between the CLI and the catalog pipeline.
// It loads configuration, constructs the logger, and hands out the shared
// dependencies the commands need. The catalog database itself is owned by
// the builder for the duration of a run, not by the App.
type App struct {
	Cfg     *config.Config
	Logger  catalog.Logger
	RunID   string
	logFile *os.File
}

// NewApp loads the config (falling back to defaults when no config file
// exists) and creates the logger. operation identifies the CLI command
// being run (e.g. "Build", "Export"). noLog disables the log file; output
// then goes to stderr only. The caller must call Close when done.
func NewApp(operation string, noLog bool) (*App, error) {
	defaults, err := GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file: run with defaults. The host id falls back to
		// the hostname; `fl config init` assigns a stable UUID.
		host, hostErr := os.Hostname()
		if hostErr != nil {
			host = "unknown"
		}
		cfg = config.NewConfig(host, defaults["base_dir"])
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = defaults["log_dir"]
	}
	if noLog {
		logDir = ""
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(logDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("op", operation)

	return &App{
		Cfg:     cfg,
		Logger:  &slogAdapter{l: logger},
		RunID:   runID,
		logFile: logFile,
	}, nil
}

// Vault returns the configured archive backend.
func (a *App) Vault() (vault.Vault, error) {
	if len(a.Cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(a.Cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	return v, nil
}

// Encryptor returns the age encryptor for the configured key pair.
func (a *App) Encryptor() *encryption.AgeEncryptor {
	return encryption.NewAgeEncryptor(a.Cfg.Encryption)
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}
