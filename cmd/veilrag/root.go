// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilrag-dev/veilrag/internal/config"
	"github.com/veilrag-dev/veilrag/internal/secrets"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// secretStoreFactory creates the secrets.Store used both for keyring://
// config resolution and for the secret subcommands. Package-level so tests
// can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// NewRootCmd creates the root veilrag command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "veilrag",
		Short:         "VeilRAG — retrieval-augmented chat with PII redaction",
		Long:          "VeilRAG answers questions over your own documents, masking sensitive data on the way in and on the way out.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "override the index data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Register subcommands
	root.AddCommand(
		newIngestCmd(),
		newAskCmd(),
		newChatCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the config file named by --config (falling back to
// defaults and VEILRAG_* env vars when absent), applies flag overrides,
// and installs the slog handler described by the logging section.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path, secretStoreFactory())
	if err != nil {
		return nil, err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Retrieval.DataDir = dataDir
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	if err := setupLogging(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg config.LoggingConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return veilerr.Wrapf(err, veilerr.CodeCLISetupFailure, "parsing log level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
