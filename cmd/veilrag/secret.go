// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

// serviceName is the keyring service under which VeilRAG stores secrets.
// Config values of the form keyring://veilrag/<name> resolve against it.
const serviceName = "veilrag"

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets stored in the OS keyring",
		Long:  "Store, read, and delete secrets under the VeilRAG service in the operating system keyring. Reference them from config as keyring://veilrag/<name>.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretGetCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(2),
		RunE:  runSecretSet,
	}
}

func newSecretGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretGet,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	store := secretStoreFactory()
	if err := store.Set(serviceName, args[0], args[1]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored secret: %s\n", args[0])
	return nil
}

func runSecretGet(cmd *cobra.Command, args []string) error {
	store := secretStoreFactory()
	value, err := store.Get(serviceName, args[0])
	if err != nil {
		if veilerr.HasCode(err, veilerr.CodeSecretNotFound) {
			return veilerr.Errorf(veilerr.CodeSecretNotFound, "secret %q not found", args[0])
		}
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	store := secretStoreFactory()
	if err := store.Delete(serviceName, args[0]); err != nil {
		if veilerr.HasCode(err, veilerr.CodeSecretNotFound) {
			return veilerr.Errorf(veilerr.CodeSecretNotFound, "secret %q not found", args[0])
		}
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", args[0])
	return nil
}
