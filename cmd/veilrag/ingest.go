// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veilrag-dev/veilrag/internal/chunk"
	"github.com/veilrag-dev/veilrag/internal/ingest"
	veilerr "github.com/veilrag-dev/veilrag/pkg/errors"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Index documents into the vector store",
		Long:  "Chunk, embed, and index the given files or directories. Unsupported file types are skipped; pass -r to walk directories recursively.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	client, err := buildClient(ctx, cfg.ProviderConfig())
	if err != nil {
		return err
	}
	defer client.Close()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	chunker, err := chunk.New(cfg.ChunkConfig())
	if err != nil {
		return err
	}

	proc := ingest.NewProcessor(chunker, client, store)
	loader := ingest.NewLoader()
	recursive, _ := cmd.Flags().GetBool("recursive")

	total := 0
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return veilerr.Wrapf(err, veilerr.CodeCLIInputInvalid, "inspecting %s", path)
		}

		var n int
		if info.IsDir() {
			n, err = proc.IngestDir(ctx, loader, path, recursive)
		} else {
			n, err = proc.IngestFile(ctx, loader, path)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s (%d chunks)\n", path, n)
		total += n
	}

	if err := saveStore(store, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Done: %d chunks indexed to %s\n", total, cfg.Retrieval.DataDir)
	return nil
}
