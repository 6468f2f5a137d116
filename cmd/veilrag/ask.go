// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veilrag-dev/veilrag/internal/pii"
	"github.com/veilrag-dev/veilrag/internal/pipeline"
	"github.com/veilrag-dev/veilrag/internal/rag"
)

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-shot question over the indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().Bool("sources", false, "show the retrieved source documents")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	p := buildPipeline(cfg, client, store)

	resp, err := p.Run(ctx, pipeline.Request{
		Query:     args[0],
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printAudit(cmd, resp.InputAudit, "input")
	printAudit(cmd, resp.OutputAudit, "output")
	fmt.Fprintln(out, replyStyle.Render(resp.Reply))

	if showSources, _ := cmd.Flags().GetBool("sources"); showSources {
		printSources(cmd, resp.Sources)
	}
	return nil
}

func printAudit(cmd *cobra.Command, entries []pii.AuditEntry, side string) {
	for _, e := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render(
			fmt.Sprintf("[redacted %s %s]", side, e.Type)))
	}
}

func printSources(cmd *cobra.Command, sources []rag.Document) {
	out := cmd.OutOrStdout()
	if len(sources) == 0 {
		fmt.Fprintln(out, sourceStyle.Render("No sources retrieved."))
		return
	}
	for i, doc := range sources {
		fmt.Fprintln(out, sourceStyle.Render(fmt.Sprintf("  [%d] %s", i+1, doc.ID)))
	}
}
