// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VeilRAG Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veilrag-dev/veilrag/internal/pipeline"
	"github.com/veilrag-dev/veilrag/internal/provider"
)

// historyLimit caps how many prior turns are replayed to the model.
const historyLimit = 20

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long:  "Chat over the indexed documents. Conversation history is kept for the session; type /reset to clear it or /exit to quit.",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
}

func runChat(cmd *cobra.Command, _ []string) error {
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

	out := cmd.OutOrStdout()
	sessionID := uuid.NewString()
	var history []provider.Turn

	fmt.Fprintf(out, "Session %s. Type /exit to quit.\n", sessionID)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return scanner.Err()
		case "/reset":
			history = history[:0]
			fmt.Fprintln(out, "History cleared.")
			continue
		}

		resp, err := p.Run(ctx, pipeline.Request{
			Query:     line,
			SessionID: sessionID,
			History:   history,
		})
		if err != nil {
			// Keep the session alive; the next message may succeed.
			fmt.Fprintln(out, errStyle.Render(fmt.Sprintf("error: %v", err)))
			continue
		}

		printAudit(cmd, resp.InputAudit, "input")
		printAudit(cmd, resp.OutputAudit, "output")
		fmt.Fprintln(out, replyStyle.Render(resp.Reply))

		// History carries the redacted query, not the raw line, so a
		// blocked entity never reaches the provider on later turns.
		history = append(history,
			provider.Turn{Role: provider.RoleUser, Content: resp.Query},
			provider.Turn{Role: provider.RoleAssistant, Content: resp.Reply},
		)
		if len(history) > historyLimit {
			history = history[len(history)-historyLimit:]
		}
	}

	return scanner.Err()
}
