package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"studyqa/internal/app"
	"studyqa/internal/rag"
	"studyqa/internal/service"
)

func askCmd() *cobra.Command {
	var (
		req         service.AskRequest
		noSynthesis bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Retrieve passages and answer a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Question = strings.Join(args, " ")
			req.Synthesize = !noSynthesis
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Service.Ask(ctx, req)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				writeAnswer(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Subject, "subject", "", "subject filter")
	cmd.Flags().StringVar(&req.Chapter, "chapter", "", "chapter filter")
	cmd.Flags().IntVar(&req.K, "k", 0, "number of passages to retrieve (1-20, default 5)")
	cmd.Flags().StringVar(&req.Retriever, "retriever", "", "auto, tfidf, bm25 or dense")
	cmd.Flags().BoolVar(&noSynthesis, "no-synthesis", false, "list passages without composing an answer")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response as JSON")
	return cmd
}

func writeAnswer(w io.Writer, resp service.AskResponse) {
	_, _ = fmt.Fprintf(w, "namespace: %s  retriever: %s\n\n", resp.Namespace, resp.Retriever)
	if resp.Answer != "" {
		_, _ = fmt.Fprintln(w, resp.Answer)
		if len(resp.Citations) > 0 {
			_, _ = fmt.Fprintf(w, "\nsources: %s\n", citationList(resp.Citations))
		}
		return
	}
	for i, h := range resp.Results {
		_, _ = fmt.Fprintf(w, "%d. [%s p%d] %s\n", i+1, h.Metadata.Filename, h.Metadata.PageStart, h.Text)
	}
}

func citationList(cites []rag.Citation) string {
	parts := make([]string, 0, len(cites))
	for _, c := range cites {
		var page string
		switch {
		case c.PageHint != "":
			page = c.PageHint
		case c.PageEnd > c.PageStart:
			page = fmt.Sprintf("p%d-%d", c.PageStart, c.PageEnd)
		case c.PageStart > 0:
			page = fmt.Sprintf("p%d", c.PageStart)
		}
		if c.Filename != "" {
			page = strings.TrimSpace(c.Filename + " " + page)
		}
		parts = append(parts, page)
	}
	return strings.Join(parts, "; ")
}
