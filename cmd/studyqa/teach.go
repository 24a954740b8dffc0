package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"studyqa/internal/app"
	"studyqa/internal/service"
)

func teachCmd() *cobra.Command {
	var (
		req    service.TeachRequest
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "teach",
		Short: "Build a study outline for a chapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Service.Teach(ctx, req)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), resp)
				}
				writeOutline(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Subject, "subject", "", "subject (required)")
	cmd.Flags().StringVar(&req.Chapter, "chapter", "", "chapter (required)")
	cmd.Flags().StringSliceVar(&req.Topics, "topic", nil, "topic to focus on (repeatable)")
	cmd.Flags().StringVar(&req.Depth, "depth", "", "basic, standard or deep")
	cmd.Flags().StringVar(&req.Retriever, "retriever", "", "auto, tfidf, bm25 or dense")
	cmd.Flags().IntVar(&req.K, "k", 0, "number of passages to retrieve (3-25, default 10)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response as JSON")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("chapter")
	return cmd
}

func writeOutline(w io.Writer, resp service.TeachResponse) {
	_, _ = fmt.Fprintf(w, "namespace: %s  retriever: %s  depth: %s\n", resp.Namespace, resp.Retriever, resp.Depth)
	for _, sec := range resp.Sections {
		if len(sec.Bullets) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", sec.Title)
		for _, b := range sec.Bullets {
			_, _ = fmt.Fprintf(w, "  • %s\n", b)
		}
	}
	if len(resp.ReadingList) > 0 {
		pages := make([]string, len(resp.ReadingList))
		for i, item := range resp.ReadingList {
			pages[i] = strings.TrimSpace(fmt.Sprintf("%s p%d", item.Filename, item.Page))
		}
		_, _ = fmt.Fprintf(w, "\nread: %s\n", strings.Join(pages, ", "))
	}
	if len(resp.Coverage.Gaps) > 0 {
		_, _ = fmt.Fprintf(w, "gaps: %s\n", strings.Join(resp.Coverage.Gaps, ", "))
	}
}
