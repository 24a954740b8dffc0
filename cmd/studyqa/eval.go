package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studyqa/internal/app"
	"studyqa/internal/service"
)

func evalCmd() *cobra.Command {
	var (
		req     service.EvalRequest
		subject string
		chapter string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "eval <expectations.json>",
		Short: "Measure hit@k, answer rate and citation rate over expectation cases",
		Long: "Measure retrieval quality. The file holds a JSON list of\n" +
			`{"q": "question", "must": "phrase" or ["phrase", ...], "subject": "...", "chapter": "..."} cases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := readCases(args[0], subject, chapter)
			if err != nil {
				return err
			}
			req.Cases = cases
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				report, err := a.Service.Eval(ctx, req)
				if err != nil {
					return err
				}
				if out != "" {
					data, err := json.MarshalIndent(report, "", "  ")
					if err != nil {
						return err
					}
					if err := os.WriteFile(out, data, 0o644); err != nil {
						return fmt.Errorf("failed to write report: %w", err)
					}
				}
				return printJSON(cmd.OutOrStdout(), report.Summary)
			})
		},
	}

	cmd.Flags().IntVar(&req.K, "k", 0, "passages per question (default 5)")
	cmd.Flags().StringVar(&req.Retriever, "retriever", "", "auto, tfidf, bm25 or dense")
	cmd.Flags().StringVar(&subject, "subject", "", "subject for cases that name none")
	cmd.Flags().StringVar(&chapter, "chapter", "", "chapter for cases that name none")
	cmd.Flags().StringVar(&out, "out", "", "write the full report with per-case rows to this file")
	return cmd
}

// readCases loads expectation cases, filling a missing subject or chapter
// from the given defaults.
func readCases(path, subject, chapter string) ([]service.EvalCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []service.EvalCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i := range cases {
		if cases[i].Subject == "" {
			cases[i].Subject = subject
		}
		if cases[i].Chapter == "" {
			cases[i].Chapter = chapter
		}
	}
	return cases, nil
}
