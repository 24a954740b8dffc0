package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studyqa/internal/app"
	"studyqa/internal/calibration"
	"studyqa/internal/service"
)

func calibrateCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "calibrate <rows.json>",
		Short: "Suggest validator thresholds from labeled scores",
		Long: "Suggest validator thresholds from labeled scores. The file holds a JSON list of\n" +
			`{"gold_label": "correct|partial|incorrect", "score": 0-100} rows, or an object with a "rows" list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Service.Calibrate(ctx, service.CalibrateRequest{Rows: rows, Apply: apply})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "store the suggestions as threshold overrides")
	return cmd
}

// readRows loads calibration rows from a JSON list or a {"rows": [...]} object.
func readRows(path string) ([]calibration.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var rows []calibration.Row
	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &rows)
	} else {
		var wrapped struct {
			Rows []calibration.Row `json:"rows"`
		}
		err = json.Unmarshal(data, &wrapped)
		rows = wrapped.Rows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return rows, nil
}

func statsCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report record counts, page coverage and chunk sizes per namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				resp, err := a.Service.Stats(ctx, namespace)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			})
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace to report (all when empty)")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached TF-IDF models",
	}

	var namespace string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached TF-IDF models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				cleared, err := a.Service.ClearCache(ctx, namespace)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"cleared_namespaces": cleared})
			})
		},
	}
	clearCmd.Flags().StringVar(&namespace, "namespace", "", "namespace to clear (all when empty)")

	cmd.AddCommand(clearCmd)
	return cmd
}
