package main

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"studyqa/internal/app"
	"studyqa/internal/ingest"
	"studyqa/internal/lexical"
	"studyqa/internal/service"
)

type ingestOptions struct {
	subject      string
	chapter      string
	reset        bool
	chunkSize    int
	chunkOverlap int
}

func ingestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest <pdf|dir>...",
		Short: "Extract, chunk and index chapter PDFs",
		Long: "Extract, chunk and index chapter PDFs. Directories are searched for .pdf files.\n" +
			"Without --subject the subject is the first folder below a directory argument\n" +
			"(Syllabus/Economics/keec101.pdf is Economics). Without --chapter the chapter is taken\n" +
			"from the trailing digits of each file name (keec103.pdf is chapter 3).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := ingest.ScanPDFs(cmd.Context(), args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no PDF files found")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return runIngest(ctx, cmd, a.Service, files, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.subject, "subject", "", "subject of the chapters (inferred from folders when empty)")
	cmd.Flags().StringVar(&opts.chapter, "chapter", "", "chapter label (inferred from file names when empty)")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "clear each namespace before indexing")
	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", 0, "chunk size in characters (default 1200)")
	cmd.Flags().IntVar(&opts.chunkOverlap, "chunk-overlap", 0, "chunk overlap in characters (default 200)")
	return cmd
}

func runIngest(ctx context.Context, cmd *cobra.Command, svc service.StudyService, files []ingest.ScannedFile, opts ingestOptions) error {
	// A namespace is reset once, before its first file.
	resetDone := make(map[string]bool)
	var failed int
	for _, f := range files {
		path := f.Path
		subject := opts.subject
		if subject == "" {
			subject = f.Folder
		}
		chapter := opts.chapter
		if chapter == "" {
			chapter = inferChapter(filepath.Base(path))
		}
		ns := lexical.Namespace(subject, chapter)
		resp, err := svc.Index(ctx, service.IndexRequest{
			Subject:      subject,
			Chapter:      chapter,
			Path:         path,
			ChunkSize:    opts.chunkSize,
			ChunkOverlap: opts.chunkOverlap,
			Reset:        opts.reset && !resetDone[ns],
		})
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}
		resetDone[ns] = true
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%d chunks, %d records)\n", path, resp.Namespace, resp.Chunks, resp.Count)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

var digitRun = regexp.MustCompile(`\d+`)

// inferChapter derives a chapter label from the last run of digits in a file
// name, keeping at most its last two digits. It returns "" when there are none.
func inferChapter(filename string) string {
	runs := digitRun.FindAllString(strings.TrimSuffix(filename, filepath.Ext(filename)), -1)
	if len(runs) == 0 {
		return ""
	}
	last := runs[len(runs)-1]
	if len(last) > 2 {
		last = last[len(last)-2:]
	}
	n, err := strconv.Atoi(last)
	if err != nil || n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
