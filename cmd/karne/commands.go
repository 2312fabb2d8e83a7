package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/karne/internal/analysis"
	"github.com/pavelanni/karne/internal/document"
	appI18n "github.com/pavelanni/karne/internal/i18n"
	"github.com/pavelanni/karne/internal/store"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze exam report files and save the result",
		Args:  cobra.ArbitraryArgs,
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.String("text-file", "", "Plain text file with extra report content ('-' for stdin)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.Bool("no-save", false, "Print the analysis without saving it")
	addStoreFlags(f)
	addLLMFlags(f)
	addCommonFlags(f)
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, err := initI18n(cmd.Context(), v)
	if err != nil {
		return err
	}

	files := make([]document.File, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, document.File{Name: filepath.Base(path), Data: data})
	}
	payload, err := document.Prepare(files)
	if err != nil {
		return err
	}
	if tf := v.GetString("text-file"); tf != "" {
		extra, err := readInput(cmd, tf)
		if err != nil {
			return err
		}
		payload.Text = strings.TrimSpace(payload.Text + "\n" + string(extra))
	}

	client, err := newLLMClient(ctx, v)
	if err != nil {
		return err
	}
	slog.Info("analyzing", "files", len(files), "images", len(payload.Images), "text_chars", len(payload.Text))
	result, err := client.Analyze(ctx, payload)
	if err != nil {
		return err
	}

	if !v.GetBool("no-save") {
		db, err := store.New(v.GetString("db"))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if result, err = db.Save(result); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), appI18n.Td(ctx, "AnalysisSaved", map[string]any{"ID": result.ID}))
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(cmd, v.GetString("output"), data)
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved analyses",
	}
	cmd.AddCommand(
		historySubCmd(&cobra.Command{
			Use:   "list",
			Short: "List saved analyses, newest first",
			Args:  cobra.NoArgs,
			RunE:  runHistoryList,
		}),
		historySubCmd(&cobra.Command{
			Use:   "show ID|all",
			Short: "Print one analysis or the combined view of all of them",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryShow,
		}),
		historySubCmd(&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a saved analysis",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryDelete,
		}),
		historyExportCmd(),
		historySubCmd(&cobra.Command{
			Use:   "import FILE",
			Short: "Import analyses from a JSON export ('-' for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE:  runHistoryImport,
		}),
	)
	return cmd
}

func historySubCmd(cmd *cobra.Command) *cobra.Command {
	f := cmd.Flags()
	addStoreFlags(f)
	addCommonFlags(f)
	return cmd
}

func historyExportCmd() *cobra.Command {
	cmd := historySubCmd(&cobra.Command{
		Use:   "export",
		Short: "Export all saved analyses as JSON",
		Args:  cobra.NoArgs,
		RunE:  runHistoryExport,
	})
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

type historyEnv struct {
	ctx    context.Context
	output string
}

// openHistory prepares logging, translations and the store for a history command.
func openHistory(cmd *cobra.Command) (*store.Store, *historyEnv, error) {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := initI18n(cmd.Context(), v)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return db, &historyEnv{ctx: ctx, output: v.GetString("output")}, nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	db, env, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := db.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintln(out, appI18n.T(env.ctx, "HistoryEmpty"))
		return nil
	}

	fmt.Fprintln(out, appI18n.T(env.ctx, "HistoryHeader"))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, a := range history {
		exam := ""
		if n := len(a.ExamHistory); n > 0 {
			exam = a.ExamHistory[n-1].ExamName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\n",
			a.ID,
			time.UnixMilli(a.SavedAt).Format("2006-01-02 15:04"),
			a.StudentInfo.Name,
			exam,
			a.ExecutiveSummary.EstimatedPercentile,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, appI18n.Tp(env.ctx, "AnalysesCount", len(history)))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, env, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	history, err := db.List()
	if err != nil {
		return err
	}
	a, err := analysis.Select(history, args[0])
	if err != nil {
		return err
	}
	if args[0] == analysis.ScopeAll {
		fmt.Fprintln(cmd.ErrOrStderr(), appI18n.Td(env.ctx, "CombinedView", map[string]any{"Count": len(history)}))
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(cmd, "-", data)
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	db, env, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(env.ctx, "AnalysisDeleted", map[string]any{"ID": args[0]}))
	return nil
}

func runHistoryExport(cmd *cobra.Command, _ []string) error {
	db, env, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	w, closeOut, err := openOutput(cmd, env.output)
	if err != nil {
		return err
	}
	defer closeOut()
	return db.ExportHistory(w)
}

func runHistoryImport(cmd *cobra.Command, args []string) error {
	db, env, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	data, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	stats, err := db.ImportHistory(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), appI18n.Td(env.ctx, "ImportSummary", map[string]any{
		"Imported": stats.Imported,
		"Skipped":  stats.Skipped,
		"Invalid":  stats.Invalid,
	}))
	return nil
}

func coachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coach MESSAGE",
		Short: "Ask the study coach about a saved analysis",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCoach,
	}
	f := cmd.Flags()
	f.String("scope", analysis.ScopeAll, "Analysis ID to discuss, or 'all' for the combined view")
	addStoreFlags(f)
	addLLMFlags(f)
	addCommonFlags(f)
	return cmd
}

func runCoach(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx, err := initI18n(cmd.Context(), v)
	if err != nil {
		return err
	}

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return errors.New(appI18n.T(ctx, "ErrEmptyMessage"))
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	history, err := db.List()
	if err != nil {
		return err
	}
	a, err := analysis.Select(history, v.GetString("scope"))
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, v)
	if err != nil {
		return err
	}
	reply, err := client.Chat(ctx, message, nil, a)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// openOutput returns the command's stdout for "" or "-", otherwise a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	w, closeOut, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	defer closeOut()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}
