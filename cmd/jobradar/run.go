package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/model"
	"github.com/amishk599/jobradar/internal/notifier"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/poller"
	"github.com/amishk599/jobradar/internal/store"
)

var (
	runJSON   bool
	runNotify bool
	runSave   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the result",
	Long: "Fetches all sources, merges and filters by commute, then prints the result. " +
		"--notify reports jobs not reported before; --save writes a snapshot to the configured store.",
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result object as JSON")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "send newly seen jobs through the configured notifier")
	runCmd.Flags().BoolVar(&runSave, "save", false, "save the run to the snapshot store")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	// Keep stdout clean for --json.
	logOut := io.Writer(os.Stdout)
	if runJSON {
		logOut = os.Stderr
	}
	logger := setupLogger(logOut, debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st store.Store = store.NewNopStore()
	if runSave || runNotify {
		if runSave && cfg.Store.Path == "" {
			logger.Warn("--save has no effect without store.path in config")
		}
		st, err = setupStore(cfg)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
	}
	defer st.Close()

	var n notifier.Notifier
	if runNotify {
		n = setupNotifier(cfg, &http.Client{Timeout: cfg.RequestTimeout}, logger)
	}
	p := poller.New(buildPipeline(cfg, logger), st, n, poller.Options{Save: runSave, Notify: runNotify}, logger)

	res, err := p.Poll(ctx)
	if err != nil {
		logger.Error("post-run step failed", "error", err)
		os.Exit(1)
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(os.Stdout, res)
	return nil
}

func printResult(w io.Writer, res pipeline.Result) {
	for _, line := range res.Progress {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-12s %-40s %-20s %s\n", "Distance", "Title", "Company", "Location")
	fmt.Fprintln(w, strings.Repeat("─", 96))
	for _, j := range res.Jobs {
		fmt.Fprintf(w, "%-12s %-40s %-20s %s\n", shortDistance(j), truncate(j.Title, 40), truncate(j.Company, 20), j.Location)
	}

	fmt.Fprintf(w, "\n%s commutable of %s found\n", humanize.Comma(int64(res.TotalFiltered)), humanize.Comma(int64(res.TotalFound)))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
}

func shortDistance(j model.Job) string {
	if j.WorkType != model.WorkRemote && j.DistanceMiles == nil {
		return "unknown"
	}
	return j.DistanceLabel()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
