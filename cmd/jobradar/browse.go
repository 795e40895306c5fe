package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/browse"
	"github.com/amishk599/jobradar/internal/pipeline"
	"github.com/amishk599/jobradar/internal/store"
)

var browseFromDB bool

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse commutable jobs in an interactive terminal UI",
	Long:  "Runs the pipeline with a progress display, then opens the browser. --from-db opens the latest saved snapshot instead.",
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&browseFromDB, "from-db", false, "open the latest saved run instead of fetching")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	// The TUI owns the terminal; logs only go out with --debug, on stderr.
	logOut := io.Discard
	if debug {
		logOut = os.Stderr
	}
	logger := setupLogger(logOut, debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	var res pipeline.Result
	if browseFromDB {
		if cfg.Store.Path == "" {
			fmt.Fprintln(os.Stderr, "--from-db requires store.path in config")
			os.Exit(1)
		}
		st, err := setupStore(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		snap, err := st.LatestRun(context.Background())
		if errors.Is(err, store.ErrNoRuns) {
			fmt.Fprintln(os.Stderr, "no saved runs yet; try `jobradar run --save`")
			os.Exit(1)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Opening run %s saved %s\n", snap.RunID, humanize.Time(snap.SavedAt))
		res = snap.Result
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		res, err = browse.RunLoader(ctx, buildPipeline(cfg, logger).Stream)
		if errors.Is(err, browse.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	return browse.Run(res, cfg.MaxCommuteMiles)
}
