package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobradar/internal/config"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List the configured sources and company rosters",
	Long:  "Reads the config and prints the remote feed and a table of every Greenhouse and Lever company.",
	RunE:  runCompanies,
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Remotive feed: %s (category %q, limit %d)\n\n", cfg.Remotive.URL, cfg.Remotive.Category, cfg.Remotive.Limit)

	fmt.Printf("%-25s %-20s %s\n", "Company", "Slug", "Board")
	fmt.Println(strings.Repeat("─", 57))

	rosters := []struct {
		board string
		cfg   config.BoardConfig
	}{
		{"greenhouse", cfg.Greenhouse},
		{"lever", cfg.Lever},
	}
	total := 0
	for _, r := range rosters {
		for _, c := range r.cfg.Companies {
			fmt.Printf("%-25s %-20s %s\n", c.Name, c.Slug, r.board)
		}
		total += len(r.cfg.Companies)
	}

	fmt.Printf("\nTotal: %s companies (%d greenhouse, %d lever), up to %d requests in flight per board\n",
		humanize.Comma(int64(total)), len(cfg.Greenhouse.Companies), len(cfg.Lever.Companies), cfg.Concurrency)
	return nil
}
